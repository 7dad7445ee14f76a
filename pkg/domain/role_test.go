package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "learnhub/pkg/domain-errors"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"user", "admin"} {
		r, err := ParseRole(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, r.String())
	}

	// Role strings are case-sensitive so "Admin" cannot smuggle in a match.
	for _, invalid := range []string{"", "Admin", "ADMIN", "root", " user"} {
		_, err := ParseRole(invalid)
		require.Error(t, err, "input %q", invalid)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestRoleSet(t *testing.T) {
	t.Run("contains only what was added", func(t *testing.T) {
		set := Roles(RoleAdmin)
		assert.True(t, set.Contains(RoleAdmin))
		assert.False(t, set.Contains(RoleUser))
		assert.False(t, set.Empty())
	})

	t.Run("unknown roles never match", func(t *testing.T) {
		set := Roles(Role("Admin"), Role(""))
		assert.True(t, set.Empty())
		assert.False(t, set.Contains(Role("Admin")))
		assert.False(t, set.Contains(Role("")))
	})

	t.Run("zero value is empty", func(t *testing.T) {
		var set RoleSet
		assert.True(t, set.Empty())
		assert.False(t, set.Contains(RoleUser))
	})
}
