package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"ada.lovelace+lh@x.com": "Ada Lovelace",
		"grace_hopper@x.com":    "Grace Hopper",
		"linus@x.com":           "Linus",
		"élodie-roux@x.fr":      "Élodie Roux",
		"+tag@x.com":            "User",
		"@x.com":                "User",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, DisplayName(in))
		})
	}
}
