package account

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	dErrors "learnhub/pkg/domain-errors"
)

const (
	minPasswordLength = 6
	// bcrypt only reads the first 72 bytes.
	maxPasswordBytes = 72
)

// hashCost is a variable so tests can lower it.
var hashCost = bcrypt.DefaultCost

// dummyHash is compared against when no real hash exists so every failed
// sign-in performs one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("learnhub-timing-equalizer"), hashCost)
	if err != nil {
		panic(err)
	}
	return h
})

// ValidatePassword enforces the password policy.
func ValidatePassword(raw string) error {
	if len([]rune(raw)) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	if len(raw) > maxPasswordBytes {
		return dErrors.New(dErrors.CodeValidation, "password must be at most 72 bytes")
	}
	return nil
}

// SetPassword validates raw and replaces the stored hash.
func (a *Account) SetPassword(raw string) error {
	if err := ValidatePassword(raw); err != nil {
		return err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(raw), hashCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	a.passwordHash = h
	return nil
}

// ComparePassword reports whether raw matches the stored hash. Accounts
// without a password still pay for one comparison and never match.
func (a *Account) ComparePassword(raw string) bool {
	if !a.HasPassword() {
		EqualizeTiming(raw)
		return false
	}
	err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(raw))
	return err == nil
}

// EqualizeTiming burns one bcrypt comparison against a fixed hash. Callers
// use it when the identity is unknown so the response time does not reveal
// whether an account exists.
func EqualizeTiming(raw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(raw))
}
