package account

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
)

const maxNameLength = 120

// Avatar references an image hosted by the media provider.
type Avatar struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Account is the persisted record. The password hash is unexported and is
// only reachable through ComparePassword and SetPassword.
type Account struct {
	ID        domain.AccountID
	Email     string
	Name      string
	Role      domain.Role
	Verified  bool
	Avatar    Avatar
	CreatedAt time.Time
	UpdatedAt time.Time

	passwordHash []byte
}

// AccountView is the client-safe projection cached in sessions and returned
// by the API.
type AccountView struct {
	ID         domain.AccountID `json:"id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Role       domain.Role      `json:"role"`
	IsVerified bool             `json:"is_verified"`
	Avatar     *Avatar          `json:"avatar,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewAccount builds a verified password account with the default role.
func NewAccount(email, name, rawPassword string, now time.Time) (*Account, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name, err = NormalizeName(name)
	if err != nil {
		return nil, err
	}
	a := &Account{
		ID:        domain.NewAccountID(),
		Email:     email,
		Name:      name,
		Role:      domain.RoleUser,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.SetPassword(rawPassword); err != nil {
		return nil, err
	}
	return a, nil
}

// NewSocialAccount builds a verified account for an identity asserted by an
// external provider. It has no password and can only sign in socially.
func NewSocialAccount(email, name string, avatar Avatar, now time.Time) (*Account, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name, err = NormalizeName(name)
	if err != nil {
		return nil, err
	}
	return &Account{
		ID:        domain.NewAccountID(),
		Email:     email,
		Name:      name,
		Role:      domain.RoleUser,
		Verified:  true,
		Avatar:    avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// View projects the account without its credential.
func (a *Account) View() AccountView {
	v := AccountView{
		ID:         a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Role:       a.Role,
		IsVerified: a.Verified,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.Avatar != (Avatar{}) {
		avatar := a.Avatar
		v.Avatar = &avatar
	}
	return v
}

// HasPassword reports whether the account can sign in with a password.
func (a *Account) HasPassword() bool {
	return len(a.passwordHash) > 0
}

func (a *Account) clone() *Account {
	c := *a
	c.passwordHash = append([]byte(nil), a.passwordHash...)
	return &c
}

// NormalizeEmail trims, lower-cases and validates an email identity.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if err := validation.Validate(email, is.Email); err != nil || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return email, nil
}

// NormalizeName trims and bounds a display name.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if err := validation.Validate(name, validation.RuneLength(1, maxNameLength)); err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	return name, nil
}
