// Package domain holds the primitives shared by every layer: typed
// identifiers and the role enumeration. Values are validated when parsed at
// trust boundaries so the rest of the code can rely on them.
package domain

import (
	"github.com/google/uuid"

	dErrors "learnhub/pkg/domain-errors"
)

// AccountID identifies an account. It is a distinct type so it can't be mixed
// up with other UUIDs flowing through the system.
type AccountID uuid.UUID

// NewAccountID returns a fresh random account id.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

// ParseAccountID parses s and rejects empty, malformed and nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

func (id AccountID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id AccountID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText lets AccountID serialize as its canonical string form.
func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText accepts the canonical string form, including the nil UUID so
// zero values survive a round trip.
func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid account id")
	}
	*id = AccountID(u)
	return nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid id format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be nil")
	}
	return u, nil
}
