// Package token signs and verifies the self-contained tokens the service hands
// out: activation tickets, access tokens and refresh tokens. Every kind is
// signed with its own secret so a leaked key for one kind cannot forge another.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "learnhub/pkg/domain-errors"
)

// Kind scopes a token to one purpose and one signing secret.
type Kind string

const (
	KindActivation Kind = "activation"
	KindAccess     Kind = "access"
	KindRefresh    Kind = "refresh"
)

var (
	ErrExpired = dErrors.New(dErrors.CodeTokenExpired, "token has expired")
	ErrInvalid = dErrors.New(dErrors.CodeTokenInvalid, "invalid token")
)

// Config carries the per-kind secrets. TTLs are chosen by callers at issue time.
type Config struct {
	ActivationSecret string
	AccessSecret     string
	RefreshSecret    string
	Issuer           string
}

// claims is the wire shape: kind and payload sit next to the registered claims.
type claims struct {
	Kind    Kind            `json:"knd"`
	Payload json.RawMessage `json:"dat"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 tokens.
type Codec struct {
	secrets map[Kind][]byte
	issuer  string
	now     func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the clock used for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec validates cfg and builds a Codec. Secrets must be non-empty and
// pairwise distinct.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	secrets := map[Kind]string{
		KindActivation: cfg.ActivationSecret,
		KindAccess:     cfg.AccessSecret,
		KindRefresh:    cfg.RefreshSecret,
	}
	seen := make(map[string]Kind, len(secrets))
	c := &Codec{
		secrets: make(map[Kind][]byte, len(secrets)),
		issuer:  cfg.Issuer,
		now:     time.Now,
	}
	for kind, secret := range secrets {
		if secret == "" {
			return nil, fmt.Errorf("token: %s secret is required", kind)
		}
		if other, dup := seen[secret]; dup {
			return nil, fmt.Errorf("token: %s and %s secrets must differ", other, kind)
		}
		seen[secret] = kind
		c.secrets[kind] = []byte(secret)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs payload as a token of the given kind that expires after ttl.
func (c *Codec) Issue(kind Kind, payload any, ttl time.Duration) (string, error) {
	secret, ok := c.secrets[kind]
	if !ok {
		return "", fmt.Errorf("token: unknown kind %q", kind)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token: ttl must be positive, got %s", ttl)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("token: encode payload: %w", err)
	}

	now := c.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Kind:    kind,
		Payload: raw,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	})
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature with the secret of kind, then the claims, and
// decodes the payload into dst. It returns ErrExpired only for tokens whose
// signature is valid; every other failure is ErrInvalid.
func (c *Codec) Verify(kind Kind, tokenString string, dst any) error {
	secret, ok := c.secrets[kind]
	if !ok {
		return ErrInvalid
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}

	var cl claims
	parsed, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return secret, nil
	}, parserOpts...)
	if err != nil {
		// jwt/v5 validates claims only after the signature checks out, so an
		// expiry error here implies an authentic token.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrInvalid
	}
	if !parsed.Valid || cl.Kind != kind {
		return ErrInvalid
	}

	if dst != nil {
		if err := json.Unmarshal(cl.Payload, dst); err != nil {
			return ErrInvalid
		}
	}
	return nil
}
