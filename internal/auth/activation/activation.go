// Package activation turns a registration into a signed, short-lived
// activation ticket plus an emailed numeric code, and later consumes both to
// create the account.
package activation

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"learnhub/internal/account"
	"learnhub/internal/audit"
	"learnhub/internal/mail"
	"learnhub/internal/platform/metrics"
	"learnhub/internal/token"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/platform/sentinel"
	"learnhub/pkg/requestcontext"
)

const (
	stageBegin    = "begin"
	stageComplete = "complete"

	minDigits = 4
	maxDigits = 10

	activationSubject = "Activate your LearnHub account"
)

var (
	errDuplicate    = dErrors.New(dErrors.CodeDuplicateAccount, "an account with this email already exists")
	errCodeMismatch = dErrors.New(dErrors.CodeActivationCodeMismatch, "invalid activation code")
)

// Config controls ticket lifetime and code shape. CodeKey binds codes to
// tickets; it must stay secret.
type Config struct {
	TTL        time.Duration
	CodeDigits int
	CodeKey    []byte
}

// ticket is the activation token payload. It carries a MAC of the code
// rather than the code, since token payloads are readable by the client.
type ticket struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	CodeMAC string `json:"cmac"`
}

// CodeGenerator returns a numeric code of exactly digits characters.
type CodeGenerator func(digits int) (string, error)

type Service struct {
	codec    *token.Codec
	accounts account.Store
	mailer   mail.Mailer
	cfg      Config

	generate CodeGenerator
	audit    audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.audit = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCodeGenerator replaces the crypto/rand code source.
func WithCodeGenerator(g CodeGenerator) Option {
	return func(s *Service) {
		s.generate = g
	}
}

func New(codec *token.Codec, accounts account.Store, mailer mail.Mailer, cfg Config, opts ...Option) (*Service, error) {
	if codec == nil || accounts == nil || mailer == nil {
		return nil, errors.New("activation: codec, account store and mailer are required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("activation: ttl must be positive, got %s", cfg.TTL)
	}
	if cfg.CodeDigits < minDigits || cfg.CodeDigits > maxDigits {
		return nil, fmt.Errorf("activation: code digits must be in [%d, %d], got %d", minDigits, maxDigits, cfg.CodeDigits)
	}
	if len(cfg.CodeKey) == 0 {
		return nil, errors.New("activation: code key is required")
	}
	s := &Service{
		codec:    codec,
		accounts: accounts,
		mailer:   mailer,
		cfg:      cfg,
		generate: RandomCode,
		logger:   slog.Default(),
		tracer:   otel.Tracer("learnhub/internal/auth/activation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = audit.NewLogPublisher(s.logger)
	}
	return s, nil
}

// BeginActivation validates a registration, emails a one-time code and
// returns the activation token that must accompany it. The password is only
// checked against the policy here; it is supplied again at completion.
func (s *Service) BeginActivation(ctx context.Context, email, name, rawPassword string) (activationToken, code string, err error) {
	ctx, span := s.tracer.Start(ctx, "activation.Begin")
	defer func() { s.finish(span, stageBegin, err) }()

	email, err = account.NormalizeEmail(email)
	if err != nil {
		return "", "", err
	}
	name, err = account.NormalizeName(name)
	if err != nil {
		return "", "", err
	}
	if err := account.ValidatePassword(rawPassword); err != nil {
		return "", "", err
	}
	if err := s.ensureAvailable(ctx, email); err != nil {
		return "", "", err
	}

	code, err = s.generate(s.cfg.CodeDigits)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate activation code")
	}
	activationToken, err = s.codec.Issue(token.KindActivation, ticket{
		Email:   email,
		Name:    name,
		CodeMAC: base64.RawURLEncoding.EncodeToString(s.codeMAC(email, code)),
	}, s.cfg.TTL)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue activation token")
	}

	err = s.mailer.Send(ctx, mail.Message{
		Recipient:    email,
		Subject:      activationSubject,
		TemplateName: mail.ActivationTemplate,
		TemplateData: mail.ActivationData{
			Name:             name,
			ActivationCode:   code,
			ExpiresInMinutes: int(s.cfg.TTL.Round(time.Minute) / time.Minute),
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "activation email delivery failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return "", "", dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "failed to send activation email")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionActivationRequested})
	return activationToken, code, nil
}

// CompleteActivation checks the supplied code against the ticket and creates
// the verified account with the password supplied now. No session is started.
func (s *Service) CompleteActivation(ctx context.Context, activationToken, suppliedCode, rawPassword string) (a *account.Account, err error) {
	ctx, span := s.tracer.Start(ctx, "activation.Complete")
	defer func() { s.finish(span, stageComplete, err) }()

	var t ticket
	if err := s.codec.Verify(token.KindActivation, activationToken, &t); err != nil {
		s.emit(ctx, audit.Event{Action: audit.ActionActivationFailed, Reason: string(dErrors.CodeOf(err))})
		return nil, err
	}

	expected, err := base64.RawURLEncoding.DecodeString(t.CodeMAC)
	if err != nil {
		return nil, token.ErrInvalid
	}
	if !hmac.Equal(expected, s.codeMAC(t.Email, strings.TrimSpace(suppliedCode))) {
		s.emit(ctx, audit.Event{Action: audit.ActionActivationFailed, Reason: string(dErrors.CodeActivationCodeMismatch)})
		return nil, errCodeMismatch
	}

	if err := s.ensureAvailable(ctx, t.Email); err != nil {
		return nil, err
	}
	a, err = account.NewAccount(t.Email, t.Name, rawPassword, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, errDuplicate
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.metrics.IncrementAccountsCreated()
	s.emit(ctx, audit.Event{Action: audit.ActionAccountCreated, AccountID: a.ID, Method: "activation"})
	return a, nil
}

func (s *Service) ensureAvailable(ctx context.Context, email string) error {
	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return errDuplicate
	case errors.Is(err, sentinel.ErrNotFound):
		return nil
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check account")
	}
}

// codeMAC binds a code to the email it was issued for.
func (s *Service) codeMAC(email, code string) []byte {
	h := hmac.New(sha256.New, s.cfg.CodeKey)
	h.Write([]byte("activation-code\x00"))
	h.Write([]byte(email))
	h.Write([]byte{0})
	h.Write([]byte(code))
	return h.Sum(nil)
}

func (s *Service) emit(ctx context.Context, ev audit.Event) {
	if err := s.audit.Emit(ctx, audit.Enrich(ctx, ev)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", string(ev.Action),
			"error", err,
		)
	}
}

func (s *Service) finish(span trace.Span, stage string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	s.metrics.ObserveActivation(stage, outcome)
	span.End()
}

// RandomCode draws a uniform, zero-padded numeric code from crypto/rand.
func RandomCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
