package account

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"learnhub/pkg/domain"
	dErrors "learnhub/pkg/domain-errors"
	"learnhub/pkg/platform/sentinel"
	"learnhub/pkg/requestcontext"
)

// SessionInvalidator refreshes the cached session after an account changes.
type SessionInvalidator interface {
	InvalidateOnMutation(ctx context.Context, view AccountView) error
}

// Service implements the profile operations an authenticated account can
// perform on itself, plus the admin listing.
type Service struct {
	store    Store
	sessions SessionInvalidator
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(store Store, sessions SessionInvalidator, opts ...Option) *Service {
	s := &Service{
		store:    store,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateInfoInput carries the optional profile fields. Nil fields are left unchanged.
type UpdateInfoInput struct {
	Name  *string
	Email *string
}

// UpdateInfo changes the name and/or email of an account.
func (s *Service) UpdateInfo(ctx context.Context, id domain.AccountID, in UpdateInfoInput) (AccountView, error) {
	if in.Name == nil && in.Email == nil {
		return AccountView{}, dErrors.New(dErrors.CodeBadRequest, "nothing to update")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return AccountView{}, err
	}

	if in.Email != nil {
		email, err := NormalizeEmail(*in.Email)
		if err != nil {
			return AccountView{}, err
		}
		if email != a.Email {
			if _, err := s.store.FindByEmail(ctx, email); err == nil {
				return AccountView{}, errDuplicate
			} else if !errors.Is(err, sentinel.ErrNotFound) {
				return AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
			}
			a.Email = email
		}
	}
	if in.Name != nil {
		name, err := NormalizeName(*in.Name)
		if err != nil {
			return AccountView{}, err
		}
		a.Name = name
	}

	return s.save(ctx, a)
}

// UpdatePassword replaces the password after verifying the current one.
// Social-only accounts have no password to replace.
func (s *Service) UpdatePassword(ctx context.Context, id domain.AccountID, oldPassword, newPassword string) (AccountView, error) {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return AccountView{}, dErrors.New(dErrors.CodeBadRequest, "old and new password are required")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	if !a.ComparePassword(oldPassword) {
		s.logger.WarnContext(ctx, "password change rejected",
			"request_id", requestcontext.RequestID(ctx),
			"account_id", id.String(),
		)
		return AccountView{}, dErrors.New(dErrors.CodeInvalidCredentials, "invalid old password")
	}
	if err := a.SetPassword(newPassword); err != nil {
		return AccountView{}, err
	}
	return s.save(ctx, a)
}

// UpdateAvatar records a new avatar reference.
func (s *Service) UpdateAvatar(ctx context.Context, id domain.AccountID, avatar Avatar) (AccountView, error) {
	avatar.PublicID = strings.TrimSpace(avatar.PublicID)
	avatar.URL = strings.TrimSpace(avatar.URL)
	if avatar.PublicID == "" || avatar.URL == "" {
		return AccountView{}, dErrors.New(dErrors.CodeValidation, "avatar public_id and url are required")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return AccountView{}, err
	}
	a.Avatar = avatar
	return s.save(ctx, a)
}

// List returns every account, newest first.
func (s *Service) List(ctx context.Context) ([]AccountView, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	views := make([]AccountView, 0, len(accounts))
	for _, a := range accounts {
		views = append(views, a.View())
	}
	return views, nil
}

var errDuplicate = dErrors.New(dErrors.CodeDuplicateAccount, "email already in use")

func (s *Service) load(ctx context.Context, id domain.AccountID) (*Account, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return a, nil
}

// save persists a and pushes the new view into the session, if one exists.
// A failed session rewrite fails the operation so the gate never serves a
// stale view.
func (s *Service) save(ctx context.Context, a *Account) (AccountView, error) {
	a.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, a); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return AccountView{}, errDuplicate
		case errors.Is(err, sentinel.ErrNotFound):
			return AccountView{}, dErrors.New(dErrors.CodeNotFound, "account not found")
		default:
			return AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update account")
		}
	}

	view := a.View()
	if err := s.sessions.InvalidateOnMutation(ctx, view); err != nil {
		s.logger.ErrorContext(ctx, "failed to refresh session after account update",
			"request_id", requestcontext.RequestID(ctx),
			"account_id", a.ID.String(),
			"error", err,
		)
		return AccountView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to refresh session")
	}
	return view, nil
}
