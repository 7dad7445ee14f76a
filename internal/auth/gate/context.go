package gate

import (
	"context"

	"learnhub/internal/account"
)

type contextKeyAccount struct{}

// WithAccount attaches an authenticated view to ctx.
func WithAccount(ctx context.Context, view account.AccountView) context.Context {
	return context.WithValue(ctx, contextKeyAccount{}, view)
}

// AccountFrom returns the view stored by RequireAuth.
func AccountFrom(ctx context.Context) (account.AccountView, bool) {
	view, ok := ctx.Value(contextKeyAccount{}).(account.AccountView)
	return view, ok
}
