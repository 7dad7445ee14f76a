// Package audit records security-relevant account and session events.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/mssola/useragent"

	"learnhub/pkg/domain"
	"learnhub/pkg/requestcontext"
)

// Action names an audited event.
type Action string

const (
	ActionActivationRequested Action = "activation_requested"
	ActionActivationFailed    Action = "activation_failed"
	ActionAccountCreated      Action = "account_created"
	ActionLoginSucceeded      Action = "login_succeeded"
	ActionLoginFailed         Action = "login_failed"
	ActionSessionRefreshed    Action = "session_refreshed"
	ActionRefreshRejected     Action = "refresh_rejected"
	ActionSessionEnded        Action = "session_ended"
)

// Event is transport-agnostic so several sinks can consume it.
type Event struct {
	Action    Action           `json:"action"`
	AccountID domain.AccountID `json:"account_id,omitzero"`
	Email     string           `json:"email,omitempty"`
	Method    string           `json:"method,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
	ClientIP  string           `json:"client_ip,omitempty"`
	Device    string           `json:"device,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Emit(ctx context.Context, ev Event) error
}

// Enrich fills request-scoped fields the caller left empty.
func Enrich(ctx context.Context, ev Event) Event {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = requestcontext.Now(ctx)
	}
	if ev.RequestID == "" {
		ev.RequestID = requestcontext.RequestID(ctx)
	}
	if ev.ClientIP == "" {
		ev.ClientIP = requestcontext.ClientIP(ctx)
	}
	if ev.Device == "" {
		ev.Device = DeviceLabel(requestcontext.UserAgent(ctx))
	}
	return ev
}

// DeviceLabel condenses a User-Agent into "browser/os", e.g. "Firefox/Linux".
// Unknown or empty agents yield "".
func DeviceLabel(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	if ua.Bot() {
		name, _ := ua.Browser()
		return "bot/" + name
	}
	name, _ := ua.Browser()
	osName := ua.OSInfo().Name
	switch {
	case name == "" && osName == "":
		return ""
	case osName == "":
		return name
	case name == "":
		return osName
	}
	label := name + "/" + osName
	if ua.Mobile() {
		label += " (mobile)"
	}
	return label
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Emit(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
