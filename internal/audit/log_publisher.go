package audit

import (
	"context"
	"log/slog"
)

// LogPublisher writes events as structured log records.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With("component", "audit")}
}

func (p *LogPublisher) Emit(ctx context.Context, ev Event) error {
	attrs := []any{
		"action", string(ev.Action),
		"request_id", ev.RequestID,
		"timestamp", ev.Timestamp,
	}
	if !ev.AccountID.IsNil() {
		attrs = append(attrs, "account_id", ev.AccountID.String())
	}
	if ev.Method != "" {
		attrs = append(attrs, "method", ev.Method)
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", ev.Reason)
	}
	if ev.ClientIP != "" {
		attrs = append(attrs, "client_ip", ev.ClientIP)
	}
	if ev.Device != "" {
		attrs = append(attrs, "device", ev.Device)
	}

	level := slog.LevelInfo
	if ev.Action == ActionLoginFailed || ev.Action == ActionRefreshRejected || ev.Action == ActionActivationFailed {
		level = slog.LevelWarn
	}
	p.logger.Log(ctx, level, "audit event", attrs...)
	return nil
}
