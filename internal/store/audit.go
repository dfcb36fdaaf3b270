package store

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/homeroomhq/homeroom/internal/gateway"
)

// AuditRecorder persists dispatch outcomes to the audit log. A store failure
// is logged and swallowed; auditing never fails a dispatch.
type AuditRecorder struct {
	store  Store
	logger *slog.Logger
}

// NewAuditRecorder creates an AuditRecorder writing to the given store.
func NewAuditRecorder(s Store, logger *slog.Logger) *AuditRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditRecorder{store: s, logger: logger}
}

// RecordDispatch implements gateway.AuditSink.
func (a *AuditRecorder) RecordDispatch(ctx context.Context, audit gateway.DispatchAudit) {
	rec := &DispatchRecord{
		ID:         uuid.New().String(),
		AgentID:    audit.AgentID,
		Provider:   audit.Provider,
		Action:     audit.Action,
		Success:    audit.Success,
		Error:      audit.Error,
		DurationMs: audit.Duration.Milliseconds(),
	}
	if err := a.store.AppendDispatch(ctx, rec); err != nil {
		a.logger.ErrorContext(ctx, "audit write failed",
			slog.String("provider", audit.Provider),
			slog.String("action", audit.Action),
			slog.Any("error", err),
		)
	}
}
