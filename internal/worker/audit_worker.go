package worker

// Consumes account lifecycle events from QueueAudit, persists them to the
// account_events table and mails a notice for security-relevant events.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ranjel272/POSBF/internal/infra"
	"github.com/Ranjel272/POSBF/internal/metrics"
	"github.com/Ranjel272/POSBF/internal/model"

	"github.com/rs/zerolog/log"
)

// EventRecorder persists audit rows. Satisfied by repository.AccountRepository.
type EventRecorder interface {
	RecordEvent(ctx context.Context, e *model.AccountEvent) error
}

// Notifier delivers a plain-text notice. Satisfied by *infra.Mailer.
type Notifier interface {
	Send(to, subject, body string) error
}

// AuditWorker handles JobTypeAudit jobs.
type AuditWorker struct {
	events   EventRecorder
	mailer   Notifier
	breaker  *infra.CircuitBreaker
	notifyTo string
}

// NewAuditWorker creates an AuditWorker. mailer may be nil, in which case no
// notices are sent.
func NewAuditWorker(events EventRecorder, mailer Notifier, breaker *infra.CircuitBreaker, notifyTo string) *AuditWorker {
	if breaker == nil {
		breaker = infra.NewCircuitBreaker(infra.BreakerConfig{})
	}
	return &AuditWorker{events: events, mailer: mailer, breaker: breaker, notifyTo: notifyTo}
}

// Handle decodes and processes one queued event.
func (w *AuditWorker) Handle(ctx context.Context, raw json.RawMessage) error {
	var e model.AccountEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		metrics.AuditJobs.WithLabelValues("invalid").Inc()
		return Permanent(fmt.Errorf("audit_worker: invalid payload: %w", err))
	}
	return w.Process(ctx, &e)
}

// Process records e and, for disable and credential rotation events, mails
// the configured recipient. Mail failures are logged and never retried so a
// requeue cannot insert the same event twice.
func (w *AuditWorker) Process(ctx context.Context, e *model.AccountEvent) error {
	if err := w.events.RecordEvent(ctx, e); err != nil {
		metrics.AuditJobs.WithLabelValues("error").Inc()
		return fmt.Errorf("audit_worker: record event: %w", err)
	}
	metrics.AuditJobs.WithLabelValues("recorded").Inc()

	if !w.notifies(e) {
		return nil
	}
	err := w.breaker.Execute(func() error {
		return w.mailer.Send(w.notifyTo, noticeSubject(e), noticeBody(e))
	})
	switch {
	case errors.Is(err, infra.ErrCircuitOpen):
		log.Warn().Str("event", e.Type).Msg("audit_worker: mail circuit open, notice skipped")
	case err != nil:
		log.Error().Err(err).Str("event", e.Type).Msg("audit_worker: failed to send notice")
	default:
		log.Info().Str("event", e.Type).Str("account_id", e.AccountID.String()).Msg("audit_worker: notice sent")
	}
	return nil
}

func (w *AuditWorker) notifies(e *model.AccountEvent) bool {
	if w.mailer == nil || w.notifyTo == "" {
		return false
	}
	return e.Type == model.EventAccountDisabled || e.Type == model.EventAccountCredentialRotated
}

func noticeSubject(e *model.AccountEvent) string {
	switch e.Type {
	case model.EventAccountDisabled:
		return "Employee account disabled"
	default:
		return "Employee credential changed"
	}
}

func noticeBody(e *model.AccountEvent) string {
	actor := "system"
	if e.ActorID != nil {
		actor = e.ActorID.String()
	}
	return fmt.Sprintf("Event: %s\nAccount: %s\nBy: %s\nAt: %s\n",
		e.Type, e.AccountID, actor, e.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
}

// DirectDispatcher runs audit jobs inline. Used when Redis is not configured.
type DirectDispatcher struct {
	worker *AuditWorker
}

func NewDirectDispatcher(w *AuditWorker) *DirectDispatcher {
	return &DirectDispatcher{worker: w}
}

func (d *DirectDispatcher) EnqueueAudit(ctx context.Context, e *model.AccountEvent) error {
	return d.worker.Process(ctx, e)
}
