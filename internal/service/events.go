package service

import (
	"context"

	"github.com/Ranjel272/POSBF/internal/model"
)

// AuditDispatcher hands account events to the audit pipeline. Implemented by
// worker.Dispatcher (Redis queue) and worker.DirectDispatcher.
type AuditDispatcher interface {
	EnqueueAudit(ctx context.Context, e *model.AccountEvent) error
}

type noopDispatcher struct{}

func (noopDispatcher) EnqueueAudit(context.Context, *model.AccountEvent) error { return nil }
