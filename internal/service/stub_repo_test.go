package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Ranjel272/POSBF/internal/model"
	"github.com/Ranjel272/POSBF/internal/repository"

	"github.com/google/uuid"
)

// ── In-memory AccountRepository stub ─────────────────────────────────────────

// stubAccountRepo mirrors the partial unique indexes of the real store: full
// name and username are unique among active rows only.
type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*model.Account
	events   []model.AccountEvent
	failWith error
}

func newStubRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[uuid.UUID]*model.Account)}
}

func (r *stubAccountRepo) find(match func(*model.Account) bool) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, a := range r.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubAccountRepo) FindActiveByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return !a.IsDisabled && a.ID == id })
}

func (r *stubAccountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return a.ID == id })
}

func (r *stubAccountRepo) FindActiveByFullName(_ context.Context, fullName string) (*model.Account, error) {
	return r.find(func(a *model.Account) bool { return !a.IsDisabled && a.FullName == fullName })
}

func (r *stubAccountRepo) FindActiveByUsername(_ context.Context, username string) (*model.Account, error) {
	return r.find(func(a *model.Account) bool {
		return !a.IsDisabled && a.Username != nil && *a.Username == username
	})
}

func (r *stubAccountRepo) FindActiveByRole(_ context.Context, role model.Role) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []model.Account
	for _, a := range r.accounts {
		if !a.IsDisabled && a.Role == role {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubAccountRepo) conflicts(self uuid.UUID, fullName string, username *string) bool {
	for _, a := range r.accounts {
		if a.IsDisabled || a.ID == self {
			continue
		}
		if a.FullName == fullName {
			return true
		}
		if username != nil && a.Username != nil && *a.Username == *username {
			return true
		}
	}
	return false
}

func (r *stubAccountRepo) Insert(_ context.Context, a *model.Account) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return uuid.Nil, r.failWith
	}
	if r.conflicts(uuid.Nil, a.FullName, a.Username) {
		return uuid.Nil, repository.ErrDuplicate
	}
	a.ID = uuid.New()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.accounts[a.ID] = &cp
	return a.ID, nil
}

func (r *stubAccountRepo) UpdateFields(_ context.Context, id uuid.UUID, ch model.AccountChanges) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	a, ok := r.accounts[id]
	if !ok || a.IsDisabled {
		return repository.ErrNotFound
	}
	if ch.FullName != nil && r.conflicts(id, *ch.FullName, nil) {
		return repository.ErrDuplicate
	}
	if ch.FullName != nil {
		a.FullName = *ch.FullName
	}
	if ch.CredentialHash != nil {
		a.CredentialHash = *ch.CredentialHash
	}
	a.UpdatedAt = ch.UpdatedAt
	return nil
}

func (r *stubAccountRepo) Disable(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsDisabled = true
	return nil
}

func (r *stubAccountRepo) ListActive(_ context.Context) ([]model.AccountSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	var out []model.AccountSummary
	for _, a := range r.accounts {
		if a.IsDisabled {
			continue
		}
		out = append(out, model.AccountSummary{
			ID: a.ID, FullName: a.FullName, Username: a.Username, Role: a.Role, UpdatedAt: a.UpdatedAt,
		})
	}
	return out, nil
}

func (r *stubAccountRepo) RecordEvent(_ context.Context, e *model.AccountEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *stubAccountRepo) get(id uuid.UUID) model.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.accounts[id]
}

// ── Audit recorder ───────────────────────────────────────────────────────────

type recordingDispatcher struct {
	mu     sync.Mutex
	events []model.AccountEvent
	err    error
}

func (d *recordingDispatcher) EnqueueAudit(_ context.Context, e *model.AccountEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, *e)
	return d.err
}

func (d *recordingDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}

var errStoreDown = errors.New("connection refused")
