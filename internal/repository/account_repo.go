package repository

import (
	"context"
	"time"

	"github.com/Ranjel272/POSBF/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepository is the account store consumed by the services. Every
// write is a single statement, so it is atomic per account row.
type AccountRepository interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindActiveByFullName(ctx context.Context, fullName string) (*model.Account, error)
	FindActiveByUsername(ctx context.Context, username string) (*model.Account, error)
	FindActiveByRole(ctx context.Context, role model.Role) ([]model.Account, error)
	Insert(ctx context.Context, a *model.Account) (uuid.UUID, error)
	UpdateFields(ctx context.Context, id uuid.UUID, ch model.AccountChanges) error
	Disable(ctx context.Context, id uuid.UUID) error
	ListActive(ctx context.Context) ([]model.AccountSummary, error)
	RecordEvent(ctx context.Context, e *model.AccountEvent) error
}

type accountRepo struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepo{db: db} }

func (r *accountRepo) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("is_disabled = ?", false)
}

func (r *accountRepo) FindActiveByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	if err := r.active(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *accountRepo) FindActiveByFullName(ctx context.Context, fullName string) (*model.Account, error) {
	var a model.Account
	if err := r.active(ctx).Where("full_name = ?", fullName).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *accountRepo) FindActiveByUsername(ctx context.Context, username string) (*model.Account, error) {
	var a model.Account
	if err := r.active(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *accountRepo) FindActiveByRole(ctx context.Context, role model.Role) ([]model.Account, error) {
	var accounts []model.Account
	err := r.active(ctx).Where("role = ?", role).Order("created_at").Find(&accounts).Error
	return accounts, translate(err)
}

// Insert assigns the id and timestamps and writes the row. Races on full name
// or username surface as ErrDuplicate from the partial unique indexes.
func (r *accountRepo) Insert(ctx context.Context, a *model.Account) (uuid.UUID, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	a.IsDisabled = false
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return uuid.Nil, translate(err)
	}
	return a.ID, nil
}

func (r *accountRepo) UpdateFields(ctx context.Context, id uuid.UUID, ch model.AccountChanges) error {
	updates := map[string]interface{}{"updated_at": ch.UpdatedAt}
	if ch.FullName != nil {
		updates["full_name"] = *ch.FullName
	}
	if ch.CredentialHash != nil {
		updates["credential_hash"] = *ch.CredentialHash
	}
	res := r.active(ctx).Model(&model.Account{}).Where("id = ?", id).UpdateColumns(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Disable sets the soft-delete flag. Disabling an already disabled row is not
// an error; only an unknown id is.
func (r *accountRepo) Disable(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		UpdateColumn("is_disabled", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accountRepo) ListActive(ctx context.Context) ([]model.AccountSummary, error) {
	var rows []model.AccountSummary
	err := r.active(ctx).Model(&model.Account{}).
		Select("id", "full_name", "username", "role", "updated_at").
		Order("created_at").
		Scan(&rows).Error
	return rows, translate(err)
}

func (r *accountRepo) RecordEvent(ctx context.Context, e *model.AccountEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(e).Error)
}
