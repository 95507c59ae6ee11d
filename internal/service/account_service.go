package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/credential"
	"github.com/Ranjel272/POSBF/internal/dto"
	"github.com/Ranjel272/POSBF/internal/metrics"
	"github.com/Ranjel272/POSBF/internal/model"
	"github.com/Ranjel272/POSBF/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AccountService owns the employee account lifecycle. Role gating happens in
// the middleware before these methods run; SelfUpdate additionally restricts
// the caller's role itself.
type AccountService interface {
	Create(ctx context.Context, actor *Identity, req dto.CreateAccountRequest) (uuid.UUID, error)
	ListActive(ctx context.Context) ([]dto.AccountResponse, error)
	Update(ctx context.Context, actor *Identity, id uuid.UUID, req dto.UpdateAccountRequest) (dto.UpdateResult, error)
	SelfUpdate(ctx context.Context, caller Identity, req dto.UpdateAccountRequest) (dto.UpdateResult, error)
	Disable(ctx context.Context, actor *Identity, id uuid.UUID) error
}

// AccountOptions tunes account policy.
type AccountOptions struct {
	// UniqueCashierPasscode rejects a cashier passcode that matches another
	// active cashier's passcode.
	UniqueCashierPasscode bool
	Policy                credential.Policy
}

type accountService struct {
	repo   repository.AccountRepository
	hasher credential.Hasher
	audit  AuditDispatcher
	opts   AccountOptions
	now    func() time.Time
}

func NewAccountService(repo repository.AccountRepository, hasher credential.Hasher, audit AuditDispatcher, opts AccountOptions) AccountService {
	if audit == nil {
		audit = noopDispatcher{}
	}
	if opts.Policy == (credential.Policy{}) {
		opts.Policy = credential.DefaultPolicy()
	}
	return &accountService{repo: repo, hasher: hasher, audit: audit, opts: opts, now: func() time.Time { return time.Now().UTC() }}
}

var noUpdate = dto.UpdateResult{Updated: false, Message: "No fields to update"}

func (s *accountService) Create(ctx context.Context, actor *Identity, req dto.CreateAccountRequest) (id uuid.UUID, err error) {
	defer func() { metrics.AccountOperations.WithLabelValues("create", metrics.Result(err)).Inc() }()

	role := model.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.Valid() {
		return uuid.Nil, apierror.Validation("Invalid role")
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return uuid.Nil, apierror.Validation("Full name is required")
	}

	var username *string
	secret := req.Passcode
	if role.UsesUsername() {
		u := strings.TrimSpace(req.Username)
		if u == "" {
			return uuid.Nil, apierror.Validation("Username is required for admin/manager roles")
		}
		username = &u
		secret = req.Password
	}
	kind := credential.KindFor(role)
	if err := s.opts.Policy.Check(kind, secret); err != nil {
		return uuid.Nil, apierror.Validation(err.Error())
	}

	if err := s.ensureFullNameFree(ctx, fullName, uuid.Nil); err != nil {
		return uuid.Nil, err
	}
	if username != nil {
		if err := s.ensureUsernameFree(ctx, *username); err != nil {
			return uuid.Nil, err
		}
	}
	if kind == credential.KindPasscode {
		if err := s.ensurePasscodeUnshared(ctx, secret, uuid.Nil); err != nil {
			return uuid.Nil, err
		}
	}

	cred, err := credential.Issue(s.hasher, s.opts.Policy, kind, secret)
	if err != nil {
		return uuid.Nil, apierror.Validation(err.Error())
	}

	acc := &model.Account{
		FullName:       fullName,
		Username:       username,
		Role:           role,
		CredentialHash: cred.Digest(),
		CreatedAt:      s.now(),
	}
	id, err = s.repo.Insert(ctx, acc)
	if err != nil {
		return uuid.Nil, s.duplicateOrStore(ctx, err, fullName)
	}

	log.Info().Str("account_id", id.String()).Str("role", string(role)).Msg("account created")
	s.dispatch(ctx, id, actor, model.EventAccountCreated, "full_name", "role", "credential")
	return id, nil
}

func (s *accountService) ListActive(ctx context.Context) ([]dto.AccountResponse, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	resp := make([]dto.AccountResponse, len(rows))
	for i, r := range rows {
		resp[i] = dto.AccountResponse{
			ID: r.ID.String(), FullName: r.FullName, Username: r.Username,
			Role: string(r.Role), UpdatedAt: r.UpdatedAt,
		}
	}
	return resp, nil
}

func (s *accountService) Update(ctx context.Context, actor *Identity, id uuid.UUID, req dto.UpdateAccountRequest) (res dto.UpdateResult, err error) {
	if req.IsEmpty() {
		return noUpdate, nil
	}
	defer func() { metrics.AccountOperations.WithLabelValues("update", metrics.Result(err)).Inc() }()

	target, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		return dto.UpdateResult{}, storeErr(err)
	}
	if err := s.apply(ctx, actor, target, req); err != nil {
		return dto.UpdateResult{}, err
	}
	return dto.UpdateResult{Updated: true, Message: "Account updated successfully"}, nil
}

// SelfUpdate always targets caller.AccountID; no client-supplied id is read.
func (s *accountService) SelfUpdate(ctx context.Context, caller Identity, req dto.UpdateAccountRequest) (res dto.UpdateResult, err error) {
	if !caller.HasRole(model.RoleManager, model.RoleCashier) {
		return dto.UpdateResult{}, apierror.Forbidden("Self-service update is not available for this role")
	}
	if req.IsEmpty() {
		return noUpdate, nil
	}
	defer func() { metrics.AccountOperations.WithLabelValues("self_update", metrics.Result(err)).Inc() }()

	target, err := s.repo.FindActiveByID(ctx, caller.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.UpdateResult{}, apierror.Unauthenticated("Account is disabled or no longer exists")
		}
		return dto.UpdateResult{}, storeErr(err)
	}
	if err := s.apply(ctx, &caller, target, req); err != nil {
		return dto.UpdateResult{}, err
	}
	return dto.UpdateResult{Updated: true, Message: "Your account details have been updated!"}, nil
}

// supplied returns secret unchanged, or "" when it is blank.
func supplied(secret string) string {
	if strings.TrimSpace(secret) == "" {
		return ""
	}
	return secret
}

// apply validates the supplied fields against target's role and writes them
// together with a fresh UpdatedAt.
func (s *accountService) apply(ctx context.Context, actor *Identity, target *model.Account, req dto.UpdateAccountRequest) error {
	ch := model.AccountChanges{UpdatedAt: s.now()}
	var fields []string

	kind := credential.KindFor(target.Role)
	password, passcode := supplied(req.Password), supplied(req.Passcode)
	secret := password
	switch {
	case kind == credential.KindPassword && passcode != "":
		return apierror.Validation("Passcodes are only used by cashier accounts")
	case kind == credential.KindPasscode && password != "":
		return apierror.Validation("Cashier accounts use a passcode, not a password")
	case kind == credential.KindPasscode:
		secret = passcode
	}
	if secret != "" {
		if err := s.opts.Policy.Check(kind, secret); err != nil {
			return apierror.Validation(err.Error())
		}
	}

	if name := strings.TrimSpace(req.FullName); name != "" {
		if err := s.ensureFullNameFree(ctx, name, target.ID); err != nil {
			return err
		}
		ch.FullName = &name
		fields = append(fields, "full_name")
	}

	if secret != "" {
		if kind == credential.KindPasscode {
			if err := s.ensurePasscodeUnshared(ctx, secret, target.ID); err != nil {
				return err
			}
		}
		cred, err := credential.Issue(s.hasher, s.opts.Policy, kind, secret)
		if err != nil {
			return apierror.Validation(err.Error())
		}
		digest := cred.Digest()
		ch.CredentialHash = &digest
		fields = append(fields, "credential")
	}

	if err := s.repo.UpdateFields(ctx, target.ID, ch); err != nil {
		if ch.FullName != nil {
			return s.duplicateOrStore(ctx, err, *ch.FullName)
		}
		return storeErr(err)
	}

	event := model.EventAccountUpdated
	if ch.CredentialHash != nil {
		event = model.EventAccountCredentialRotated
	}
	log.Info().Str("account_id", target.ID.String()).Strs("fields", fields).Msg("account updated")
	s.dispatch(ctx, target.ID, actor, event, fields...)
	return nil
}

// Disable is idempotent: an already disabled account returns nil and emits no
// event. The row is never removed.
func (s *accountService) Disable(ctx context.Context, actor *Identity, id uuid.UUID) (err error) {
	defer func() { metrics.AccountOperations.WithLabelValues("disable", metrics.Result(err)).Inc() }()

	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}
	if acc.IsDisabled {
		return nil
	}
	if err := s.repo.Disable(ctx, id); err != nil {
		return storeErr(err)
	}
	log.Info().Str("account_id", id.String()).Msg("account disabled")
	s.dispatch(ctx, id, actor, model.EventAccountDisabled, "is_disabled")
	return nil
}

// ── uniqueness checks─────────────────────────────────────────────────────────

func (s *accountService) ensureFullNameFree(ctx context.Context, fullName string, self uuid.UUID) error {
	existing, err := s.repo.FindActiveByFullName(ctx, fullName)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return storeErr(err)
	case existing.ID != self:
		return apierror.DuplicateIdentity("Full name is already used")
	}
	return nil
}

func (s *accountService) ensureUsernameFree(ctx context.Context, username string) error {
	_, err := s.repo.FindActiveByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return storeErr(err)
	}
	return apierror.DuplicateIdentity("Username is already taken")
}

// ensurePasscodeUnshared verifies passcode against every other active
// cashier. Best-effort: two concurrent creates with the same passcode can both
// pass; see DESIGN.md.
func (s *accountService) ensurePasscodeUnshared(ctx context.Context, passcode string, self uuid.UUID) error {
	if !s.opts.UniqueCashierPasscode {
		return nil
	}
	cashiers, err := s.repo.FindActiveByRole(ctx, model.RoleCashier)
	if err != nil {
		return storeErr(err)
	}
	for i := range cashiers {
		if cashiers[i].ID == self {
			continue
		}
		if credential.Of(&cashiers[i]).Matches(s.hasher, passcode) {
			return apierror.CredentialPolicy("This passcode is already used by another cashier")
		}
	}
	return nil
}

// duplicateOrStore classifies a write error. A unique index violation means a
// concurrent writer took the full name or username between check and write.
func (s *accountService) duplicateOrStore(ctx context.Context, err error, fullName string) error {
	if !errors.Is(err, repository.ErrDuplicate) {
		return storeErr(err)
	}
	if _, ferr := s.repo.FindActiveByFullName(ctx, fullName); ferr == nil {
		return apierror.DuplicateIdentity("Full name is already used")
	}
	return apierror.DuplicateIdentity("Username is already taken")
}

func (s *accountService) dispatch(ctx context.Context, accountID uuid.UUID, actor *Identity, eventType string, fields ...string) {
	e := &model.AccountEvent{
		ID:        uuid.New(),
		AccountID: accountID,
		ActorID:   actorID(actor),
		Type:      eventType,
		Fields:    strings.Join(fields, ","),
		CreatedAt: s.now(),
	}
	if err := s.audit.EnqueueAudit(ctx, e); err != nil {
		log.Warn().Err(err).Str("account_id", accountID.String()).Str("event", eventType).Msg("audit event not dispatched")
	}
}

// storeErr maps repository sentinels to the API taxonomy.
func storeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound("Account not found")
	case errors.Is(err, repository.ErrDuplicate):
		return apierror.DuplicateIdentity("Full name or username is already used")
	default:
		return apierror.StorageUnavailable(err)
	}
}
