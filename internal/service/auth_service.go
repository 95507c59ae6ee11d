package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/credential"
	"github.com/Ranjel272/POSBF/internal/dto"
	"github.com/Ranjel272/POSBF/internal/metrics"
	"github.com/Ranjel272/POSBF/internal/model"
	"github.com/Ranjel272/POSBF/internal/repository"
	"github.com/Ranjel272/POSBF/internal/token"

	"github.com/rs/zerolog/log"
)

// AuthService issues tokens and resolves presented tokens to identities.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	PasscodeLogin(ctx context.Context, req dto.PasscodeLoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Verify(ctx context.Context, accessToken string) (*Identity, error)
}

type authService struct {
	repo   repository.AccountRepository
	hasher credential.Hasher
	policy credential.Policy
	tokens *token.Issuer

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(repo repository.AccountRepository, hasher credential.Hasher, tokens *token.Issuer, policy credential.Policy) AuthService {
	if policy == (credential.Policy{}) {
		policy = credential.DefaultPolicy()
	}
	return &authService{repo: repo, hasher: hasher, policy: policy, tokens: tokens}
}

func errInvalidCredentials() error { return apierror.Unauthenticated("Invalid credentials") }

// Login authenticates admin and manager accounts by username + password.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (resp *dto.LoginResponse, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("password", metrics.Result(err)).Inc() }()

	acc, err := s.repo.FindActiveByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, storeErr(err)
		}
		// Burn a comparison so unknown usernames cost the same as bad passwords.
		s.hasher.Verify(req.Password, s.dummy())
		return nil, errInvalidCredentials()
	}
	if !acc.Role.UsesUsername() || !credential.Of(acc).Matches(s.hasher, req.Password) {
		return nil, errInvalidCredentials()
	}
	return s.issue(acc)
}

// PasscodeLogin authenticates a cashier by passcode alone. Exactly one active
// cashier must match; an ambiguous passcode is rejected.
func (s *authService) PasscodeLogin(ctx context.Context, req dto.PasscodeLoginRequest) (resp *dto.LoginResponse, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("passcode", metrics.Result(err)).Inc() }()

	if s.policy.Check(credential.KindPasscode, req.Passcode) != nil {
		return nil, errInvalidCredentials()
	}
	cashiers, err := s.repo.FindActiveByRole(ctx, model.RoleCashier)
	if err != nil {
		return nil, storeErr(err)
	}
	var match *model.Account
	for i := range cashiers {
		if !credential.Of(&cashiers[i]).Matches(s.hasher, req.Passcode) {
			continue
		}
		if match != nil {
			log.Warn().Msg("passcode login rejected: passcode shared by several active cashiers")
			return nil, errInvalidCredentials()
		}
		match = &cashiers[i]
	}
	if match == nil {
		return nil, errInvalidCredentials()
	}
	return s.issue(match)
}

// Refresh re-issues a token pair if the account is still active.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (resp *dto.LoginResponse, err error) {
	defer func() { metrics.AuthAttempts.WithLabelValues("refresh", metrics.Result(err)).Inc() }()

	id, _, err := s.tokens.Parse(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, apierror.Unauthenticated("Invalid or expired refresh token")
	}
	acc, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Unauthenticated("Account is disabled or no longer exists")
		}
		return nil, storeErr(err)
	}
	return s.issue(acc)
}

// Verify resolves an access token to the account it was issued for. The
// account is re-read on every call, so disabling it revokes every token
// already handed out.
func (s *authService) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	id, _, err := s.tokens.Parse(accessToken, token.TypeAccess)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("token", "error").Inc()
		return nil, apierror.Unauthenticated("Invalid or expired token")
	}
	acc, err := s.repo.FindActiveByID(ctx, id)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("token", "error").Inc()
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.Unauthenticated("Account is disabled or no longer exists")
		}
		return nil, storeErr(err)
	}
	return identityOf(acc), nil
}

func (s *authService) issue(acc *model.Account) (*dto.LoginResponse, error) {
	sub := token.Subject{AccountID: acc.ID, Role: string(acc.Role)}
	if acc.Username != nil {
		sub.Username = *acc.Username
	}
	pair, err := s.tokens.IssuePair(sub)
	if err != nil {
		return nil, err
	}
	log.Info().Str("account_id", acc.ID.String()).Str("role", string(acc.Role)).Msg("tokens issued")
	return &dto.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    dto.ExpiresInSeconds(pair.ExpiresIn),
		Account:      IdentityResponse(identityOf(acc)),
	}, nil
}

func (s *authService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash("timing-equalizer")
	})
	return s.dummyDigest
}

// IdentityResponse renders an identity for clients.
func IdentityResponse(id *Identity) dto.IdentityResponse {
	return dto.IdentityResponse{
		ID: id.AccountID.String(), FullName: id.FullName,
		Username: id.Username, Role: string(id.Role),
	}
}
