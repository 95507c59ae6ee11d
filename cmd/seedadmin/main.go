// Creates the first admin account. Account creation over HTTP is admin-only,
// so a fresh database needs one seeded out of band.
// Usage: SEED_ADMIN_NAME=... SEED_ADMIN_USERNAME=... SEED_ADMIN_PASSWORD=... go run ./cmd/seedadmin
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Ranjel272/POSBF/internal/apierror"
	"github.com/Ranjel272/POSBF/internal/config"
	"github.com/Ranjel272/POSBF/internal/credential"
	"github.com/Ranjel272/POSBF/internal/dto"
	"github.com/Ranjel272/POSBF/internal/infra"
	"github.com/Ranjel272/POSBF/internal/repository"
	"github.com/Ranjel272/POSBF/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	req := dto.CreateAccountRequest{
		FullName: os.Getenv("SEED_ADMIN_NAME"),
		Role:     "admin",
		Username: os.Getenv("SEED_ADMIN_USERNAME"),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if req.FullName == "" {
		req.FullName = "Administrator"
	}
	if req.Username == "" || req.Password == "" {
		log.Fatal().Msg("SEED_ADMIN_USERNAME and SEED_ADMIN_PASSWORD are required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	repo := repository.NewAccountRepository(db)
	svc := service.NewAccountService(repo, credential.NewBcryptHasher(cfg.BcryptCost), nil, service.AccountOptions{
		Policy: credential.Policy{
			MinPasswordLength:  cfg.PasswordMinLength,
			PasscodeMinLength:  cfg.PasscodeMinLength,
			PasscodeMaxLength:  cfg.PasscodeMaxLength,
			PasscodeDigitsOnly: cfg.PasscodeDigitsOnly,
		},
	})

	id, err := svc.Create(context.Background(), nil, req)
	switch {
	case errors.Is(err, apierror.ErrDuplicateIdentity):
		log.Info().Str("username", req.Username).Msg("admin already exists, nothing to do")
	case err != nil:
		log.Fatal().Err(err).Msg("failed to create admin")
	default:
		log.Info().Str("account_id", id.String()).Str("username", req.Username).Msg("admin created")
	}
}
