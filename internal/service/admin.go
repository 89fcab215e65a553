package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guild-tracker/internal/auth"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrAdminRequired = errors.New("admin authorization required")
	ErrMissingID     = errors.New("observation id is required")
)

// AdminService runs the destructive operations. Every call checks the
// admin token itself.
type AdminService struct {
	auth   *auth.Service
	store  repository.ObservationStore
	logger zerolog.Logger
}

func NewAdminService(authSvc *auth.Service, store repository.ObservationStore, logger zerolog.Logger) *AdminService {
	return &AdminService{auth: authSvc, store: store, logger: logger.With().Str("component", "admin").Logger()}
}

func (s *AdminService) Login(password string) (string, time.Time, error) {
	token, expiresAt, err := s.auth.Login(password)
	if err != nil {
		s.logger.Warn().Err(err).Msg("admin login rejected")
		return "", time.Time{}, err
	}
	s.logger.Info().Time("expires_at", expiresAt).Msg("admin login")
	return token, expiresAt, nil
}

func (s *AdminService) authorize(token string) error {
	if token == "" {
		return ErrAdminRequired
	}
	if _, err := s.auth.ValidateToken(token); err != nil {
		return fmt.Errorf("%w: %v", ErrAdminRequired, err)
	}
	return nil
}

func (s *AdminService) DeleteObservation(ctx context.Context, token, id string) error {
	if err := s.authorize(token); err != nil {
		return err
	}
	if id == "" {
		return ErrMissingID
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	s.logger.Info().Str("id", id).Msg("observation deleted")
	return nil
}

// ClearSeason wipes every observation, starting a new season.
func (s *AdminService) ClearSeason(ctx context.Context, token string) error {
	if err := s.authorize(token); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	s.logger.Warn().Msg("season cleared")
	return nil
}
