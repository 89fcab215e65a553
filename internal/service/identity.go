package service

import (
	"context"
	"errors"
	"fmt"

	"guild-tracker/internal/api"
	"guild-tracker/internal/constants"
	"guild-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type IdentityResolver interface {
	Me(ctx context.Context, token string) (domain.Identity, error)
}

type IdentityService struct {
	resolver IdentityResolver
	logger   zerolog.Logger
}

func NewIdentityService(resolver IdentityResolver, logger zerolog.Logger) *IdentityService {
	return &IdentityService{resolver: resolver, logger: logger}
}

// Resolve looks up the discord account behind an access token. Any
// failure to identify is reported as ErrIdentityRequired.
func (s *IdentityService) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrIdentityRequired
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	identity, err := s.resolver.Me(ctx, token)
	if err != nil {
		if !errors.Is(err, api.ErrInvalidIdentity) {
			s.logger.Warn().Err(err).Msg("identity lookup failed")
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrIdentityRequired, err)
	}
	if identity.ID == "" {
		return domain.Identity{}, ErrIdentityRequired
	}
	return identity, nil
}
