package service

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/peergrade-api/internal/dto"
	"github.com/noah-isme/peergrade-api/internal/models"
	"github.com/noah-isme/peergrade-api/internal/repository"
)

// SeedService provisions users issued by the external identity provider.
type SeedService interface {
	SeedUsers(ctx context.Context, token string, payload dto.SeedUsersRequest) (int64, error)
}

type seedService struct {
	users     repository.UserRepository
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(users repository.UserRepository, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		users:     users,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) SeedUsers(ctx context.Context, token string, payload dto.SeedUsersRequest) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return 0, err
	}

	affected, err := s.users.UpsertBatch(ctx, normalizeSeedUsers(payload.Users))
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("affected", affected).Msg("users seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func normalizeSeedUsers(items []dto.SeedUser) []models.User {
	users := make([]models.User, 0, len(items))
	for _, item := range items {
		role := strings.ToLower(strings.TrimSpace(item.Role))
		users = append(users, models.User{
			Username:    strings.TrimSpace(item.Username),
			Email:       strings.ToLower(strings.TrimSpace(item.Email)),
			FirstName:   strings.TrimSpace(item.FirstName),
			LastName:    strings.TrimSpace(item.LastName),
			Role:        role,
			IsSuperuser: item.IsSuperuser || role == models.RoleAdmin,
		})
	}
	return users
}
