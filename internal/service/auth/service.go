package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"reliefboard/internal/model"
	"reliefboard/internal/repository"
	"reliefboard/internal/service"
	"reliefboard/internal/util"
	"reliefboard/pkg/rbac"
)

const minPasswordLen = 6

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service struct {
	users     UserStore
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewService(users UserStore, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates an account with the user role.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, service.Invalid("email", "must be a valid email address")
	}
	if len(password) < minPasswordLen {
		return nil, service.Invalid("password", "must be at least %d characters", minPasswordLen)
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         rbac.RoleUser,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, service.ErrEmailExists
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, service.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !util.CheckPassword(password, u.PasswordHash) {
		return "", nil, service.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(u.ID, u.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
