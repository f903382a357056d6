package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reliefboard/internal/model"
	"reliefboard/internal/repository"
	"reliefboard/internal/service"
	"reliefboard/internal/util"
	"reliefboard/pkg/rbac"
)

type memUsers struct {
	byEmail map[string]*model.User
	nextID  int64
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]*model.User{}} }

func (m *memUsers) CreateUser(_ context.Context, u *model.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	copied := *u
	m.byEmail[u.Email] = &copied
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func newTestService() *Service {
	return NewService(newMemUsers(), "secret", time.Hour, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	u, err := s.Register(ctx, "  Ada@Example.org ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.org", u.Email)
	assert.Equal(t, rbac.RoleUser, u.Role)
	assert.NotEqual(t, "hunter22", u.PasswordHash)

	token, logged, err := s.Login(ctx, "ada@example.org", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	claims, err := util.ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, rbac.RoleUser, claims.Role)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Register(ctx, "not-an-email", "hunter22")
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = s.Register(ctx, "a@b.c", "12345")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	_, err := s.Register(ctx, "a@b.c", "hunter22")
	require.NoError(t, err)
	_, err = s.Register(ctx, "A@B.C", "hunter22")
	assert.ErrorIs(t, err, service.ErrEmailExists)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	_, err := s.Register(ctx, "a@b.c", "hunter22")
	require.NoError(t, err)

	_, _, err = s.Login(ctx, "a@b.c", "wrong-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = s.Login(ctx, "nobody@b.c", "hunter22")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}
