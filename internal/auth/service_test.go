package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carnimore/storefront-backend/internal/users"
	"github.com/carnimore/storefront-backend/pkg/config"
	"github.com/carnimore/storefront-backend/pkg/db/models"
	"github.com/carnimore/storefront-backend/pkg/enums"
	pkgerrors "github.com/carnimore/storefront-backend/pkg/errors"
	"github.com/carnimore/storefront-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "carnimore-test",
	ExpirationMinutes: 15,
}

type fakeUserRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
}

func (f *fakeUserRepo) add(user *models.User) {
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
}

func (f *fakeUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	f.add(user)
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := f.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

type fakeSessionManager struct {
	generated []string
	revoked   []string
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "new-access-id", "new-refresh", nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, role enums.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		Role:         role,
		IsActive:     active,
	}
	repo.add(user)
	return user
}

func newTestService(t *testing.T, repo *fakeUserRepo, sessions *fakeSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	user := seedUser(t, repo, "shopper@example.com", "correct horse", enums.UserRoleCustomer, true)
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Shopper@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotNil(t, repo.byID[user.ID].LastLoginAt)
	assert.Len(t, sessions.generated, 1)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	seedUser(t, repo, "shopper@example.com", "correct horse", enums.UserRoleCustomer, true)
	svc := newTestService(t, repo, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "shopper@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	seedUser(t, repo, "shopper@example.com", "correct horse", enums.UserRoleCustomer, false)
	svc := newTestService(t, repo, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "shopper@example.com", Password: "correct horse"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestAdminLoginRejectsCustomers(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	seedUser(t, repo, "shopper@example.com", "correct horse", enums.UserRoleCustomer, true)
	svc := newTestService(t, repo, sessions)

	_, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "shopper@example.com", Password: "correct horse"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestAdminLoginAcceptsAdmins(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	seedUser(t, repo, "admin@example.com", "correct horse", enums.UserRoleAdmin, true)
	svc := newTestService(t, repo, sessions)

	resp, err := svc.AdminLogin(context.Background(), LoginRequest{Email: "admin@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, resp.User.Role)
}

func TestRegisterOpensSession(t *testing.T) {
	repo := newFakeUserRepo()
	sessions := &fakeSessionManager{}
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:     "New@Example.com",
		Password:  "a long password",
		FirstName: "New",
		LastName:  "Customer",
	})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, enums.UserRoleCustomer, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
}
