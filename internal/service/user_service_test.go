package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/moderation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeAccountRepo is an in-memory UserRepository for the auth flows.
type fakeAccountRepo struct {
	byID    map[string]*model.User
	byEmail map[string]*model.User
	byName  map[string]*model.User
	refresh map[string]*model.RefreshToken
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		byID:    make(map[string]*model.User),
		byEmail: make(map[string]*model.User),
		byName:  make(map[string]*model.User),
		refresh: make(map[string]*model.RefreshToken),
	}
}

func (f *fakeAccountRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byID[user.ID.String()] = user
	f.byEmail[user.Email] = user
	f.byName[user.Username] = user
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if user, ok := f.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if user, ok := f.byName[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeAccountRepo) Update(_ context.Context, user *model.User) error {
	f.byID[user.ID.String()] = user
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id string) error {
	delete(f.byID, id)
	return nil
}

func (f *fakeAccountRepo) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	f.refresh[token.Token] = token
	return nil
}

func (f *fakeAccountRepo) GetRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	if stored, ok := f.refresh[token]; ok {
		return stored, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountRepo) DeleteRefreshToken(_ context.Context, token string) error {
	delete(f.refresh, token)
	return nil
}

var testSecret = []byte("test-secret")

func TestRegisterForcesResidentRole(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewUserService(repo, testSecret)

	user, err := svc.Register(context.Background(), RegisterUserRequest{
		Username: "eve",
		Email:    "eve@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, moderation.RoleResident, user.Role, "self-signup can never grant an elevated role")

	stored, err := repo.GetByUsername(context.Background(), "eve")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", stored.Password, "password must be stored hashed")
}

func TestCreateUserRejectsDuplicatesAndBadInput(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewUserService(repo, testSecret)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1", Role: moderation.RoleManager,
	})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice", Email: "other@example.com", Password: "secret1", Role: moderation.RoleResident,
	})
	assert.Error(t, err, "duplicate username")

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "bob", Email: "alice@example.com", Password: "secret1", Role: moderation.RoleResident,
	})
	assert.Error(t, err, "duplicate email")

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "carol", Email: "not-an-email", Password: "secret1", Role: moderation.RoleResident,
	})
	assert.Error(t, err, "invalid email")

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "dave", Email: "dave@example.com", Password: "secret1", Role: "superuser",
	})
	assert.Error(t, err, "unknown role")
}

func TestLoginIssuesRoleClaim(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewUserService(repo, testSecret)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1", Role: moderation.RoleManager,
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), LoginUserRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Token)
	require.NotEmpty(t, tokens.RefreshToken)

	parsed, err := jwt.Parse(tokens.Token, func(*jwt.Token) (interface{}, error) { return testSecret, nil })
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, moderation.RoleManager, claims["role"])

	_, err = svc.Login(context.Background(), LoginUserRequest{Email: "alice@example.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestRefreshTokenRotates(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewUserService(repo, testSecret)

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1", Role: moderation.RoleResident,
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), LoginUserRequest{Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old refresh token is single-use.
	_, err = svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.Error(t, err)
}

func TestRefreshTokenExpired(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := NewUserService(repo, testSecret)

	user := &model.User{Username: "old", Email: "old@example.com", Role: moderation.RoleResident}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NoError(t, repo.CreateRefreshToken(context.Background(), &model.RefreshToken{
		UserID:    user.ID,
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	_, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "stale"})
	assert.Error(t, err)

	// Expired tokens are purged on the failed attempt.
	_, err = repo.GetRefreshToken(context.Background(), "stale")
	assert.Error(t, err)
}
