package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfapp/shelf/internal/auth"
	"github.com/shelfapp/shelf/internal/domain"
	domainerrors "github.com/shelfapp/shelf/internal/errors"
	"github.com/shelfapp/shelf/internal/ratelimit"
	"github.com/shelfapp/shelf/internal/store/sqlite"
	"github.com/shelfapp/shelf/internal/validation"
)

// testDeps bundles the collaborators a service test needs.
type testDeps struct {
	store     *sqlite.Store
	hasher    *auth.Hasher
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
}

func setupTest(t *testing.T) *testDeps {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	hasher, err := auth.NewHasher(auth.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)

	limiter := ratelimit.New(3, time.Hour)
	t.Cleanup(limiter.Stop)

	return &testDeps{store: s, hasher: hasher, limiter: limiter, validator: validation.New()}
}

func (d *testDeps) authService() *AuthService {
	return NewAuthService(d.store, d.hasher, d.limiter, d.validator, nil)
}

func mustRegister(t *testing.T, svc *AuthService, username string) *domain.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func TestAuthService_RegisterAndAuthenticate(t *testing.T) {
	d := setupTest(t)
	svc := d.authService()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "  alice ",
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username)

	stored, err := d.store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	got, err := svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	d := setupTest(t)
	svc := d.authService()
	ctx := context.Background()
	mustRegister(t, svc, "alice")

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "other@example.com", Password: "password123"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyExists))
	assert.Equal(t, "username already exists", err.Error())

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice2", Email: "ALICE@example.com", Password: "password123"})
	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyExists))

	n, err := d.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	d := setupTest(t)
	svc := d.authService()

	tests := []struct {
		name  string
		req   RegisterRequest
		field string
	}{
		{"short username", RegisterRequest{Username: "al", Email: "a@example.com", Password: "password123"}, "username"},
		{"username with spaces", RegisterRequest{Username: "al ice", Email: "a@example.com", Password: "password123"}, "username"},
		{"bad email", RegisterRequest{Username: "alice", Email: "alice", Password: "password123"}, "email"},
		{"short password", RegisterRequest{Username: "alice", Email: "a@example.com", Password: "short"}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			require.Error(t, err)

			var de *domainerrors.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, domainerrors.CodeValidation, de.Code)
			assert.Contains(t, de.Details, tt.field)
		})
	}
}

func TestAuthService_AuthenticateFailures(t *testing.T) {
	d := setupTest(t)
	svc := d.authService()
	ctx := context.Background()
	mustRegister(t, svc, "alice")

	_, wrongPassword := svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "password124"})
	_, unknownUser := svc.Authenticate(ctx, LoginRequest{Username: "mallory", Password: "password123"})

	for _, err := range []error{wrongPassword, unknownUser} {
		require.Error(t, err)
		assert.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	}
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error(), "failures must be indistinguishable")

	_, err := svc.Authenticate(ctx, LoginRequest{Username: "", Password: "x"})
	assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
}

func TestAuthService_Throttling(t *testing.T) {
	d := setupTest(t) // 3 attempts per hour
	svc := d.authService()
	ctx := context.Background()
	mustRegister(t, svc, "alice")

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "nope-nope"})
		require.True(t, errors.Is(err, domainerrors.ErrInvalidCredentials))
	}

	_, err := svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "password123"})
	assert.True(t, errors.Is(err, domainerrors.ErrRateLimited), "got %v", err)

	d.limiter.Reset("alice")
	_, err = svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "password123"})
	assert.NoError(t, err)
}

func TestAuthService_SuccessResetsThrottle(t *testing.T) {
	d := setupTest(t)
	svc := d.authService()
	ctx := context.Background()
	mustRegister(t, svc, "alice")

	for round := 0; round < 3; round++ {
		_, err := svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "nope-nope"})
		require.Error(t, err)
		_, err = svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "nope-nope"})
		require.Error(t, err)
		_, err = svc.Authenticate(ctx, LoginRequest{Username: "alice", Password: "password123"})
		require.NoError(t, err, "round %d", round)
	}
}

func TestAuthService_RegisterWithBooks(t *testing.T) {
	d := setupTest(t)
	svc := d.authService()
	ctx := context.Background()

	user, n, err := svc.RegisterWithBooks(ctx,
		RegisterRequest{Username: "seed", Email: "seed@example.com", Password: "password123"},
		[]domain.NewBook{
			{Title: " Dune ", Author: "Frank Herbert", Year: 1965},
			{Title: "1984", Author: "George Orwell", Year: 1949},
		})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	books, err := d.store.SearchBooks(ctx, user.ID, "dune")
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	_, _, err = svc.RegisterWithBooks(ctx,
		RegisterRequest{Username: "seed2", Email: "seed2@example.com", Password: "password123"},
		[]domain.NewBook{{Title: "Ok", Author: "A", Year: 1}, {Title: "", Author: "B", Year: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "book 2")

	n2, err := d.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n2)
}
