package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shelfapp/shelf/internal/auth"
	"github.com/shelfapp/shelf/internal/domain"
	domainerrors "github.com/shelfapp/shelf/internal/errors"
	"github.com/shelfapp/shelf/internal/ratelimit"
	"github.com/shelfapp/shelf/internal/store"
	"github.com/shelfapp/shelf/internal/validation"
)

// AuthService registers accounts and checks credentials.
type AuthService struct {
	users     store.Store
	hasher    *auth.Hasher
	limiter   *ratelimit.KeyedRateLimiter
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service. limiter may be nil
// to disable login throttling.
func NewAuthService(
	users store.Store,
	hasher *auth.Hasher,
	limiter *ratelimit.KeyedRateLimiter,
	validator *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		limiter:   limiter,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Username string `field:"username" validate:"required,min=3,max=64,username"`
	Email    string `field:"email" validate:"required,email,max=254"`
	Password string `field:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `field:"username" validate:"required"`
	Password string `field:"password" validate:"required"`
}

func (req RegisterRequest) normalized() RegisterRequest {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	return req
}

func (s *AuthService) newUser(req RegisterRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "hash password")
	}

	return &domain.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}, nil
}

// Register creates an account. The password is stored only as a salted
// hash. Returns an AlreadyExists error if the username or email is taken,
// in which case nothing is written.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req = req.normalized()

	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			s.logger.Info("registration rejected", "username", req.Username, "reason", err.Error())
		}
		return nil, fromStore(err, "create user")
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"username", user.Username,
	)

	return user, nil
}

// RegisterWithBooks creates an account and its starting library in one
// transaction. Used to seed demo data.
func (s *AuthService) RegisterWithBooks(ctx context.Context, req RegisterRequest, books []domain.NewBook) (*domain.User, int, error) {
	req = req.normalized()

	user, err := s.newUser(req)
	if err != nil {
		return nil, 0, err
	}

	normalized := make([]domain.NewBook, len(books))
	for i, b := range books {
		normalized[i] = b.Normalized()
		if err := s.validator.Validate(normalized[i]); err != nil {
			return nil, 0, fmt.Errorf("book %d: %w", i+1, err)
		}
	}

	_, n, err := s.users.CreateUserWithBooks(ctx, user, normalized)
	if err != nil {
		return nil, 0, fromStore(err, "create user with books")
	}

	s.logger.Info("user registered with books",
		"user_id", user.ID,
		"username", user.Username,
		"books", n,
	)

	return user, n, nil
}

// Authenticate returns the user whose username and password match.
//
// Unknown usernames and wrong passwords produce the same InvalidCredentials
// error and take about the same time. Repeated failures for one username are
// throttled with a RateLimited error; a successful login clears the count.
func (s *AuthService) Authenticate(ctx context.Context, req LoginRequest) (*domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(req.Username) {
		s.logger.Warn("login throttled", "username", req.Username)
		return nil, domainerrors.RateLimited("too many failed attempts, try again later")
	}

	user, err := s.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.hasher.VerifyDummy(req.Password)
			s.logger.Info("login failed", "username", req.Username)
			return nil, domainerrors.InvalidCredentials("invalid username or password")
		}
		return nil, fromStore(err, "lookup user")
	}

	if !s.hasher.Verify(user.PasswordHash, req.Password) {
		s.logger.Info("login failed", "username", req.Username)
		return nil, domainerrors.InvalidCredentials("invalid username or password")
	}

	if s.limiter != nil {
		s.limiter.Reset(req.Username)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return user, nil
}
