package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"schoolhub/internal/identity/roles"
	"schoolhub/internal/jwttoken"
	"schoolhub/internal/platform/metrics"
	dErrors "schoolhub/pkg/domain-errors"
	"schoolhub/pkg/platform/sentinel"
)

// Service owns credential verification and token issuance.
type Service struct {
	store    Store
	tokens   *jwttoken.Service
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tokenTTL time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, tokens *jwttoken.Service, tokenTTL time.Duration, opts ...Option) *Service {
	s := &Service{
		store:    store,
		tokens:   tokens,
		logger:   slog.Default(),
		tokenTTL: tokenTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult is returned to the transport layer on successful login.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Name      string `json:"name"`
}

// Login verifies credentials and issues an access token. Unknown email and
// bad password produce the same Unauthorized error so the endpoint does not
// leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countLogin("rejected")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.Active {
		s.countLogin("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.countLogin("rejected")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	role := roles.Normalize(user.Role)
	token, err := s.tokens.GenerateAccessToken(user.ID, role, user.Name, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.countLogin("accepted")
	return &LoginResult{
		Token:     token,
		ExpiresIn: int64(s.tokenTTL.Seconds()),
		UserID:    user.ID,
		Role:      role,
		Name:      user.Name,
	}, nil
}

// Get returns a user by id, translating store sentinels.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}
