package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpac/rpac/internal/audit"
	"github.com/rpac/rpac/internal/shared"
	"github.com/rpac/rpac/internal/users"
)

// TokenTypeBearer is the token_type reported on login.
const TokenTypeBearer = "bearer"

// UserStore is the slice of the credential store used by authentication.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (users.User, error)
	CreateUser(ctx context.Context, u users.NewUser) (users.User, error)
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string
	Password string
	Email    *string
	Source   audit.Source
}

// LoginInput carries a login request.
type LoginInput struct {
	Username string
	Password string
	Source   audit.Source
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Service wraps registration and login rules.
type Service struct {
	users  UserStore
	hasher *Hasher
	tokens *TokenService
	events audit.Sink
	logger *slog.Logger
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService constructs a new Service. events may be nil.
func NewService(store UserStore, hasher *Hasher, tokens *TokenService, events audit.Sink, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = audit.LogSink{Logger: logger}
	}
	return &Service{users: store, hasher: hasher, tokens: tokens, events: events, logger: logger, now: time.Now}
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (users.User, error) {
	username := shared.NormalizeName(in.Username)
	if username == "" {
		return users.User{}, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if in.Password == "" {
		return users.User{}, fmt.Errorf("%w: password is required", shared.ErrValidation)
	}
	_, err := s.users.UserByUsername(ctx, username)
	switch {
	case err == nil:
		return users.User{}, fmt.Errorf("user %q: %w", username, shared.ErrDuplicateUsername)
	case !errors.Is(err, shared.ErrNotFound):
		return users.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return users.User{}, err
	}
	user, err := s.users.CreateUser(ctx, users.NewUser{
		Username:     username,
		PasswordHash: hash,
		Email:        shared.OptionalString(in.Email),
	})
	if err != nil {
		return users.User{}, err
	}
	s.record(ctx, audit.KindRegistered, username, &user.ID, in.Source)
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown users and
// wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, in LoginInput) (Token, error) {
	username := shared.NormalizeName(in.Username)
	user, err := s.users.UserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return Token{}, err
		}
		s.hasher.Verify(in.Password, s.dummy())
		s.record(ctx, audit.KindLoginFailed, username, nil, in.Source)
		return Token{}, shared.ErrInvalidCredentials
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.record(ctx, audit.KindLoginFailed, username, &user.ID, in.Source)
		return Token{}, shared.ErrInvalidCredentials
	}

	access, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return Token{}, err
	}
	s.record(ctx, audit.KindLoginSucceeded, username, &user.ID, in.Source)
	return Token{AccessToken: access, TokenType: TokenTypeBearer, ExpiresAt: expiresAt}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.logger.Error("dummy hash", slog.Any("error", err))
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) record(ctx context.Context, kind audit.Kind, username string, userID *int64, src audit.Source) {
	event := audit.Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Username:   username,
		UserID:     userID,
		Source:     src,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Warn("record auth event", slog.String("kind", string(kind)), slog.Any("error", err))
	}
}
