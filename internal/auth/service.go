package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"securegate.org/internal/ids"
)

const defaultTokenTTL = 12 * time.Hour

// Service implements registration, login and profile management on top of a
// UserStore. Token signing itself lives in auth.go; the service only decides
// who gets a token.
type Service struct {
	store    UserStore
	tokenTTL time.Duration
	now      func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store UserStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:    store,
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Session couples a signed token with the account it belongs to.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// RegisterInput is the self-signup payload.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	Role        Role
	UnitNumber  string
	PhoneNumber string
}

// Register creates an account and issues a session for it. An empty role
// defaults to resident; email uniqueness maps to ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return Session{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Password) == "" {
		return Session{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = RoleResident
	}
	if !in.Role.Valid() {
		return Session{}, fmt.Errorf("%w: unknown role %s", ErrInvalidInput, in.Role)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	user := &User{
		ID:           ids.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		UnitNumber:   strings.TrimSpace(in.UnitNumber),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return Session{}, err
	}
	return s.mintSession(*user)
}

// Login verifies credentials and issues a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Session{}, ErrUnauthenticated
	}
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrUnauthenticated
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrUnauthenticated
	}
	return s.mintSession(*user)
}

// Profile returns the account behind an identity.
func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return User{}, err
	}
	return *user, nil
}

// UpdateProfile applies name/unit/phone edits. Role and email are immutable.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd UserUpdate) (User, error) {
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return User{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		upd.Name = &trimmed
	}
	user, err := s.store.UpdateUser(ctx, userID, upd)
	if err != nil {
		return User{}, err
	}
	return *user, nil
}

func (s *Service) mintSession(user User) (Session, error) {
	token, err := GenerateToken(user.ID, user.Role, s.tokenTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		ExpiresAt: s.now().UTC().Add(s.tokenTTL),
		User:      user,
	}, nil
}
