// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"presensi/internal/domain"
)

var (
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid email or password"}
	// ErrInvalidToken indicates a missing, malformed or expired bearer token.
	ErrInvalidToken = &Error{Kind: KindUnauthorized, Message: "invalid or expired token"}
	// ErrUserNotFound indicates that the token refers to a user that no longer exists.
	ErrUserNotFound = &Error{Kind: KindUnauthorized, Message: "user not found"}
	// ErrAdminRegistrationClosed is returned when self-registration asks for the admin role
	// after the first user exists.
	ErrAdminRegistrationClosed = &Error{Kind: KindForbidden, Message: "admin accounts can only be created by an administrator"}
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID int64       `json:"id"`
	Name   string      `json:"nama"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, password login and bearer tokens.
type AuthService struct {
	users      domain.UserRepository
	secret     []byte
	ttl        time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewAuthService creates a new authentication service signing tokens with secret.
func NewAuthService(users domain.UserRepository, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		users:      users,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// WithBcryptCost overrides the password hashing cost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// Register creates a user with any role. It is meant for trusted callers such
// as the CLI.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if role == "" {
		role = domain.RoleEmployee
	}
	if role != domain.RoleEmployee && role != domain.RoleAdmin {
		return nil, NewValidationError(fmt.Sprintf("role must be %q or %q", domain.RoleEmployee, domain.RoleAdmin))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	u, err := s.users.Create(ctx, &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, NewConflictError("email is already registered", err)
	}
	if err != nil {
		return nil, NewInternalError("failed to create user", err)
	}
	return u, nil
}

// SelfRegister is the public sign-up path. The admin role is only granted to
// the very first account.
func (s *AuthService) SelfRegister(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if role == domain.RoleAdmin {
		count, err := s.users.Count(ctx)
		if err != nil {
			return nil, NewInternalError("failed to count users", err)
		}
		if count > 0 {
			return nil, ErrAdminRegistrationClosed
		}
	}
	return s.Register(ctx, name, email, password, role)
}

// Login authenticates a user by password and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || user == nil || user.PasswordHash == "" {
		return "", nil, ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// LoginWithEmail issues a token for a user already authenticated elsewhere
// (e.g. via SSO), creating the account on first use.
func (s *AuthService) LoginWithEmail(ctx context.Context, email, name string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, NewInternalError("failed to load user", err)
	}
	if user == nil {
		if name == "" {
			name = email
		}
		// SSO users have no password and cannot use password login.
		user, err = s.users.Create(ctx, &domain.User{Name: name, Email: email, Role: domain.RoleEmployee})
		if errors.Is(err, domain.ErrEmailTaken) {
			// Lost a race with a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
		}
		if err != nil || user == nil {
			return "", nil, NewInternalError("failed to provision user", err)
		}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken verifies a bearer token and returns its user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, NewInternalError("failed to load user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) issueToken(u *domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: u.ID,
		Name:   u.Name,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", NewInternalError("failed to sign token", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
