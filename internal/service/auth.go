package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Strob0t/PropDesk/internal/config"
	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/domain/user"
	"github.com/Strob0t/PropDesk/internal/port/database"
	"github.com/Strob0t/PropDesk/internal/resilience"
)

var errInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)

// Claims are the access token claims. The subject is the user id.
type Claims struct {
	Role     user.Role `json:"role"`
	TenantID *string   `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// KeySource returns the current signing key and, during a rotation, the
// previous one. previous is empty outside a rotation.
type KeySource func() (current, previous string)

// AuthService handles password login and access tokens.
type AuthService struct {
	users database.Repository[user.User]
	cfg   *config.Auth
	keys  KeySource
	hash  *resilience.Pool
	now   func() time.Time
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithKeySource replaces the static auth.jwt_secret with a reloadable source.
func WithKeySource(keys KeySource) AuthOption {
	return func(s *AuthService) { s.keys = keys }
}

// WithHashPool bounds concurrent bcrypt work.
func WithHashPool(p *resilience.Pool) AuthOption {
	return func(s *AuthService) { s.hash = p }
}

// NewAuthService creates a new authentication service.
func NewAuthService(users database.Repository[user.User], cfg *config.Auth, opts ...AuthOption) *AuthService {
	secret := cfg.JWTSecret
	s := &AuthService{
		users: users,
		cfg:   cfg,
		keys:  func() (string, string) { return secret, "" },
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// HashPassword hashes a plaintext password with the configured bcrypt cost.
func (s *AuthService) HashPassword(ctx context.Context, password string) (string, error) {
	var hash []byte
	err := s.hash.Run(ctx, func() error {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Login checks an email and password and issues an access token.
// Login happens before tenant resolution, so the user lookup is global.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	u, err := s.users.FindUnique(ctx, sq.Eq{"email": strings.ToLower(req.Email)})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	err = s.hash.Run(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password))
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errInvalidCredentials
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account is disabled: %w", domain.ErrUnauthorized)
	}

	token, err := s.IssueToken(u)
	if err != nil {
		return nil, err
	}
	return &user.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.cfg.AccessTokenExpiry.Seconds()),
		User:        *u,
	}, nil
}

// IssueToken signs an HS256 access token for u.
func (s *AuthService) IssueToken(u *user.User) (string, error) {
	now := s.now()
	claims := Claims{
		Role:     u.Role,
		TenantID: u.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenExpiry)),
		},
	}
	current, _ := s.keys()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(current))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies an access token and returns the principal it names.
// Tokens signed with the previous key stay valid until they expire.
func (s *AuthService) ValidateToken(raw string) (*user.Principal, error) {
	current, previous := s.keys()
	claims, err := parseToken(raw, current)
	if err != nil && previous != "" && errors.Is(err, jwt.ErrSignatureInvalid) {
		claims, err = parseToken(raw, previous)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}
	if claims.Subject == "" || !claims.VerifyIssuer(s.cfg.Issuer, s.cfg.Issuer != "") {
		return nil, fmt.Errorf("invalid token claims: %w", domain.ErrUnauthorized)
	}
	if !user.ValidRoles[claims.Role] {
		return nil, fmt.Errorf("invalid token role: %w", domain.ErrUnauthorized)
	}
	return &user.Principal{ID: claims.Subject, Role: claims.Role, TenantID: claims.TenantID}, nil
}

// Me returns the user behind the request's principal.
func (s *AuthService) Me(ctx context.Context) (*user.User, error) {
	p := principal(ctx)
	if p == nil {
		return nil, domain.ErrUnauthorized
	}
	u, err := s.users.FindUnique(ctx, sq.Eq{"id": p.ID})
	if err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	return u, nil
}

func parseToken(raw, key string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(key), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return &claims, nil
}
