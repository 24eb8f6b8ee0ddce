package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/rakhimart/internal/common"
)

const (
	defaultTokenTTL = time.Hour
	adminSubject    = "admin"
)

// Service issues and verifies admin tokens. There is a single admin identity
// authenticated by a shared password.
type Service struct {
	passwordHash string
	secret       []byte
	tokenTTL     time.Duration
	now          func() time.Time
	signer       jwa.SignatureAlgorithm
	validator    TokenValidator
	issuer       string
	audience     string
	clockSkew    time.Duration
}

// Config configures the auth service. Either Password or PasswordHash is
// required; a plaintext password is hashed once at construction.
type Config struct {
	Secret       string
	Password     string
	PasswordHash string
	TokenTTL     time.Duration
	Issuer       string
	Audience     string
	ClockSkew    time.Duration
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	hash := strings.TrimSpace(cfg.PasswordHash)
	if hash == "" {
		if cfg.Password == "" {
			return nil, errors.New("auth: admin password or password hash is required")
		}
		created, err := argon2id.CreateHash(cfg.Password, argon2id.DefaultParams)
		if err != nil {
			return nil, fmt.Errorf("auth: hash admin password: %w", err)
		}
		hash = created
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "rakhimart"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "rakhimart-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		passwordHash: hash,
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		now:          time.Now,
		signer:       jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
			Role:      RoleAdmin,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow overrides the clock used for issuing and validating tokens.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies the admin password and issues a token.
func (s *Service) Login(_ context.Context, password string) (LoginResult, error) {
	if password == "" {
		return LoginResult{}, common.NewAppError("VALIDATION_ERROR", "password is required", http.StatusBadRequest, nil)
	}
	match, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("compare password: %w", err)
	}
	if !match {
		return LoginResult{}, common.NewAppError("INVALID_CREDENTIALS", "invalid password", http.StatusUnauthorized, nil)
	}
	token, expiresAt, err := s.signToken(adminSubject, RoleAdmin)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}

// ParseAdminToken validates a bearer token and resolves its principal. Tokens
// with a role other than admin are rejected with 403, anything else invalid
// with 401.
func (s *Service) ParseAdminToken(token string) (common.Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Principal{}, common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Principal{}, invalidToken(err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return common.Principal{}, invalidToken(fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return common.Principal{}, invalidToken(err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		if errors.Is(err, ErrRoleMismatch) {
			return common.Principal{}, common.NewAppError("FORBIDDEN", "admin role required", http.StatusForbidden, err)
		}
		return common.Principal{}, invalidToken(err)
	}
	return common.Principal{Subject: parsed.Subject(), Role: roleOf(parsed), ExpiresAt: parsed.Expiration()}, nil
}

func invalidToken(err error) *common.AppError {
	return common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", fmt.Errorf("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signToken(subject, role string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(RoleClaim, role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}
