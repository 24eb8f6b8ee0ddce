package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	// RoleClaim is the private claim carrying the caller's role.
	RoleClaim = "role"
	// RoleAdmin is the only role the API issues.
	RoleAdmin = "admin"
)

var (
	// ErrRoleMismatch is returned when a structurally valid token carries the wrong role.
	ErrRoleMismatch = errors.New("auth: token role not permitted")

	errNilToken         = errors.New("auth: token is nil")
	errMissingAlgorithm = errors.New("auth: token missing algorithm")
)

// TokenValidator checks the claims of an already verified admin token.
type TokenValidator struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration
	Algorithm jwa.SignatureAlgorithm
	// Role, when set, must match the role claim.
	Role string
}

// Validate checks algorithm, registered claims and role in that order. Role
// failures wrap ErrRoleMismatch.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	switch {
	case tok == nil:
		return errNilToken
	case algorithm == "":
		return errMissingAlgorithm
	case v.Algorithm != "" && algorithm != v.Algorithm:
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	if err := jwt.Validate(tok, v.claimOptions(now)...); err != nil {
		return err
	}
	if v.Role == "" {
		return nil
	}
	if role := roleOf(tok); role != v.Role {
		return fmt.Errorf("%w: got %q", ErrRoleMismatch, role)
	}
	return nil
}

func (v TokenValidator) claimOptions(now time.Time) []jwt.ValidateOption {
	opts := []jwt.ValidateOption{jwt.WithClock(jwt.ClockFunc(func() time.Time { return now }))}
	if v.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.Audience))
	}
	return opts
}

// roleOf returns the role claim, or "" when absent or not a string.
func roleOf(tok jwt.Token) string {
	raw, ok := tok.Get(RoleClaim)
	if !ok {
		return ""
	}
	role, _ := raw.(string)
	return role
}
