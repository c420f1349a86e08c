package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultSessionTTL = 30 * time.Minute

var (
	errMissingSigningSecret = errors.New("auth: signing secret must be provided")
	errMissingSubjectClaim  = errors.New("auth: subject claim must be provided")
	// ErrInvalidRole indicates the role claim is absent or not a known role.
	ErrInvalidRole = errors.New("auth: invalid role claim")
)

// Role identifies which side of the platform the acting user belongs to.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleStaff     Role = "staff"
)

// ParseRole validates a raw role claim value.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCandidate:
		return RoleCandidate, nil
	case RoleStaff:
		return RoleStaff, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// SessionClaims is the verified identity the scheduling core trusts.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the resolved acting user attached to every request.
type Actor struct {
	UserID string
	Role   Role
}

// IsStaff reports whether the actor acts with staff privileges.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff
}

// SessionManagerConfig configures session token issuance and validation.
type SessionManagerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	SessionTTL    time.Duration
	Clock         func() time.Time
}

// SessionManager issues and validates the backend session JWTs carrying
// the acting user id and role.
type SessionManager struct {
	config SessionManagerConfig
	clock  func() time.Time
}

// NewSessionManager constructs a SessionManager with sane defaults.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SessionManager{
		config: SessionManagerConfig{
			SigningSecret: cfg.SigningSecret,
			Issuer:        cfg.Issuer,
			Audience:      cfg.Audience,
			SessionTTL:    ttl,
			Clock:         clock,
		},
		clock: clock,
	}
}

// IssueSessionToken produces a signed JWT and its expiry (seconds) for a
// verified user id and role. Upstream identity verification is outside this
// service; the scheduling core only ever sees tokens minted here.
func (m *SessionManager) IssueSessionToken(userID string, role Role) (string, int64, error) {
	if len(m.config.SigningSecret) == 0 {
		return "", 0, errMissingSigningSecret
	}
	if strings.TrimSpace(userID) == "" {
		return "", 0, errMissingSubjectClaim
	}
	if _, err := ParseRole(string(role)); err != nil {
		return "", 0, err
	}

	now := m.clock().UTC()
	expiresAt := now.Add(m.config.SessionTTL).UTC()

	claims := SessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			Audience:  []string{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.SigningSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// ValidateToken ensures the session JWT is well formed and returns the actor.
func (m *SessionManager) ValidateToken(tokenString string) (Actor, error) {
	if len(m.config.SigningSecret) == 0 {
		return Actor{}, errMissingSigningSecret
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return m.config.SigningSecret, nil
		},
		jwt.WithAudience(m.config.Audience),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.clock),
	)
	if err != nil {
		return Actor{}, err
	}
	if claims.Subject == "" {
		return Actor{}, errMissingSubjectClaim
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Actor{}, err
	}
	return Actor{UserID: claims.Subject, Role: role}, nil
}
