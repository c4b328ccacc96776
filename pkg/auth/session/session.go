package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/modecraft/storefront-backend/pkg/config"
)

// Claims carries the cart key owned by an anonymous storefront session.
type Claims struct {
	CartKey string `json:"cart_key"`
	jwt.RegisteredClaims
}

// Manager issues and verifies guest session tokens. A session names the
// cart it owns and nothing else; user authentication is a separate
// concern.
type Manager struct {
	cfg config.SessionConfig
}

// NewManager validates the config and builds a session manager.
func NewManager(cfg config.SessionConfig) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	return &Manager{cfg: cfg}, nil
}

// Issue mints a fresh session token bound to a new cart key.
func (m *Manager) Issue(now time.Time) (token string, cartKey string, err error) {
	cartKey = uuid.NewString()
	claims := Claims{
		CartKey: cartKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL())),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, cartKey, nil
}

// Verify parses the token and returns the cart key it names.
func (m *Manager) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	}, jwt.WithIssuer(m.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", err)
	}
	if !parsed.Valid || claims.CartKey == "" {
		return "", errors.New("invalid session token")
	}
	return claims.CartKey, nil
}

// CookieName returns the configured session cookie name.
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.cfg.TTL()
}
