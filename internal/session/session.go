// Package session keeps one Store per browser session. Sessions are
// identified by a signed cookie and discarded after a period of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/patientor/internal/store"
	"github.com/jwalitptl/patientor/pkg/metrics"
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrExpired      = errors.New("session expired")
)

const issuer = "patientor"

// Bootstrap fills a newly created store. It runs once per session.
type Bootstrap func(ctx context.Context, s *store.Store)

type Config struct {
	CookieName      string
	Secret          string
	IdleTTL         time.Duration
	MaxAge          time.Duration
	CleanupInterval time.Duration
	Secure          bool
}

func DefaultConfig() Config {
	return Config{
		CookieName:      "patientor_session",
		IdleTTL:         30 * time.Minute,
		MaxAge:          24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
	}
}

// Manager is the registry of live sessions.
type Manager struct {
	cfg       Config
	cache     *cache.Cache
	metrics   *metrics.Metrics
	bootstrap Bootstrap
	now       func() time.Time
}

func NewManager(cfg Config, m *metrics.Metrics, bootstrap Bootstrap) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultConfig().CookieName
	}

	mgr := &Manager{
		cfg:       cfg,
		cache:     cache.New(cfg.IdleTTL, cfg.CleanupInterval),
		metrics:   m,
		bootstrap: bootstrap,
		now:       time.Now,
	}
	mgr.cache.OnEvicted(func(id string, _ interface{}) {
		log.Debug().Str("session_id", id).Msg("Session discarded")
		if mgr.metrics != nil {
			mgr.metrics.ActiveSessions.Dec()
		}
	})
	return mgr, nil
}

func (m *Manager) Config() Config { return m.cfg }

// Resolve returns the store of the session named by token. When token is
// empty, invalid or names an expired session, a new session is created and
// created is true; the caller must then hand the new token to the browser.
func (m *Manager) Resolve(ctx context.Context, token string) (s *store.Store, newToken string, created bool, err error) {
	if token != "" {
		id, err := m.Parse(token)
		if err == nil {
			if s, ok := m.Get(id); ok {
				return s, token, false, nil
			}
			err = ErrExpired
		}
		log.Debug().Err(err).Msg("Starting new session")
	}

	id, s := m.Create(ctx)
	newToken, err = m.Sign(id)
	if err != nil {
		m.Discard(id)
		return nil, "", false, err
	}
	return s, newToken, true, nil
}

// Get returns the live store for id and extends its idle deadline.
func (m *Manager) Get(id string) (*store.Store, bool) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, false
	}
	s := v.(*store.Store)
	m.cache.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// Create registers a new empty store and runs the bootstrap on it.
func (m *Manager) Create(ctx context.Context) (string, *store.Store) {
	id := uuid.NewString()
	s := store.New(m.countDispatch)
	m.cache.Set(id, s, cache.DefaultExpiration)

	if m.metrics != nil {
		m.metrics.ActiveSessions.Inc()
		m.metrics.SessionsCreated.Inc()
	}
	log.Info().Str("session_id", id).Msg("Session created")

	if m.bootstrap != nil {
		m.bootstrap(ctx, s)
	}
	return id, s
}

// Discard ends the session immediately.
func (m *Manager) Discard(id string) {
	m.cache.Delete(id)
}

func (m *Manager) Count() int {
	return m.cache.ItemCount()
}

func (m *Manager) countDispatch(a store.Action) {
	if m.metrics != nil {
		m.metrics.Dispatches.WithLabelValues(a.Type()).Inc()
	}
}

// Sign returns the cookie value for session id.
func (m *Manager) Sign(id string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.MaxAge)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Parse verifies a cookie value and returns the session id it carries.
func (m *Manager) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.cfg.Secret), nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
