// Package session resolves the current user and gates admin-only operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/cortinas/internal/config"
	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// ErrInvalidCredentials covers both an unknown user and a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Store persists the single device session.
type Store interface {
	LoadSession(ctx context.Context) (models.Session, bool, error)
	SaveSession(ctx context.Context, session models.Session) error
	ClearSession(ctx context.Context) error
}

// Gate holds the logged-in user, if any.
type Gate struct {
	users  map[string]config.UserEntry
	store  Store
	logger *zap.Logger

	mu      sync.RWMutex
	current *models.Session
}

// dummyHash keeps the cost of rejecting an unknown user close to a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("cortinas-dummy"), bcrypt.DefaultCost)
	return h
})

// NewGate builds a gate over the configured users.
func NewGate(users []config.UserEntry, store Store, log *zap.Logger) *Gate {
	byName := make(map[string]config.UserEntry, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Gate{users: byName, store: store, logger: logger.OrNop(log)}
}

// HashPassword returns the bcrypt hash to put in AUTH_USERS.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Restore loads the persisted session and reports whether one was found.
// A user removed from the configuration is logged out.
func (g *Gate) Restore(ctx context.Context) (bool, error) {
	s, ok, err := g.store.LoadSession(ctx)
	if err != nil || !ok {
		return false, err
	}
	user, known := g.users[s.Username]
	if !known {
		g.logger.Warn("persisted session belongs to an unknown user, clearing it", zap.String("username", s.Username))
		return false, g.store.ClearSession(ctx)
	}
	s.AccessLevel = models.AccessLevel(user.AccessLevel)

	g.mu.Lock()
	g.current = &s
	g.mu.Unlock()
	g.logger.Info("session restored", zap.String("username", s.Username), zap.String("access_level", string(s.AccessLevel)))
	return true, nil
}

// Login checks the credentials and persists the session without the password.
func (g *Gate) Login(ctx context.Context, username, password string) (models.Session, error) {
	user, ok := g.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		g.logger.Info("login rejected", zap.String("username", username))
		return models.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		g.logger.Info("login rejected", zap.String("username", username))
		return models.Session{}, ErrInvalidCredentials
	}

	s := models.Session{Username: user.Username, AccessLevel: models.AccessLevel(user.AccessLevel)}
	if err := g.store.SaveSession(ctx, s); err != nil {
		g.logger.Warn("session not persisted", zap.Error(err))
	}

	g.mu.Lock()
	g.current = &s
	g.mu.Unlock()
	g.logger.Info("login", zap.String("username", s.Username), zap.String("access_level", string(s.AccessLevel)))
	return s, nil
}

// Logout forgets the current user and clears the persisted session.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
	return g.store.ClearSession(ctx)
}

// Current returns the logged-in user.
func (g *Gate) Current() (models.Session, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return models.Session{}, false
	}
	return *g.current, true
}

func (g *Gate) Authenticated() bool {
	_, ok := g.Current()
	return ok
}

// HasAccess reports whether the current user may use something that requires
// level. Admin requires an admin session; any other level only requires a login.
func (g *Gate) HasAccess(level models.AccessLevel) bool {
	s, ok := g.Current()
	if !ok {
		return false
	}
	if level == models.AccessAdmin {
		return s.AccessLevel == models.AccessAdmin
	}
	return true
}
