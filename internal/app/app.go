// Package app owns the long-lived pieces of the process: the state, the
// session gate and the background scheduler.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/pkg/logger"
)

// Lifecycle is a startable background component. Stop must leave it ready
// for another Start.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop()
}

// App runs the scheduler while a user is logged in.
type App struct {
	base      context.Context
	scheduler Lifecycle
	logger    *zap.Logger

	mu      sync.Mutex
	started bool
}

// New builds the app. base bounds the background jobs; it must outlive any
// single request since Activate is usually called from the login handler.
func New(base context.Context, scheduler Lifecycle, log *zap.Logger) *App {
	return &App{base: base, scheduler: scheduler, logger: logger.OrNop(log)}
}

// Activate starts the scheduler unless it is already running. A failed start
// is retried by the next call.
func (a *App) Activate() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	if err := a.scheduler.Start(a.base); err != nil {
		a.logger.Error("background jobs not started", zap.Error(err))
		return err
	}
	a.started = true
	a.logger.Info("background jobs started")
	return nil
}

// Active reports whether the scheduler is running.
func (a *App) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}

// Deactivate stops the scheduler and waits for running jobs. A later
// Activate starts it again.
func (a *App) Deactivate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return
	}
	a.scheduler.Stop()
	a.started = false
	a.logger.Info("background jobs stopped")
}

// Shutdown stops the scheduler if it was started.
func (a *App) Shutdown() { a.Deactivate() }
