// Package syncer pulls the authoritative tables from the remote backend into
// the local cache and refreshes the in-memory state from the cache.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// ErrSyncInProgress is returned by SyncAll when another cycle is running.
var ErrSyncInProgress = errors.New("synchronization already in progress")

// Status is the observable state of the engine.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
)

// Info describes the engine for status endpoints.
type Info struct {
	Status    Status     `json:"status"`
	LastSync  *time.Time `json:"last_sync,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// Engine coordinates remote pulls, cache writes and state refreshes.
// At most one SyncAll runs at a time.
type Engine struct {
	backend remote.Backend
	cache   *cache.Store
	state   *state.State
	logger  *zap.Logger
	now     func() time.Time

	syncing atomic.Bool

	mu       sync.RWMutex
	lastSync time.Time
	lastErr  error
}

// NewEngine wires a new engine instance.
func NewEngine(backend remote.Backend, store *cache.Store, st *state.State, log *zap.Logger) *Engine {
	return &Engine{
		backend: backend,
		cache:   store,
		state:   st,
		logger:  logger.OrNop(log),
		now:     time.Now,
	}
}

// Status reports whether a cycle is running.
func (e *Engine) Status() Status {
	if e.syncing.Load() {
		return StatusSyncing
	}
	return StatusIdle
}

// Info returns the status with the outcome of the last cycle.
func (e *Engine) Info() Info {
	info := Info{Status: e.Status()}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.lastSync.IsZero() {
		t := e.lastSync
		info.LastSync = &t
	}
	if e.lastErr != nil {
		info.LastError = e.lastErr.Error()
	}
	return info
}

// LoadFromCache populates the state from the cache without any network
// call. A table that cannot be read is logged and treated as empty.
func (e *Engine) LoadFromCache(ctx context.Context) {
	snap, _ := e.readCache(ctx, false)
	e.state.Replace(snap)
	e.logger.Info("state loaded from cache",
		zap.Int("customers", len(snap.Customers)),
		zap.Int("products", len(snap.Products)),
		zap.Int("accessories", len(snap.Accessories)),
		zap.Int("budgets", len(snap.Budgets)),
		zap.Int("visits", len(snap.Visits)),
		zap.Bool("configuration", snap.Configuration != nil))
}

// SyncAll pulls every table, replaces the cache content with it and then
// rebuilds the state from the cache. Any error aborts the cycle and leaves
// the cache and the state as they were.
func (e *Engine) SyncAll(ctx context.Context) error {
	if !e.syncing.CompareAndSwap(false, true) {
		e.logger.Debug("sync skipped, another cycle is running")
		return ErrSyncInProgress
	}
	defer e.syncing.Store(false)

	started := e.now()
	e.logger.Info("sync started")

	snap, err := e.pull(ctx)
	if err != nil {
		return e.fail(fmt.Errorf("pull remote tables: %w", err))
	}

	if err := e.cache.ReplaceSnapshot(ctx, snap); err != nil {
		return e.fail(err)
	}

	fresh, err := e.readCache(ctx, true)
	if err != nil {
		return e.fail(fmt.Errorf("reload cache: %w", err))
	}
	e.state.Replace(fresh)

	e.mu.Lock()
	e.lastSync = e.now()
	e.lastErr = nil
	e.mu.Unlock()

	e.logger.Info("sync completed", zap.Duration("duration", e.now().Sub(started)))
	return nil
}

func (e *Engine) fail(err error) error {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
	e.logger.Error("sync failed", zap.Error(err))
	return err
}

// pull fetches every remote table concurrently; the first failure cancels the rest.
func (e *Engine) pull(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	var configs []models.Configuration

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Customers, err = remote.For[models.Customer](e.backend).All(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Products, err = remote.For[models.Product](e.backend).All(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Accessories, err = remote.For[models.Accessory](e.backend).All(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Budgets, err = remote.For[models.Budget](e.backend).All(gctx)
		return err
	})
	g.Go(func() (err error) {
		snap.Visits, err = remote.For[models.Visit](e.backend).All(gctx)
		return err
	})
	g.Go(func() (err error) {
		configs, err = remote.For[models.Configuration](e.backend).All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}

	snap.Configuration = firstConfiguration(configs)
	return snap, nil
}

// readCache reads every cache table concurrently. When strict is false a
// failing table is logged and left empty.
func (e *Engine) readCache(ctx context.Context, strict bool) (models.Snapshot, error) {
	var snap models.Snapshot
	var configs []models.Configuration

	tolerate := func(table string, err error) error {
		if err == nil || strict {
			return err
		}
		e.logger.Warn("cache table unreadable, continuing without it", zap.String("table", table), zap.Error(err))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.Customers, err = cache.All[models.Customer](gctx, e.cache)
		return tolerate(models.TableCustomers, err)
	})
	g.Go(func() (err error) {
		snap.Products, err = cache.All[models.Product](gctx, e.cache)
		return tolerate(models.TableProducts, err)
	})
	g.Go(func() (err error) {
		snap.Accessories, err = cache.All[models.Accessory](gctx, e.cache)
		return tolerate(models.TableAccessories, err)
	})
	g.Go(func() (err error) {
		snap.Budgets, err = cache.All[models.Budget](gctx, e.cache)
		return tolerate(models.TableBudgets, err)
	})
	g.Go(func() (err error) {
		snap.Visits, err = cache.All[models.Visit](gctx, e.cache)
		return tolerate(models.TableVisits, err)
	})
	g.Go(func() (err error) {
		configs, err = cache.All[models.Configuration](gctx, e.cache)
		return tolerate(models.TableConfiguration, err)
	})
	if err := g.Wait(); err != nil {
		return models.Snapshot{}, err
	}

	snap.Configuration = firstConfiguration(configs)
	return snap, nil
}

// firstConfiguration picks the singleton; extra rows are ignored.
func firstConfiguration(configs []models.Configuration) *models.Configuration {
	cfg, ok := models.SingletonConfiguration(configs)
	if !ok {
		return nil
	}
	return &cfg
}
