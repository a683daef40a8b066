package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote/remotetest"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/validation"
)

func newTestService(t *testing.T) (*Service, *remotetest.Backend, *cache.Store, *state.State) {
	t.Helper()
	log := zaptest.NewLogger(t)
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), log)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	backend := remotetest.New()
	st := state.New()
	return NewService(backend, store, st, log), backend, store, st
}

func TestUpdateInsertsThenReplaces(t *testing.T) {
	ctx := context.Background()
	svc, backend, store, _ := newTestService(t)

	if _, err := svc.Get(); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	first, err := svc.Update(ctx, models.Configuration{CompanyName: "Cortinas", QuoteValidityDays: 15})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.ID == "" || backend.Calls("insert", models.TableConfiguration) != 1 {
		t.Fatalf("first update must insert the singleton")
	}

	second, err := svc.Update(ctx, models.Configuration{ID: "ignored", CompanyName: "Cortinas", QuoteValidityDays: 30})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("singleton id changed: %s -> %s", first.ID, second.ID)
	}
	if backend.Calls("insert", models.TableConfiguration) != 1 || backend.Calls("update", models.TableConfiguration) != 1 {
		t.Fatalf("second update must replace the existing row")
	}

	got, err := svc.Get()
	if err != nil || got.QuoteValidityDays != 30 {
		t.Fatalf("unexpected configuration %+v, err=%v", got, err)
	}
	cached, _ := cache.All[models.Configuration](ctx, store)
	if len(cached) != 1 || cached[0].QuoteValidityDays != 30 {
		t.Fatalf("unexpected cached configuration %+v", cached)
	}
}

func TestUpdateRejectsZeroValidity(t *testing.T) {
	svc, backend, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), models.Configuration{QuoteValidityDays: 0})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Violations["validade_orcamento"] != "gte" {
		t.Fatalf("expected validity violation, got %v", err)
	}
	if backend.TotalCalls() != 0 {
		t.Fatalf("no remote call expected")
	}
}

func TestUpdateNotifiesSubscribers(t *testing.T) {
	svc, _, _, st := newTestService(t)
	var seen []string
	st.Subscribe(func(tables []string) { seen = append(seen, tables...) })

	if _, err := svc.Update(context.Background(), models.Configuration{QuoteValidityDays: 7}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(seen) != 1 || seen[0] != models.TableConfiguration {
		t.Fatalf("unexpected notifications %v", seen)
	}
}

func TestUpdateBeforeFirstSyncReplacesRemoteRow(t *testing.T) {
	ctx := context.Background()
	svc, backend, _, st := newTestService(t)
	backend.Seed(models.TableConfiguration, models.Configuration{ID: "cfg-1", CompanyName: "Cortinas", QuoteValidityDays: 15})

	updated, err := svc.Update(ctx, models.Configuration{CompanyName: "Cortinas", QuoteValidityDays: 7})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != "cfg-1" {
		t.Fatalf("expected the existing row to be replaced, got id %q", updated.ID)
	}
	if backend.Calls("insert", models.TableConfiguration) != 0 {
		t.Fatalf("singleton must not be duplicated")
	}
	if row, _ := backend.Row(models.TableConfiguration, "cfg-1"); row["validade_orcamento"] != float64(7) {
		t.Fatalf("remote row not updated: %v", row)
	}
	if st.QuoteValidityDays() != 7 {
		t.Fatalf("state not updated")
	}
}

func TestUpdateSurfacesRemoteReadFailure(t *testing.T) {
	svc, backend, _, _ := newTestService(t)
	backend.Fail = func(op, _ string) error {
		if op == "select_all" {
			return errors.New("offline")
		}
		return nil
	}

	if _, err := svc.Update(context.Background(), models.Configuration{QuoteValidityDays: 7}); err == nil {
		t.Fatalf("expected the read failure to abort the update")
	}
	if backend.Calls("insert", models.TableConfiguration) != 0 {
		t.Fatalf("no insert expected when the existing row is unknown")
	}
}
