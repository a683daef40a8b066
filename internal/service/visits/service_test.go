package visits

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote/remotetest"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/validation"
	"github.com/mamadbah2/cortinas/pkg/clients/postalcode"
)

type stubLookup struct {
	calls int
	addr  postalcode.Address
	err   error
}

func (s *stubLookup) Lookup(_ context.Context, code string) (postalcode.Address, error) {
	s.calls++
	if s.err != nil {
		return postalcode.Address{}, s.err
	}
	if _, err := postalcode.Normalize(code); err != nil {
		return postalcode.Address{}, err
	}
	return s.addr, nil
}

func newTestService(t *testing.T, lookup postalcode.Client) (*Service, *remotetest.Backend, *cache.Store, *state.State) {
	t.Helper()
	log := zaptest.NewLogger(t)
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"), log)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	backend := remotetest.New()
	st := state.New()
	return NewService(backend, lookup, store, st, log), backend, store, st
}

var visitTime = time.Date(2024, 5, 2, 14, 0, 0, 0, time.UTC)

func TestScheduleFillsAddressFromPostalCode(t *testing.T) {
	lookup := &stubLookup{addr: postalcode.Address{PostalCode: "01310100", Address: "Avenida Paulista", Neighborhood: "Bela Vista", City: "São Paulo", State: "SP"}}
	svc, _, store, st := newTestService(t, lookup)
	ctx := context.Background()

	v, err := svc.Schedule(ctx, models.Visit{CustomerName: "Ana", PostalCode: "01310-100", Number: "1000", DateTime: visitTime, Status: models.VisitConfirmed})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if v.Status != models.VisitScheduled {
		t.Fatalf("new visits start scheduled, got %s", v.Status)
	}
	if v.Address != "Avenida Paulista" || v.City != "São Paulo" || v.PostalCode != "01310100" {
		t.Fatalf("address not filled: %+v", v)
	}
	if _, ok, _ := cache.Get[models.Visit](ctx, store, v.ID); !ok {
		t.Fatalf("visit not cached")
	}
	if len(st.ActiveVisits()) != 1 {
		t.Fatalf("visit missing from active set")
	}
}

func TestScheduleKeepsTypedAddress(t *testing.T) {
	lookup := &stubLookup{err: postalcode.ErrNotFound}
	svc, _, _, _ := newTestService(t, lookup)

	v, err := svc.Schedule(context.Background(), models.Visit{CustomerName: "Ana", PostalCode: "99999999", Address: "Rua B", DateTime: visitTime})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if v.Address != "Rua B" {
		t.Fatalf("typed address must be kept: %+v", v)
	}
}

func TestScheduleRequiresAddress(t *testing.T) {
	svc, backend, _, _ := newTestService(t, &stubLookup{err: postalcode.ErrNotFound})

	_, err := svc.Schedule(context.Background(), models.Visit{CustomerName: "Ana", DateTime: visitTime})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Violations["address"] != "required" {
		t.Fatalf("expected address violation, got %v", err)
	}
	if backend.TotalCalls() != 0 {
		t.Fatalf("no remote call expected")
	}
}

func TestConfirmLeavesActiveSet(t *testing.T) {
	svc, backend, store, st := newTestService(t, &stubLookup{})
	ctx := context.Background()

	v, err := svc.Schedule(ctx, models.Visit{CustomerName: "Ana", Address: "Rua A", DateTime: visitTime})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	confirmed, err := svc.Confirm(ctx, v.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != models.VisitConfirmed {
		t.Fatalf("expected confirmed, got %s", confirmed.Status)
	}
	if len(st.ActiveVisits()) != 0 || len(st.Visits()) != 1 {
		t.Fatalf("confirmed visit must leave the active set but stay stored")
	}
	if row, ok := backend.Row(models.TableVisits, v.ID); !ok || row["status"] != string(models.VisitConfirmed) {
		t.Fatalf("remote row not confirmed: %v", row)
	}
	if cached, _, _ := cache.Get[models.Visit](ctx, store, v.ID); cached.Status != models.VisitConfirmed {
		t.Fatalf("cache not confirmed: %+v", cached)
	}

	if _, err := svc.Confirm(ctx, v.ID); err != nil {
		t.Fatalf("confirm twice: %v", err)
	}
	if backend.Calls("update", models.TableVisits) != 1 {
		t.Fatalf("second confirm must not hit the remote backend")
	}
}

func TestLookupAddressRejectsShortCode(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubLookup{})

	if _, err := svc.LookupAddress(context.Background(), "123"); !errors.Is(err, postalcode.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestDeleteVisit(t *testing.T) {
	svc, _, _, st := newTestService(t, &stubLookup{})
	ctx := context.Background()

	v, err := svc.Schedule(ctx, models.Visit{CustomerName: "Ana", Address: "Rua A", DateTime: visitTime})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := svc.Delete(ctx, v.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := st.Visit(v.ID); ok {
		t.Fatalf("visit still in state")
	}
}
