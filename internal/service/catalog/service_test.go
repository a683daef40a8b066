package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
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

func product(cost, margin int64) models.Product {
	return models.Product{
		Category:          "cortina",
		Name:              "Blackout",
		CostPrice:         decimal.NewFromInt(cost),
		ProfitMargin:      decimal.NewFromInt(margin),
		SalePrice:         decimal.NewFromInt(999),
		CalculationMethod: models.MethodLinear,
	}
}

func TestCreateProductDerivesSalePrice(t *testing.T) {
	ctx := context.Background()
	svc, _, store, st := newTestService(t)

	cases := []struct {
		cost, margin int64
		want         string
	}{
		{100, 20, "120"},
		{0, 50, "0"},
	}
	for _, tc := range cases {
		created, err := svc.CreateProduct(ctx, product(tc.cost, tc.margin))
		if err != nil {
			t.Fatalf("create product: %v", err)
		}
		if !created.SalePrice.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("cost=%d margin=%d: expected %s, got %s", tc.cost, tc.margin, tc.want, created.SalePrice)
		}
		cached, ok, _ := cache.Get[models.Product](ctx, store, created.ID)
		if !ok || !cached.SalePrice.Equal(created.SalePrice) {
			t.Fatalf("cached product mismatch: %+v", cached)
		}
		if _, ok := st.Product(created.ID); !ok {
			t.Fatalf("product missing from state")
		}
	}
}

func TestUpdateProductRecomputesSalePrice(t *testing.T) {
	ctx := context.Background()
	svc, backend, _, _ := newTestService(t)

	created, err := svc.CreateProduct(ctx, product(100, 20))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.UpdateProduct(ctx, created.ID, product(200, 10))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.SalePrice.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("expected 220, got %s", updated.SalePrice)
	}
	row, _ := backend.Row(models.TableProducts, created.ID)
	if row["preco_venda"] != "220" {
		t.Fatalf("remote sale price not replaced: %v", row["preco_venda"])
	}
}

func TestCreateProductRejectsNegativeCost(t *testing.T) {
	svc, backend, _, _ := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), product(-1, 20))
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Violations["preco_custo"] != "gte" {
		t.Fatalf("expected cost violation, got %v", err)
	}
	if backend.TotalCalls() != 0 {
		t.Fatalf("validation must happen before any remote call")
	}
}

func TestCreateAccessoryWithoutColorsRejectedBeforeRemote(t *testing.T) {
	svc, backend, _, _ := newTestService(t)

	_, err := svc.CreateAccessory(context.Background(), models.Accessory{Product: "p1", Unit: "m"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if backend.TotalCalls() != 0 {
		t.Fatalf("expected no remote call, got %d", backend.TotalCalls())
	}
}

func TestCreateAccessory(t *testing.T) {
	ctx := context.Background()
	svc, backend, _, st := newTestService(t)

	created, err := svc.CreateAccessory(ctx, models.Accessory{
		Product: "p1",
		Unit:    "m",
		Colors:  []models.ColorPrice{{Color: "branco", Price: decimal.RequireFromString("12.50")}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if backend.Calls("insert", models.TableAccessories) != 1 {
		t.Fatalf("expected one insert")
	}
	got, ok := st.Accessory(created.ID)
	if !ok || len(got.Colors) != 1 {
		t.Fatalf("accessory missing from state: %+v", got)
	}
}

func TestCustomerLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, store, st := newTestService(t)

	created, err := svc.CreateCustomer(ctx, models.Customer{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.UpdateCustomer(ctx, created.ID, models.Customer{Name: "Ana Maria", Email: "ana@example.com"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if c, _ := st.Customer(created.ID); c.Name != "Ana Maria" {
		t.Fatalf("state not updated: %+v", c)
	}
	if err := svc.DeleteCustomer(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := cache.Get[models.Customer](ctx, store, created.ID); ok {
		t.Fatalf("customer still cached")
	}
}

func TestUpdateMissingCustomerReturnsNotFound(t *testing.T) {
	svc, _, _, st := newTestService(t)

	_, err := svc.UpdateCustomer(context.Background(), "missing", models.Customer{Name: "Ana"})
	if !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(st.Customers()) != 0 {
		t.Fatalf("state must not change")
	}
}

func TestInvalidEmailRejected(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.CreateCustomer(context.Background(), models.Customer{Name: "Ana", Email: "not-an-email"})
	var verr *validation.Error
	if !errors.As(err, &verr) || verr.Violations["email"] != "email" {
		t.Fatalf("expected email violation, got %v", err)
	}
}
