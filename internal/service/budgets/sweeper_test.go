package budgets

import (
	"context"
	"testing"
	"time"

	"github.com/mamadbah2/cortinas/internal/domain/models"
)

func TestExpired(t *testing.T) {
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	budgets := []models.Budget{
		{ID: "old-pending", Status: models.BudgetPending, CreatedAt: now.AddDate(0, 0, -16)},
		{ID: "fresh-pending", Status: models.BudgetPending, CreatedAt: now.AddDate(0, 0, -14)},
		{ID: "exactly-at-limit", Status: models.BudgetPending, CreatedAt: now.AddDate(0, 0, -15)},
		{ID: "old-finalized", Status: models.BudgetFinalized, CreatedAt: now.AddDate(0, 0, -60)},
		{ID: "old-cancelled", Status: models.BudgetCancelled, CreatedAt: now.AddDate(0, 0, -60)},
	}

	got := Expired(budgets, 15, now)
	if len(got) != 1 || got[0].ID != "old-pending" {
		t.Fatalf("unexpected expired set %+v", got)
	}

	if got := Expired(budgets, 0, now); len(got) != 0 {
		t.Fatalf("no validity window must expire nothing, got %+v", got)
	}
}

func seedExpiring(h *harness) {
	budgets := []models.Budget{
		{ID: "b-old", CustomerID: "c1", Status: models.BudgetPending, CreatedAt: fixedNow.AddDate(0, 0, -30)},
		{ID: "b-new", CustomerID: "c1", Status: models.BudgetPending, CreatedAt: fixedNow.AddDate(0, 0, -1)},
		{ID: "b-done", CustomerID: "c1", Status: models.BudgetFinalized, CreatedAt: fixedNow.AddDate(0, 0, -30)},
	}
	for _, b := range budgets {
		h.backend.Seed(models.TableBudgets, b)
		h.state.PutBudget(b)
	}
}

func TestSweeperCancelsExpiredOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seedExpiring(h)
	h.state.PutConfiguration(models.Configuration{ID: "cfg", QuoteValidityDays: 15})

	sweeper := NewSweeper(h.svc, h.state, nil)
	sweeper.now = func() time.Time { return fixedNow }

	if n := sweeper.Run(ctx); n != 1 {
		t.Fatalf("expected one cancellation, got %d", n)
	}
	if b, _ := h.state.Budget("b-old"); b.Status != models.BudgetCancelled {
		t.Fatalf("expired budget not cancelled: %s", b.Status)
	}
	if b, _ := h.state.Budget("b-new"); b.Status != models.BudgetPending {
		t.Fatalf("fresh budget must stay pending")
	}
	if b, _ := h.state.Budget("b-done"); b.Status != models.BudgetFinalized {
		t.Fatalf("finalized budget must not change")
	}
	if row, _ := h.backend.Row(models.TableBudgets, "b-old"); row["status"] != string(models.BudgetCancelled) {
		t.Fatalf("cancellation not propagated remotely: %v", row["status"])
	}
	updates := h.backend.Calls("update", models.TableBudgets)

	if n := sweeper.Run(ctx); n != 0 {
		t.Fatalf("second run must be a no-op, cancelled %d", n)
	}
	if h.backend.Calls("update", models.TableBudgets) != updates {
		t.Fatalf("second run issued remote updates")
	}
}

func TestSweeperWithoutConfigurationDoesNothing(t *testing.T) {
	h := newHarness(t)
	seedExpiring(h)

	sweeper := NewSweeper(h.svc, h.state, nil)
	sweeper.now = func() time.Time { return fixedNow }

	if n := sweeper.Run(context.Background()); n != 0 {
		t.Fatalf("expected nothing cancelled, got %d", n)
	}
	if h.backend.TotalCalls() != 0 {
		t.Fatalf("no remote call expected")
	}
}

func TestSweeperWatchTriggersOnValidityChange(t *testing.T) {
	h := newHarness(t)
	seedExpiring(h)

	sweeper := NewSweeper(h.svc, h.state, nil)
	sweeper.now = func() time.Time { return fixedNow }
	sweeper.Watch(context.Background())

	h.state.PutConfiguration(models.Configuration{ID: "cfg", QuoteValidityDays: 15})

	if b, _ := h.state.Budget("b-old"); b.Status != models.BudgetCancelled {
		t.Fatalf("expected cancellation after the validity window was set, got %s", b.Status)
	}
	if n := h.backend.Calls("update", models.TableBudgets); n != 1 {
		t.Fatalf("expected exactly one remote cancellation, got %d", n)
	}

	h.state.PutConfiguration(models.Configuration{ID: "cfg", QuoteValidityDays: 0})
	if b, _ := h.state.Budget("b-new"); b.Status != models.BudgetPending {
		t.Fatalf("fresh budget must stay pending")
	}
}

func TestSweeperSkipsBudgetFinalizedRemotely(t *testing.T) {
	h := newHarness(t)
	stale := models.Budget{ID: "b1", CustomerID: "c1", Status: models.BudgetPending, CreatedAt: fixedNow.AddDate(0, 0, -30)}
	h.state.PutBudget(stale)
	stale.Status = models.BudgetFinalized
	h.backend.Seed(models.TableBudgets, stale)
	h.state.PutConfiguration(models.Configuration{ID: "cfg", QuoteValidityDays: 15})

	sweeper := NewSweeper(h.svc, h.state, nil)
	sweeper.now = func() time.Time { return fixedNow }

	if n := sweeper.Run(context.Background()); n != 0 {
		t.Fatalf("expected no cancellation, got %d", n)
	}
	if row, _ := h.backend.Row(models.TableBudgets, "b1"); row["status"] != string(models.BudgetFinalized) {
		t.Fatalf("remote status changed to %v", row["status"])
	}
	if b, _ := h.state.Budget("b1"); b.Status != models.BudgetFinalized {
		t.Fatalf("state kept the stale status %s", b.Status)
	}
}
