package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/cortinas/internal/config"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.RemoteConfig{BaseURL: srv.URL + "/", APIKey: "secret"})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestSelectAll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/v1/clientes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.URL.Query().Get("select") != "*" || r.URL.Query().Get("order") != "id.asc" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("apikey") != "secret" || r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing auth headers")
		}
		writeJSON(w, http.StatusOK, `[{"id":"c1","name":"Ana"},{"id":"c2","name":"Bia"}]`)
	})

	rows, err := client.SelectAll(context.Background(), "clientes")
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows got %d", len(rows))
	}
}

func TestSelectOneNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "eq.x" {
			t.Errorf("unexpected filter %q", r.URL.Query().Get("id"))
		}
		writeJSON(w, http.StatusOK, `[]`)
	})

	_, err := client.SelectOne(context.Background(), "produtos", "x")
	if !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertReturnsRepresentation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("missing Prefer header")
		}
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil || got["name"] != "Ana" {
			t.Errorf("unexpected body %s", body)
		}
		writeJSON(w, http.StatusCreated, `[{"id":"generated","name":"Ana"}]`)
	})

	row, err := client.Insert(context.Background(), "clientes", json.RawMessage(`{"name":"Ana"}`))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	var stored map[string]any
	if err := json.Unmarshal(row, &stored); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stored["id"] != "generated" {
		t.Fatalf("expected generated id, got %v", stored["id"])
	}
}

func TestUpdateMissingRow(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method %s", r.Method)
		}
		writeJSON(w, http.StatusOK, `[]`)
	})

	err := client.Update(context.Background(), "orcamentos", "b1", map[string]any{"status": "cancelado"})
	if !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateWhereFiltersOnMatchColumns(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("id") != "eq.b1" || q.Get("status") != "eq.pendente" {
			t.Errorf("unexpected filters %s", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, `[]`)
	})

	err := client.UpdateWhere(context.Background(), "orcamentos", "b1",
		map[string]any{"status": "pendente"}, map[string]any{"status": "cancelado"})
	if !errors.Is(err, remote.ErrNotFound) {
		t.Fatalf("a row that no longer matches must report ErrNotFound, got %v", err)
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"code":"23502","message":"null value in column \"name\""}`)
	})

	err := client.Delete(context.Background(), "clientes", "c1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Code != "23502" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
}
