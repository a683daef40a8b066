package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *Repository {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	service, err := sheetsapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("sheets service: %v", err)
	}
	return &Repository{service: service, spreadsheetID: "sheet-id", logger: zaptest.NewLogger(t)}
}

func TestWriteRangeSendsRows(t *testing.T) {
	var got sheetsapi.ValueRange
	var method, path, inputOption string
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		inputOption = r.URL.Query().Get("valueInputOption")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"updatedRows": 2}`))
	})

	rows := [][]any{{"id", "total"}, {"b1", "225.50"}}
	if err := repo.WriteRange(context.Background(), "Orcamentos!A1", rows); err != nil {
		t.Fatalf("write range: %v", err)
	}
	if method != http.MethodPut || !strings.HasPrefix(path, "/v4/spreadsheets/sheet-id/values/") {
		t.Fatalf("unexpected request %s %s", method, path)
	}
	if inputOption != "USER_ENTERED" {
		t.Fatalf("unexpected input option %q", inputOption)
	}
	if len(got.Values) != 2 || got.Values[1][0] != "b1" {
		t.Fatalf("unexpected payload %+v", got.Values)
	}
}

func TestEmptyRangeRejected(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})
	if err := repo.WriteRange(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty range")
	}
	if err := repo.ClearRange(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty range")
	}
}
