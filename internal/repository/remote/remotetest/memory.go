// Package remotetest provides an in-memory remote.Backend for tests.
package remotetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mamadbah2/cortinas/internal/repository/remote"
)

// Backend keeps tables as maps of decoded JSON objects.
type Backend struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]any
	calls  map[string]int

	// Fail, when set, is consulted before every call; a non-nil error is returned as is.
	Fail func(op, table string) error
	// BeforeSelectAll, when set, runs before SelectAll reads the table (outside the lock).
	BeforeSelectAll func(table string)
}

var _ remote.Backend = (*Backend)(nil)

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		tables: map[string]map[string]map[string]any{},
		calls:  map[string]int{},
	}
}

// Seed stores records (any JSON-encodable value with an "id") directly.
func (b *Backend) Seed(table string, records ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range records {
		row := toRow(r)
		b.table(table)[fmt.Sprint(row["id"])] = row
	}
}

// Calls returns how many times op was invoked on table.
func (b *Backend) Calls(op, table string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op+":"+table]
}

// TotalCalls returns the number of calls across every op and table.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// Row returns the stored row, if any.
func (b *Backend) Row(table, id string) (map[string]any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.table(table)[id]
	return row, ok
}

func (b *Backend) SelectAll(ctx context.Context, table string) ([]json.RawMessage, error) {
	if err := b.enter("select_all", table); err != nil {
		return nil, err
	}
	if b.BeforeSelectAll != nil {
		b.BeforeSelectAll(table)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.table(table)))
	for id := range b.table(table) {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		data, _ := json.Marshal(b.table(table)[id])
		out = append(out, data)
	}
	return out, nil
}

func (b *Backend) SelectOne(_ context.Context, table, id string) (json.RawMessage, error) {
	if err := b.enter("select_one", table); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.table(table)[id]
	if !ok {
		return nil, remote.ErrNotFound
	}
	return json.Marshal(row)
}

func (b *Backend) Insert(_ context.Context, table string, record json.RawMessage) (json.RawMessage, error) {
	if err := b.enter("insert", table); err != nil {
		return nil, err
	}
	row := map[string]any{}
	if err := json.Unmarshal(record, &row); err != nil {
		return nil, err
	}
	if id, _ := row["id"].(string); id == "" {
		row["id"] = uuid.NewString()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.table(table)[fmt.Sprint(row["id"])] = row
	return json.Marshal(row)
}

func (b *Backend) Update(_ context.Context, table, id string, patch map[string]any) error {
	if err := b.enter("update", table); err != nil {
		return err
	}
	return b.patch(table, id, nil, patch)
}

func (b *Backend) UpdateWhere(_ context.Context, table, id string, match, patch map[string]any) error {
	if err := b.enter("update", table); err != nil {
		return err
	}
	return b.patch(table, id, match, patch)
}

func (b *Backend) patch(table, id string, match, patch map[string]any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	row, ok := b.table(table)[id]
	if !ok {
		return remote.ErrNotFound
	}
	for k, want := range toRow(match) {
		if fmt.Sprint(row[k]) != fmt.Sprint(want) {
			return remote.ErrNotFound
		}
	}
	for k, v := range toRow(patch) {
		row[k] = v
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, table, id string) error {
	if err := b.enter("delete", table); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.table(table), id)
	return nil
}

func (b *Backend) enter(op, table string) error {
	b.mu.Lock()
	b.calls[op+":"+table]++
	fail := b.Fail
	b.mu.Unlock()
	if fail != nil {
		return fail(op, table)
	}
	return nil
}

func (b *Backend) table(name string) map[string]map[string]any {
	t, ok := b.tables[name]
	if !ok {
		t = map[string]map[string]any{}
		b.tables[name] = t
	}
	return t
}

func toRow(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	row := map[string]any{}
	if err := json.Unmarshal(data, &row); err != nil {
		panic(err)
	}
	return row
}
