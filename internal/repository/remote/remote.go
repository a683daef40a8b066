// Package remote is the contract over the authoritative hosted backend.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mamadbah2/cortinas/internal/domain/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("remote record not found")

// Backend is the generic per-table query client. Records travel as JSON
// objects using the remote column names. No retry happens at this layer.
type Backend interface {
	SelectAll(ctx context.Context, table string) ([]json.RawMessage, error)
	SelectOne(ctx context.Context, table, id string) (json.RawMessage, error)
	Insert(ctx context.Context, table string, record json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, table, id string, patch map[string]any) error
	// UpdateWhere patches the row only while every column in match still holds
	// the given value. ErrNotFound covers both a missing row and a mismatch.
	UpdateWhere(ctx context.Context, table, id string, match, patch map[string]any) error
	Delete(ctx context.Context, table, id string) error
}

// Table is typed access to one remote table.
type Table[T models.Record] struct {
	backend Backend
	name    string
}

// For returns the typed view of T's table on backend.
func For[T models.Record](backend Backend) Table[T] {
	var zero T
	return Table[T]{backend: backend, name: zero.TableName()}
}

// Name is the remote table name.
func (t Table[T]) Name() string { return t.name }

// All fetches every row of the table.
func (t Table[T]) All(ctx context.Context) ([]T, error) {
	rows, err := t.backend.SelectAll(ctx, t.name)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t.name, err)
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var record T
		if err := json.Unmarshal(row, &record); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", t.name, err)
		}
		out = append(out, record)
	}
	return out, nil
}

// One fetches a single row by id.
func (t Table[T]) One(ctx context.Context, id string) (T, error) {
	var record T
	row, err := t.backend.SelectOne(ctx, t.name, id)
	if err != nil {
		return record, fmt.Errorf("select %s/%s: %w", t.name, id, err)
	}
	if err := json.Unmarshal(row, &record); err != nil {
		return record, fmt.Errorf("decode %s/%s: %w", t.name, id, err)
	}
	return record, nil
}

// Insert stores record and returns the stored version, including the id
// assigned by the backend.
func (t Table[T]) Insert(ctx context.Context, record T) (T, error) {
	var stored T
	payload, err := json.Marshal(record)
	if err != nil {
		return stored, fmt.Errorf("encode %s: %w", t.name, err)
	}
	row, err := t.backend.Insert(ctx, t.name, payload)
	if err != nil {
		return stored, fmt.Errorf("insert %s: %w", t.name, err)
	}
	if err := json.Unmarshal(row, &stored); err != nil {
		return stored, fmt.Errorf("decode inserted %s: %w", t.name, err)
	}
	return stored, nil
}

// Update applies patch to the row with the given id.
func (t Table[T]) Update(ctx context.Context, id string, patch map[string]any) error {
	if err := t.backend.Update(ctx, t.name, id, patch); err != nil {
		return fmt.Errorf("update %s/%s: %w", t.name, id, err)
	}
	return nil
}

// UpdateWhere applies patch to the row with the given id if it still matches.
func (t Table[T]) UpdateWhere(ctx context.Context, id string, match, patch map[string]any) error {
	if err := t.backend.UpdateWhere(ctx, t.name, id, match, patch); err != nil {
		return fmt.Errorf("update %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Replace writes every column of record over the stored row.
func (t Table[T]) Replace(ctx context.Context, record T) error {
	return t.ReplaceWhere(ctx, record, nil)
}

// ReplaceWhere is Replace guarded by match; a nil match is unconditional.
func (t Table[T]) ReplaceWhere(ctx context.Context, record T, match map[string]any) error {
	patch, err := Patch(record)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", t.name, record.Key(), err)
	}
	delete(patch, "id")
	if len(match) == 0 {
		return t.Update(ctx, record.Key(), patch)
	}
	return t.UpdateWhere(ctx, record.Key(), match, patch)
}

// Delete removes the row with the given id.
func (t Table[T]) Delete(ctx context.Context, id string) error {
	if err := t.backend.Delete(ctx, t.name, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", t.name, id, err)
	}
	return nil
}

// Patch converts a value into a column map using its JSON names.
func Patch(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	patch := map[string]any{}
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, err
	}
	return patch, nil
}
