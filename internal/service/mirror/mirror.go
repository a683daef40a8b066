// Package mirror copies writes already accepted by the remote backend into
// the local cache. Cache failures are logged and swallowed: the remote row is
// authoritative and the next sync repairs the cache.
package mirror

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
)

// Put upserts record into the cache.
func Put[T models.Record](ctx context.Context, store *cache.Store, log *zap.Logger, record T) {
	if err := cache.PutAll(ctx, store, record); err != nil {
		log.Warn("cache write failed",
			zap.String("table", record.TableName()),
			zap.String("id", record.Key()),
			zap.Error(err))
	}
}

// Delete removes the row with the given id from T's cache table.
func Delete[T models.Record](ctx context.Context, store *cache.Store, log *zap.Logger, id string) {
	if err := cache.Delete[T](ctx, store, id); err != nil {
		var zero T
		log.Warn("cache delete failed",
			zap.String("table", zero.TableName()),
			zap.String("id", id),
			zap.Error(err))
	}
}
