// Package cache is the on-device copy of the remote tables, one sqlite table
// per entity kind, keyed by record id.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// Store wraps the gorm handle of the cache database.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the sqlite cache at path and migrates every table.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.Accessory{},
		&models.Budget{},
		&models.Visit{},
		&models.Configuration{},
		&models.Session{},
	); err != nil {
		return nil, fmt.Errorf("migrate cache: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("cache handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db, logger: logger.OrNop(log)}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// All returns every cached record of T's table.
func All[T models.Record](ctx context.Context, s *Store) ([]T, error) {
	var records []T
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		var zero T
		return nil, fmt.Errorf("read cache table %s: %w", zero.TableName(), err)
	}
	return records, nil
}

// Get returns the record with the given id; ok is false when it is absent.
func Get[T models.Record](ctx context.Context, s *Store, id string) (record T, ok bool, err error) {
	err = s.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		return record, false, fmt.Errorf("read cache %s/%s: %w", record.TableName(), id, err)
	}
	return record, true, nil
}

// PutAll upserts whole records by primary key in a single transaction.
func PutAll[T models.Record](ctx context.Context, s *Store, records ...T) error {
	if len(records) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&records).Error
	if err != nil {
		return fmt.Errorf("write cache table %s: %w", records[0].TableName(), err)
	}
	return nil
}

// Delete removes the record with the given id. Deleting an absent id is not an error.
func Delete[T models.Record](ctx context.Context, s *Store, id string) error {
	var zero T
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&zero).Error; err != nil {
		return fmt.Errorf("delete cache %s/%s: %w", zero.TableName(), id, err)
	}
	return nil
}

// ReplaceSnapshot swaps the content of every entity table for the snapshot in
// one transaction. On error nothing is changed.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap models.Snapshot) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := replaceTable(tx, snap.Customers); err != nil {
			return err
		}
		if err := replaceTable(tx, snap.Products); err != nil {
			return err
		}
		if err := replaceTable(tx, snap.Accessories); err != nil {
			return err
		}
		if err := replaceTable(tx, snap.Budgets); err != nil {
			return err
		}
		if err := replaceTable(tx, snap.Visits); err != nil {
			return err
		}
		var configs []models.Configuration
		if snap.Configuration != nil {
			configs = append(configs, *snap.Configuration)
		}
		return replaceTable(tx, configs)
	})
	if err != nil {
		return fmt.Errorf("replace cache snapshot: %w", err)
	}
	s.logger.Debug("cache snapshot replaced",
		zap.Int("customers", len(snap.Customers)),
		zap.Int("products", len(snap.Products)),
		zap.Int("accessories", len(snap.Accessories)),
		zap.Int("budgets", len(snap.Budgets)),
		zap.Int("visits", len(snap.Visits)))
	return nil
}

func replaceTable[T models.Record](tx *gorm.DB, records []T) error {
	var zero T
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&zero).Error; err != nil {
		return fmt.Errorf("clear table %s: %w", zero.TableName(), err)
	}
	if len(records) == 0 {
		return nil
	}
	if err := tx.Create(&records).Error; err != nil {
		return fmt.Errorf("fill table %s: %w", zero.TableName(), err)
	}
	return nil
}

// LoadSession returns the persisted session, if any.
func (s *Store) LoadSession(ctx context.Context) (models.Session, bool, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Session{}, false, nil
	}
	if err != nil {
		return models.Session{}, false, fmt.Errorf("read session: %w", err)
	}
	return session, true, nil
}

// SaveSession replaces the persisted session.
func (s *Store) SaveSession(ctx context.Context, session models.Session) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ClearSession removes the persisted session.
func (s *Store) ClearSession(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Session{}).Error
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
