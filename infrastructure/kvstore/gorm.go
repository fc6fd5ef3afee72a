package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KVEntryModel struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (KVEntryModel) TableName() string {
	return "kv_entries"
}

// GormStore is a durable IKeyValueStore backed by a SQL table (sqlite or postgres).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// InitSchema creates the kv_entries table if needed.
func (r *GormStore) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&KVEntryModel{})
}

// Ping checks the database connection.
func (r *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var m KVEntryModel
	if err := r.db.WithContext(ctx).First(&m, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get kv entry: %w", err)
	}
	return m.Value, true, nil
}

func (r *GormStore) Set(ctx context.Context, key string, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&KVEntryModel{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}).Error
	if err != nil {
		return fmt.Errorf("failed to set kv entry: %w", err)
	}
	return nil
}

func (r *GormStore) Remove(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Delete(&KVEntryModel{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to remove kv entry: %w", err)
	}
	return nil
}

func (r *GormStore) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.WithContext(ctx).Model(&KVEntryModel{}).Order("key").Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	return keys, nil
}

func (r *GormStore) RemoveMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Delete(&KVEntryModel{}, "key IN ?", keys).Error; err != nil {
		return fmt.Errorf("failed to remove kv entries: %w", err)
	}
	return nil
}
