package kvstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/studynotes-backend/internal/domain"
)

type gormBackend struct {
	db *gorm.DB
}

// NewGormBackend stores each key as one kv_entry row. The table must already exist
// (see db.AutoMigrateAll).
func NewGormBackend(db *gorm.DB) Backend {
	return &gormBackend{db: db}
}

func (b *gormBackend) Read(ctx context.Context, key string) ([]byte, Version, error) {
	var row types.KVEntry
	err := b.db.WithContext(ctx).Where("entry_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Absent, nil
	}
	if err != nil {
		return nil, NoVersion, err
	}
	return []byte(row.Value), Version(row.Version), nil
}

// Write is a single conditional statement per case, so two processes sharing the
// database cannot both succeed against the same version.
func (b *gormBackend) Write(ctx context.Context, key string, value []byte, expect Version) (Version, error) {
	now := time.Now().UTC()
	tx := b.db.WithContext(ctx)

	switch expect {
	case NoVersion:
		row := types.KVEntry{Key: key, Value: datatypes.JSON(value), Version: 1, UpdatedAt: now}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "entry_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"value":      datatypes.JSON(value),
				"updated_at": now,
				"version":    gorm.Expr("kv_entry.version + 1"),
			}),
		}).Create(&row).Error
		if err != nil {
			return NoVersion, err
		}
		var cur types.KVEntry
		if err := tx.Select("version").Where("entry_key = ?", key).Take(&cur).Error; err != nil {
			return NoVersion, err
		}
		return Version(cur.Version), nil

	case Absent:
		row := types.KVEntry{Key: key, Value: datatypes.JSON(value), Version: 1, UpdatedAt: now}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return NoVersion, res.Error
		}
		if res.RowsAffected == 0 {
			return NoVersion, ErrVersionConflict
		}
		return 1, nil

	default:
		res := tx.Model(&types.KVEntry{}).
			Where("entry_key = ? AND version = ?", key, int64(expect)).
			Updates(map[string]any{
				"value":      datatypes.JSON(value),
				"version":    int64(expect) + 1,
				"updated_at": now,
			})
		if res.Error != nil {
			return NoVersion, res.Error
		}
		if res.RowsAffected == 0 {
			return NoVersion, ErrVersionConflict
		}
		return expect + 1, nil
	}
}

// Close is a no-op; the *gorm.DB belongs to db.Service.
func (b *gormBackend) Close() error { return nil }
