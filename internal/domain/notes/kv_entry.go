package notes

import (
	"time"

	"gorm.io/datatypes"
)

// KVEntry is one row of the key/value mirror used by the gorm store backend.
type KVEntry struct {
	Key       string         `gorm:"column:entry_key;primaryKey;size:191" json:"key"`
	Value     datatypes.JSON `gorm:"column:value" json:"value"`
	// Version is bumped on every write. Rows from before the column existed start at 1.
	Version   int64          `gorm:"column:version;not null;default:1" json:"version"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (KVEntry) TableName() string { return "kv_entry" }
