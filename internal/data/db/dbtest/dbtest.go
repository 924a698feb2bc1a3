package dbtest

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studynotes-backend/internal/data/db"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	pgOnce sync.Once
	pg     *db.Service
	pgErr  error
)

// SQLite opens a private in-memory database with every table migrated.
func SQLite(tb testing.TB) *gorm.DB {
	tb.Helper()
	svc, err := db.NewService(db.Config{
		Driver:     db.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		Silent:     true,
	}, logger.Nop())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = svc.Close() })
	if err := svc.AutoMigrateAll(); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return svc.DB()
}

// Postgres returns the shared TEST_POSTGRES_DSN database, skipping when it is unset.
func Postgres(tb testing.TB) *gorm.DB {
	tb.Helper()

	pgOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			pgErr = errMissingDSN
			return
		}
		pg, pgErr = db.NewService(db.Config{Driver: db.DriverPostgres, PostgresDSN: dsn, Silent: true}, logger.Nop())
		if pgErr != nil {
			return
		}
		pgErr = pg.AutoMigrateAll()
	})

	if errors.Is(pgErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	if pgErr != nil {
		tb.Fatalf("failed to init test db: %v", pgErr)
	}
	return pg.DB()
}

// Tx runs the test inside a transaction that is rolled back on cleanup.
func Tx(tb testing.TB, conn *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := conn.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
