package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/studynotes-backend/internal/data/db"
	"github.com/yungbote/studynotes-backend/internal/data/kvstore"
	"github.com/yungbote/studynotes-backend/internal/observability"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

const (
	StoreModeSQLite   = "sqlite"
	StoreModePostgres = "postgres"
	StoreModeRedis    = "redis"
	StoreModeMemory   = "memory"
)

type StoreBootstrapErrorCode string

const (
	StoreBootstrapErrorInvalidMode   StoreBootstrapErrorCode = "invalid_mode"
	StoreBootstrapErrorMissingConfig StoreBootstrapErrorCode = "missing_config"
	StoreBootstrapErrorConnectFailed StoreBootstrapErrorCode = "connect_failed"
	StoreBootstrapErrorMigrateFailed StoreBootstrapErrorCode = "migrate_failed"
)

type StoreBootstrapError struct {
	Code  StoreBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StoreBootstrapError) Error() string {
	if e == nil {
		return "store bootstrap failed"
	}
	return fmt.Sprintf("store bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StoreBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

var errMissingSetting = errors.New("missing setting")

// storeHandle is the opened store plus the database service, if any, that must be
// closed with it.
type storeHandle struct {
	Store *kvstore.Store
	DB    *db.Service
}

func (h storeHandle) Close() error {
	var errs []error
	if h.Store != nil {
		errs = append(errs, h.Store.Close())
	}
	if h.DB != nil {
		errs = append(errs, h.DB.Close())
	}
	return errors.Join(errs...)
}

func openStore(cfg Config, log *logger.Logger, silentDB bool) (storeHandle, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Store.Mode))
	if mode == "" {
		mode = StoreModeSQLite
	}
	log.Info("Selecting lesson store", "mode", mode)

	var (
		h   storeHandle
		err error
	)
	switch mode {
	case StoreModeMemory:
		h.Store = kvstore.New(kvstore.NewMemoryBackend(), log)
	case StoreModeRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return h, &StoreBootstrapError{Code: StoreBootstrapErrorMissingConfig, Mode: mode, Cause: fmt.Errorf("REDIS_ADDR: %w", errMissingSetting)}
		}
		backend, rerr := kvstore.NewRedisBackend(kvstore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if rerr != nil {
			return h, &StoreBootstrapError{Code: StoreBootstrapErrorConnectFailed, Mode: mode, Cause: rerr}
		}
		h.Store = kvstore.New(backend, log)
	case StoreModeSQLite, StoreModePostgres:
		if mode == StoreModePostgres && strings.TrimSpace(cfg.Store.PostgresDSN) == "" {
			return h, &StoreBootstrapError{Code: StoreBootstrapErrorMissingConfig, Mode: mode, Cause: fmt.Errorf("POSTGRES_DSN: %w", errMissingSetting)}
		}
		h.DB, err = db.NewService(db.Config{
			Driver:      mode,
			SQLitePath:  cfg.Store.SQLitePath,
			PostgresDSN: cfg.Store.PostgresDSN,
			Silent:      silentDB,
		}, log)
		if err != nil {
			return storeHandle{}, &StoreBootstrapError{Code: StoreBootstrapErrorConnectFailed, Mode: mode, Cause: err}
		}
		if err := h.DB.AutoMigrateAll(); err != nil {
			_ = h.DB.Close()
			return storeHandle{}, &StoreBootstrapError{Code: StoreBootstrapErrorMigrateFailed, Mode: mode, Cause: err}
		}
		h.Store = kvstore.New(kvstore.NewGormBackend(h.DB.DB()), log)
	default:
		return h, &StoreBootstrapError{Code: StoreBootstrapErrorInvalidMode, Mode: mode, Cause: fmt.Errorf("unsupported store mode %q", mode)}
	}

	if m := observability.Current(); m != nil {
		h.Store.OnError(m.IncStorageError)
	}
	return h, nil
}

func storeBootstrapErrorCode(err error) StoreBootstrapErrorCode {
	var bootstrapErr *StoreBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StoreBootstrapErrorConnectFailed
}
