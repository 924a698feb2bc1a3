package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yungbote/studynotes-backend/internal/data/repos/lessons"
	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

func TestOpenStoreBootstrapErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want StoreBootstrapErrorCode
	}{
		{"invalid mode", Config{Store: StoreConfig{Mode: "etcd"}}, StoreBootstrapErrorInvalidMode},
		{"postgres without dsn", Config{Store: StoreConfig{Mode: StoreModePostgres}}, StoreBootstrapErrorMissingConfig},
		{"redis without addr", Config{Store: StoreConfig{Mode: StoreModeRedis}}, StoreBootstrapErrorMissingConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := openStore(tc.cfg, logger.Nop(), true)
			var got *StoreBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StoreBootstrapError, got=%T (%v)", err, err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if storeBootstrapErrorCode(err) != tc.want {
				t.Fatalf("storeBootstrapErrorCode: want=%q got=%q", tc.want, storeBootstrapErrorCode(err))
			}
		})
	}
}

func TestStoreBootstrapErrorCodeDefaultsToConnectFailed(t *testing.T) {
	if got := storeBootstrapErrorCode(errors.New("boom")); got != StoreBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StoreBootstrapErrorConnectFailed, got)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Store: StoreConfig{Mode: StoreModeSQLite, SQLitePath: filepath.Join(t.TempDir(), "notes.db")}}

	h, err := openStore(cfg, logger.Nop(), true)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	repo := lessons.NewLessonRepo(ctx, h.Store, logger.Nop(), lessons.Options{})
	added, err := repo.Add(ctx, types.LessonDraft{Title: "Cells", Notes: "Mitochondria", ImageURLs: []string{"a.png"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	h2, err := openStore(cfg, logger.Nop(), true)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h2.Close()
	reloaded := lessons.NewLessonRepo(ctx, h2.Store, logger.Nop(), lessons.Options{})
	got, ok := reloaded.Get(ctx, added.ID)
	if !ok {
		t.Fatalf("lesson %s missing after reopen", added.ID)
	}
	if got.Title != "Cells" || got.Notes != "Mitochondria" || len(got.ImageURLs) != 1 || !got.CreatedAt.Equal(added.CreatedAt) {
		t.Fatalf("reloaded lesson differs: %+v", got)
	}
}
