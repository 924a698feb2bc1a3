package lessons

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/studynotes-backend/internal/data/db/dbtest"
	"github.com/yungbote/studynotes-backend/internal/data/kvstore"
	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type flakyBackend struct {
	kvstore.Backend
	fail bool
}

func (f *flakyBackend) Write(ctx context.Context, key string, value []byte, expect kvstore.Version) (kvstore.Version, error) {
	if f.fail {
		return kvstore.NoVersion, errors.New("quota exceeded")
	}
	return f.Backend.Write(ctx, key, value, expect)
}

func newTestRepo(t *testing.T, b kvstore.Backend) (LessonRepo, *kvstore.Store) {
	t.Helper()
	store := kvstore.New(b, logger.Nop())
	clock := &stepClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	return NewLessonRepo(context.Background(), store, logger.Nop(), Options{Now: clock.Now}), store
}

func mirror(t *testing.T, store *kvstore.Store) Collection {
	t.Helper()
	var c Collection
	if _, ok := store.Get(context.Background(), StoreKey, &c); !ok {
		t.Fatalf("store has no %q key", StoreKey)
	}
	return c
}

func TestAddInitializesGeneratedFields(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t, kvstore.NewMemoryBackend())

	l, err := repo.Add(ctx, types.LessonDraft{Title: " Cell Biology ", Notes: "", Course: "Bio101", ImageURLs: []string{"data:image/png;base64,AAA"}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if l.ID == "" || l.Title != "Cell Biology" || l.Course != "Bio101" {
		t.Fatalf("unexpected lesson: %+v", l)
	}
	if len(l.MCQs) != 0 || l.MCQs == nil {
		t.Fatalf("mcqs should be an empty slice, got %#v", l.MCQs)
	}
	if l.Feedback != nil {
		t.Fatalf("feedback should be absent")
	}
	if l.CreatedAt.IsZero() {
		t.Fatalf("createdAt not set")
	}

	got := mirror(t, store)
	if len(got) != 1 || got[0].ID != l.ID {
		t.Fatalf("mirror not flushed: %+v", got)
	}
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	repo, _ := newTestRepo(t, kvstore.NewMemoryBackend())
	if _, err := repo.Add(context.Background(), types.LessonDraft{Title: "   "}); !errors.Is(err, types.ErrEmptyTitle) {
		t.Fatalf("want ErrEmptyTitle, got %v", err)
	}
	if n := len(repo.List(context.Background())); n != 0 {
		t.Fatalf("nothing should be added, got %d", n)
	}
}

func TestAddIgnoresDraftMutationsAfterCall(t *testing.T) {
	repo, _ := newTestRepo(t, kvstore.NewMemoryBackend())
	imgs := []string{"a"}
	l, _ := repo.Add(context.Background(), types.LessonDraft{Title: "t", ImageURLs: imgs})
	imgs[0] = "b"
	got, _ := repo.Get(context.Background(), l.ID)
	if got.ImageURLs[0] != "a" {
		t.Fatalf("repo shares the draft's image slice")
	}
}

func TestUniqueIDsWithDefaultGenerator(t *testing.T) {
	store := kvstore.New(kvstore.NewMemoryBackend(), logger.Nop())
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewLessonRepo(context.Background(), store, logger.Nop(), Options{Now: func() time.Time { return fixed }})
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		l, err := repo.Add(context.Background(), types.LessonDraft{Title: "same tick"})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if seen[l.ID] {
			t.Fatalf("duplicate id %s", l.ID)
		}
		seen[l.ID] = true
	}
}

func TestCollidingIDGeneratorIsRetried(t *testing.T) {
	ids := []string{"a", "a", "b"}
	next := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	store := kvstore.New(kvstore.NewMemoryBackend(), logger.Nop())
	repo := NewLessonRepo(context.Background(), store, logger.Nop(), Options{NewID: next})
	first, _ := repo.Add(context.Background(), types.LessonDraft{Title: "1"})
	second, _ := repo.Add(context.Background(), types.LessonDraft{Title: "2"})
	if first.ID != "a" || second.ID != "b" {
		t.Fatalf("want a,b got %s,%s", first.ID, second.ID)
	}
}

func TestUpdateReplacesByIDAndKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t, kvstore.NewMemoryBackend())
	l, _ := repo.Add(ctx, types.LessonDraft{Title: "Cell Biology"})

	changed := l
	changed.Notes = "Mitochondria is the powerhouse of the cell."
	changed.CreatedAt = time.Time{}
	if _, err := repo.Update(ctx, changed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, ok := repo.Get(ctx, l.ID)
	if !ok || got.Notes != changed.Notes {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.CreatedAt.Equal(l.CreatedAt) {
		t.Fatalf("createdAt changed: %s -> %s", l.CreatedAt, got.CreatedAt)
	}
	if m := mirror(t, store); m[0].Notes != changed.Notes {
		t.Fatalf("mirror not updated")
	}
}

func TestUpdateUnknownIDIsNotFound(t *testing.T) {
	repo, _ := newTestRepo(t, kvstore.NewMemoryBackend())
	_, err := repo.Update(context.Background(), types.Lesson{ID: "nope", Title: "x"})
	if !errors.Is(err, types.ErrLessonNotFound) {
		t.Fatalf("want ErrLessonNotFound, got %v", err)
	}
}

func TestEditMergesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, kvstore.NewMemoryBackend())
	l, _ := repo.Add(ctx, types.LessonDraft{Title: "t", Notes: "n", Course: "c"})
	fb := "keep me"
	withFb, _ := repo.Update(ctx, l.WithFeedback(fb))

	notes := "new notes"
	got, err := repo.Edit(ctx, l.ID, types.LessonEdit{Notes: &notes})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.Notes != notes || got.Title != "t" || got.Course != "c" || got.Feedback == nil || *got.Feedback != *withFb.Feedback {
		t.Fatalf("unexpected edit result: %+v", got)
	}
	if _, err := repo.Edit(ctx, "missing", types.LessonEdit{Notes: &notes}); !errors.Is(err, types.ErrLessonNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestRemoveDeletesFromListAndMirror(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t, kvstore.NewMemoryBackend())
	a, _ := repo.Add(ctx, types.LessonDraft{Title: "a"})
	b, _ := repo.Add(ctx, types.LessonDraft{Title: "b"})

	if err := repo.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	list := repo.List(ctx)
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("list still has removed lesson: %+v", list)
	}
	for _, l := range mirror(t, store) {
		if l.ID == a.ID {
			t.Fatalf("mirror still has removed lesson")
		}
	}
	if err := repo.Remove(ctx, a.ID); !errors.Is(err, types.ErrLessonNotFound) {
		t.Fatalf("second remove: want not found, got %v", err)
	}
}

func TestListSortedNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, kvstore.NewMemoryBackend())
	for i := 0; i < 5; i++ {
		if _, err := repo.Add(ctx, types.LessonDraft{Title: fmt.Sprintf("l%d", i)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	list := repo.List(ctx)
	for i := 1; i < len(list); i++ {
		if list[i-1].CreatedAt.Before(list[i].CreatedAt) {
			t.Fatalf("not sorted desc at %d: %s < %s", i, list[i-1].CreatedAt, list[i].CreatedAt)
		}
	}
	if list[0].Title != "l4" {
		t.Fatalf("newest should be first, got %s", list[0].Title)
	}
}

// Random add/update/remove sequences keep List equal to a simple model.
func TestRandomOperationSequencesMatchModel(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	repo, store := newTestRepo(t, kvstore.NewMemoryBackend())
	model := map[string]types.Lesson{}

	for step := 0; step < 300; step++ {
		ids := make([]string, 0, len(model))
		for id := range model {
			ids = append(ids, id)
		}
		switch op := rng.Intn(3); {
		case op == 0 || len(ids) == 0:
			l, err := repo.Add(ctx, types.LessonDraft{Title: fmt.Sprintf("t%d", step), Notes: fmt.Sprintf("n%d", step)})
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			model[l.ID] = l
		case op == 1:
			id := ids[rng.Intn(len(ids))]
			l := model[id]
			l.Notes = fmt.Sprintf("edited %d", step)
			if _, err := repo.Update(ctx, l); err != nil {
				t.Fatalf("Update: %v", err)
			}
			model[id] = l
		default:
			id := ids[rng.Intn(len(ids))]
			if err := repo.Remove(ctx, id); err != nil {
				t.Fatalf("Remove: %v", err)
			}
			delete(model, id)
		}
	}

	list := repo.List(ctx)
	if len(list) != len(model) {
		t.Fatalf("len: want=%d got=%d", len(model), len(list))
	}
	for i, l := range list {
		want, ok := model[l.ID]
		if !ok {
			t.Fatalf("unexpected lesson %s", l.ID)
		}
		if l.Notes != want.Notes || l.Title != want.Title {
			t.Fatalf("lesson %s does not reflect latest update", l.ID)
		}
		if i > 0 && list[i-1].CreatedAt.Before(l.CreatedAt) {
			t.Fatalf("order broken at %d", i)
		}
	}

	// Reloading from the mirror yields the identical collection.
	reloaded := NewLessonRepo(ctx, store, logger.Nop(), Options{})
	if !reflect.DeepEqual(reloaded.List(ctx), list) {
		t.Fatalf("reload mismatch")
	}
}

func TestRoundTripPreservesEveryField(t *testing.T) {
	ctx := context.Background()
	repo, store := newTestRepo(t, kvstore.NewMemoryBackend())
	l, _ := repo.Add(ctx, types.LessonDraft{Title: "Cell Biology", Notes: "notes", Course: "Bio101", ImageURLs: []string{"https://x/y.png"}})
	l = l.WithMCQs([]types.MCQ{{Question: "q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "b"}}).WithFeedback("more detail")
	if _, err := repo.Update(ctx, l); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := NewLessonRepo(ctx, store, logger.Nop(), Options{})
	got, ok := reloaded.Get(ctx, l.ID)
	if !ok {
		t.Fatalf("lesson missing after reload")
	}
	if !reflect.DeepEqual(got, l) {
		t.Fatalf("round trip mismatch:\nwant=%+v\ngot =%+v", l, got)
	}
}

func TestWriteFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	b := &flakyBackend{Backend: kvstore.NewMemoryBackend()}
	repo, _ := newTestRepo(t, b)

	b.fail = true
	l, err := repo.Add(ctx, types.LessonDraft{Title: "offline"})
	if err != nil {
		t.Fatalf("Add should not surface storage errors: %v", err)
	}
	if _, ok := repo.Get(ctx, l.ID); !ok {
		t.Fatalf("in-memory add lost")
	}
	if !types.IsStorage(repo.LastStorageError()) {
		t.Fatalf("LastStorageError: want StorageError, got %v", repo.LastStorageError())
	}

	b.fail = false
	if _, err := repo.Add(ctx, types.LessonDraft{Title: "online"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if repo.LastStorageError() != nil {
		t.Fatalf("successful flush should clear LastStorageError")
	}
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryBackend(), logger.Nop())
	now := time.Now().UTC()
	seed := Collection{
		{ID: "a", Title: "first", CreatedAt: now},
		{ID: "a", Title: "dup", CreatedAt: now},
		{ID: "", Title: "no id", CreatedAt: now},
	}
	if _, err := store.Set(ctx, StoreKey, seed, kvstore.NoVersion); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := NewLessonRepo(ctx, store, logger.Nop(), Options{})
	list := repo.List(ctx)
	if len(list) != 1 || list[0].Title != "first" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if list[0].MCQs == nil || list[0].ImageURLs == nil {
		t.Fatalf("loaded lesson should have non-nil slices")
	}
}

func TestCancelledRequestStillFlushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := kvstore.New(kvstore.NewGormBackend(dbtest.SQLite(t)), logger.Nop())
	repo := NewLessonRepo(context.Background(), store, logger.Nop(), Options{})

	l, err := repo.Add(ctx, types.LessonDraft{Title: "Cell Biology"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.LastStorageError(); err != nil {
		t.Fatalf("LastStorageError: want=nil got=%v", err)
	}
	reloaded := NewLessonRepo(context.Background(), store, logger.Nop(), Options{})
	if _, ok := reloaded.Get(context.Background(), l.ID); !ok {
		t.Fatalf("lesson added under a cancelled context was not persisted")
	}
}

// Two processes on one store, e.g. the CLI next to a running server.
func TestSecondWriterDoesNotOverwriteFirst(t *testing.T) {
	backends := map[string]kvstore.Backend{
		"memory": kvstore.NewMemoryBackend(),
		"sqlite": kvstore.NewGormBackend(dbtest.SQLite(t)),
	}
	for name, b := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := kvstore.New(b, logger.Nop())
			server := NewLessonRepo(ctx, store, logger.Nop(), Options{})
			cli := NewLessonRepo(ctx, store, logger.Nop(), Options{})

			fromCLI, err := cli.Add(ctx, types.LessonDraft{Title: "from cli"})
			if err != nil {
				t.Fatalf("cli Add: %v", err)
			}
			fromServer, err := server.Add(ctx, types.LessonDraft{Title: "from server"})
			if err != nil {
				t.Fatalf("server Add: %v", err)
			}
			if err := server.LastStorageError(); err != nil {
				t.Fatalf("server flush: %v", err)
			}
			if n := len(server.List(ctx)); n != 2 {
				t.Fatalf("server view after reload: want=2 got=%d", n)
			}

			stored := mirror(t, store)
			if len(stored) != 2 || stored.Index(fromCLI.ID) < 0 || stored.Index(fromServer.ID) < 0 {
				t.Fatalf("stored: want both lessons got %+v", stored)
			}
		})
	}
}

func TestStaleWriterSeesRemoteDelete(t *testing.T) {
	ctx := context.Background()
	store := kvstore.New(kvstore.NewMemoryBackend(), logger.Nop())
	server := NewLessonRepo(ctx, store, logger.Nop(), Options{})
	l, _ := server.Add(ctx, types.LessonDraft{Title: "shared", Notes: "n"})

	cli := NewLessonRepo(ctx, store, logger.Nop(), Options{})
	if err := cli.Remove(ctx, l.ID); err != nil {
		t.Fatalf("cli Remove: %v", err)
	}

	notes := "edited on the server"
	if _, err := server.Edit(ctx, l.ID, types.LessonEdit{Notes: &notes}); !errors.Is(err, types.ErrLessonNotFound) {
		t.Fatalf("Edit after remote delete: want ErrLessonNotFound got %v", err)
	}
	if len(server.List(ctx)) != 0 {
		t.Fatalf("server should have picked up the delete")
	}
	if len(mirror(t, store)) != 0 {
		t.Fatalf("deleted lesson written back")
	}
}

func TestConcurrentEditsOfDifferentFieldsAreKept(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t, kvstore.NewMemoryBackend())

	ids := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		l, err := repo.Add(ctx, types.LessonDraft{Title: fmt.Sprintf("l%d", i)})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids = append(ids, l.ID)
	}

	notes, course := "written notes", "Bio101"
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			if _, err := repo.Edit(ctx, id, types.LessonEdit{Notes: &notes}); err != nil {
				t.Errorf("Edit notes: %v", err)
			}
		}(id)
		go func(id string) {
			defer wg.Done()
			if _, err := repo.Edit(ctx, id, types.LessonEdit{Course: &course}); err != nil {
				t.Errorf("Edit course: %v", err)
			}
		}(id)
	}
	wg.Wait()

	for _, id := range ids {
		l, _ := repo.Get(ctx, id)
		if l.Notes != notes || l.Course != course {
			t.Fatalf("lost edit on %s: notes=%q course=%q", id, l.Notes, l.Course)
		}
	}
}
