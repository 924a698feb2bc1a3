package lessons

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studynotes-backend/internal/data/kvstore"
	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

// StoreKey is the persistent-store key holding the whole collection.
const StoreKey = "lessons"

type LessonRepo interface {
	Add(ctx context.Context, draft types.LessonDraft) (types.Lesson, error)
	Update(ctx context.Context, lesson types.Lesson) (types.Lesson, error)
	Edit(ctx context.Context, id string, edit types.LessonEdit) (types.Lesson, error)
	Remove(ctx context.Context, id string) error

	List(ctx context.Context) []types.Lesson
	Get(ctx context.Context, id string) (types.Lesson, bool)

	// LastStorageError is the most recent tolerated write failure, nil after a
	// successful flush.
	LastStorageError() error
}

type Options struct {
	Now   func() time.Time
	NewID func() string
}

const (
	// flushTimeout bounds a mirror write that outlives its request.
	flushTimeout = 10 * time.Second
	// maxFlushAttempts is how often a mutation is replayed after another writer
	// changed the store underneath it.
	maxFlushAttempts = 3
)

type lessonRepo struct {
	mu      sync.RWMutex
	lessons Collection
	version kvstore.Version
	lastErr error

	store *kvstore.Store
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

// NewLessonRepo loads the collection from the store once. A missing or unreadable
// value starts an empty collection.
func NewLessonRepo(ctx context.Context, store *kvstore.Store, baseLog *logger.Logger, opts Options) LessonRepo {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	r := &lessonRepo{
		store: store,
		log:   baseLog.With("repo", "LessonRepo"),
		now:   opts.Now,
		newID: opts.NewID,
	}
	if r.now == nil {
		r.now = func() time.Time { return time.Now().UTC() }
	}
	if r.newID == nil {
		r.newID = func() string { return uuid.New().String() }
	}
	r.load(ctx)
	r.log.Info("Lessons loaded", "count", len(r.lessons), "version", int64(r.version))
	return r
}

// load replaces the in-memory collection with the stored one. Caller holds r.mu or
// owns r exclusively.
func (r *lessonRepo) load(ctx context.Context) {
	var c Collection
	r.version, _ = r.store.Get(ctx, StoreKey, &c)
	r.lessons = r.dedupe(c)
}

func (r *lessonRepo) dedupe(c Collection) Collection {
	seen := make(map[string]bool, len(c))
	out := make(Collection, 0, len(c))
	for _, l := range c {
		if l.ID == "" || seen[l.ID] {
			r.log.Warn("Dropping stored lesson with missing or duplicate id", "lesson_id", l.ID)
			continue
		}
		seen[l.ID] = true
		if l.MCQs == nil {
			l.MCQs = []types.MCQ{}
		}
		if l.ImageURLs == nil {
			l.ImageURLs = []string{}
		}
		out = append(out, l)
	}
	return out
}

func (r *lessonRepo) Add(ctx context.Context, draft types.LessonDraft) (types.Lesson, error) {
	if err := draft.Validate(); err != nil {
		return types.Lesson{}, err
	}
	images := make([]string, len(draft.ImageURLs))
	copy(images, draft.ImageURLs)

	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt := r.now()
	return r.apply(ctx, "add", func(c Collection) (Collection, types.Lesson, error) {
		id := r.newID()
		for c.Index(id) >= 0 {
			id = r.newID()
		}
		l := types.Lesson{
			ID:        id,
			Title:     strings.TrimSpace(draft.Title),
			Notes:     draft.Notes,
			ImageURLs: append([]string{}, images...),
			Course:    strings.TrimSpace(draft.Course),
			CreatedAt: createdAt,
			MCQs:      []types.MCQ{},
			Feedback:  nil,
		}
		return Added(c, l), l, nil
	})
}

func (r *lessonRepo) Update(ctx context.Context, lesson types.Lesson) (types.Lesson, error) {
	if strings.TrimSpace(lesson.Title) == "" {
		return types.Lesson{}, types.ErrEmptyTitle
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(ctx, "update", func(c Collection) (Collection, types.Lesson, error) {
		return replaced(c, lesson.Clone())
	})
}

func (r *lessonRepo) Edit(ctx context.Context, id string, edit types.LessonEdit) (types.Lesson, error) {
	if err := edit.Validate(); err != nil {
		return types.Lesson{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.apply(ctx, "edit", func(c Collection) (Collection, types.Lesson, error) {
		i := c.Index(id)
		if i < 0 {
			return nil, types.Lesson{}, types.ErrLessonNotFound
		}
		return replaced(c, edit.Apply(c[i].Clone()))
	})
}

// replaced swaps lesson into c by id. id and createdAt are immutable.
func replaced(c Collection, lesson types.Lesson) (Collection, types.Lesson, error) {
	i := c.Index(lesson.ID)
	if i < 0 {
		return nil, types.Lesson{}, types.ErrLessonNotFound
	}
	lesson.CreatedAt = c[i].CreatedAt
	if lesson.MCQs == nil {
		lesson.MCQs = []types.MCQ{}
	}
	if lesson.ImageURLs == nil {
		lesson.ImageURLs = []string{}
	}
	next, _ := Updated(c, lesson)
	return next, lesson, nil
}

func (r *lessonRepo) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.apply(ctx, "remove", func(c Collection) (Collection, types.Lesson, error) {
		next, ok := Removed(c, id)
		if !ok {
			return nil, types.Lesson{}, types.ErrLessonNotFound
		}
		return next, types.Lesson{ID: id}, nil
	})
	return err
}

func (r *lessonRepo) List(ctx context.Context) []types.Lesson {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Sorted(r.lessons)
}

func (r *lessonRepo) Get(ctx context.Context, id string) (types.Lesson, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.lessons.Index(id)
	if i < 0 {
		return types.Lesson{}, false
	}
	return r.lessons[i].Clone(), true
}

func (r *lessonRepo) LastStorageError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

type mutation func(c Collection) (Collection, types.Lesson, error)

// apply runs fn on the collection and mirrors the result, expecting the version it
// last saw. When another process wrote the key in between, the stored collection is
// reloaded and fn runs again on it. Any other write failure is logged and the
// in-memory change stands. Caller holds r.mu.
func (r *lessonRepo) apply(ctx context.Context, op string, fn mutation) (types.Lesson, error) {
	// The write must land even if the caller's request is cancelled meanwhile.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	for attempt := 1; ; attempt++ {
		next, l, err := fn(r.lessons)
		if err != nil {
			return types.Lesson{}, err
		}
		v, err := r.store.Set(wctx, StoreKey, next, r.version)
		switch {
		case err == nil:
			r.lessons, r.version, r.lastErr = next, v, nil
			r.log.Debug("Lessons flushed", "op", op, "lesson_id", l.ID, "count", len(next), "version", int64(v))
			return l.Clone(), nil
		case errors.Is(err, kvstore.ErrVersionConflict) && attempt < maxFlushAttempts:
			r.log.Info("Lesson store changed by another writer, reloading", "op", op, "attempt", attempt)
			r.load(wctx)
		default:
			r.lessons, r.lastErr = next, err
			r.log.Error("Lesson mirror write failed", "op", op, "lesson_id", l.ID, "error", err)
			return l.Clone(), nil
		}
	}
}
