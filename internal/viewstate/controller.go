package viewstate

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/studynotes-backend/internal/data/repos/lessons"
	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/services"
)

var ErrQuestionNotFound = types.NewValidationError("Question not found")

type EventType string

const (
	EventStateChanged  EventType = "ViewStateChanged"
	EventLessonCreated EventType = "LessonCreated"
	EventLessonUpdated EventType = "LessonUpdated"
	EventLessonDeleted EventType = "LessonDeleted"
)

type Event struct {
	Type     EventType     `json:"type"`
	State    *State        `json:"state,omitempty"`
	Lesson   *types.Lesson `json:"lesson,omitempty"`
	LessonID string        `json:"lessonId,omitempty"`
}

// Publisher receives every event in order. Publish is called with the controller lock
// held and must not block.
type Publisher interface {
	Publish(ev Event)
}

type PublisherFunc func(ev Event)

func (f PublisherFunc) Publish(ev Event) { f(ev) }

type Options struct {
	SplashDelay time.Duration
}

// Controller owns the current State and runs the side effects behind each user action.
// Gateway calls run without the lock; the busy set allows one request per
// (lesson, action).
type Controller struct {
	mu    sync.Mutex
	state State
	// formEpoch changes whenever the modal opens or closes so late drafts are dropped.
	formEpoch uint64

	repo   lessons.LessonRepo
	gen    services.GenerationService
	pub    Publisher
	log    *logger.Logger
	splash time.Duration
}

func NewController(repo lessons.LessonRepo, gen services.GenerationService, pub Publisher, baseLog *logger.Logger, opts Options) *Controller {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	if pub == nil {
		pub = PublisherFunc(func(Event) {})
	}
	return &Controller{
		state:  Initial(),
		repo:   repo,
		gen:    gen,
		pub:    pub,
		log:    baseLog.With("service", "ViewController"),
		splash: opts.SplashDelay,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Lessons(ctx context.Context) []types.Lesson {
	return c.repo.List(ctx)
}

func (c *Controller) Lesson(ctx context.Context, id string) (types.Lesson, error) {
	l, ok := c.repo.Get(ctx, id)
	if !ok {
		return types.Lesson{}, types.ErrLessonNotFound
	}
	return l, nil
}

// set installs next and publishes it. Caller holds c.mu.
func (c *Controller) set(next State) State {
	c.state = next
	st := next
	c.pub.Publish(Event{Type: EventStateChanged, State: &st})
	return next
}

func (c *Controller) emit(t EventType, l *types.Lesson, id string) {
	c.pub.Publish(Event{Type: t, Lesson: l, LessonID: id})
}

// Start waits out the splash delay and shows the list. It returns early with the
// context error if ctx ends first.
func (c *Controller) Start(ctx context.Context) error {
	if c.splash > 0 {
		t := time.NewTimer(c.splash)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Screen == ScreenLoading {
		c.set(c.state.Boot())
		c.log.Info("View ready", "lessons", len(c.repo.List(ctx)))
	}
	return nil
}

func (c *Controller) SelectLesson(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.repo.Get(ctx, id)
	if !ok {
		return c.state, types.ErrLessonNotFound
	}
	return c.set(c.state.Select(l)), nil
}

func (c *Controller) Back() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(c.state.Back())
}

func (c *Controller) OpenCreate() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formEpoch++
	return c.set(c.state.OpenModal())
}

func (c *Controller) CloseCreate() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.formEpoch++
	return c.set(c.state.CloseModal())
}

func (c *Controller) UpdateForm(d types.LessonDraft) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(c.state.FormChanged(d))
}

// SubmitCreate adds the lesson, closes the modal and returns to the list. A blank
// title keeps the modal open with the error on the form.
func (c *Controller) SubmitCreate(ctx context.Context, d types.LessonDraft) (types.Lesson, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, err := c.repo.Add(ctx, d)
	if err != nil {
		if c.state.ModalOpen {
			c.set(c.state.FormFailed(types.UserMessage(err)))
		}
		return types.Lesson{}, err
	}
	c.formEpoch++
	c.emit(EventLessonCreated, &l, l.ID)
	c.set(c.state.Submitted())
	c.log.Info("Lesson created", "lesson_id", l.ID)
	return l, nil
}

// DraftNotes fills the create form's notes from a topic. The result is dropped if the
// modal was closed or reopened meanwhile.
func (c *Controller) DraftNotes(ctx context.Context, topic string) (string, error) {
	c.mu.Lock()
	if c.state.Form.Busy {
		c.mu.Unlock()
		return "", types.ErrGenerationInFlight
	}
	epoch := c.formEpoch
	c.set(c.state.DraftStarted())
	c.mu.Unlock()

	text, err := c.gen.GenerateNotes(ctx, topic)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.formEpoch {
		return text, err
	}
	if err != nil {
		c.set(c.state.FormFailed(types.UserMessage(err)))
		return "", err
	}
	c.set(c.state.DraftFilled(topic, text))
	return text, nil
}

func (c *Controller) EditLesson(ctx context.Context, id string, edit types.LessonEdit) (types.Lesson, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, err := c.repo.Edit(ctx, id, edit)
	if err != nil {
		return types.Lesson{}, err
	}
	c.emit(EventLessonUpdated, &l, l.ID)
	c.set(c.state.Refreshed(l))
	return l, nil
}

func (c *Controller) RequestDelete(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.repo.Get(ctx, id); !ok {
		return c.state, types.ErrLessonNotFound
	}
	return c.set(c.state.RequestDelete(id)), nil
}

func (c *Controller) CancelDelete() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set(c.state.CancelDelete())
}

func (c *Controller) ConfirmDelete(ctx context.Context) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.state.PendingDelete
	if id == "" {
		return c.state, types.ErrNoPendingDelete
	}
	return c.deleteLocked(ctx, id)
}

// DeleteLesson deletes without the confirmation step.
func (c *Controller) DeleteLesson(ctx context.Context, id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteLocked(ctx, id)
}

func (c *Controller) deleteLocked(ctx context.Context, id string) (State, error) {
	if err := c.repo.Remove(ctx, id); err != nil {
		if id == c.state.PendingDelete {
			c.set(c.state.CancelDelete())
		}
		return c.state, err
	}
	c.emit(EventLessonDeleted, nil, id)
	c.log.Info("Lesson deleted", "lesson_id", id)
	return c.set(c.state.Deleted(id)), nil
}

func (c *Controller) GenerateMCQs(ctx context.Context, id string) (types.Lesson, error) {
	return c.generate(ctx, id, ActionMCQs, types.ErrNotesRequiredForMCQs, func(ctx context.Context, l types.Lesson) (func(types.Lesson) types.Lesson, error) {
		qs, err := c.gen.GenerateMCQs(ctx, l.Notes)
		if err != nil {
			return nil, err
		}
		return func(cur types.Lesson) types.Lesson { return cur.WithMCQs(qs) }, nil
	})
}

func (c *Controller) GenerateFeedback(ctx context.Context, id string) (types.Lesson, error) {
	return c.generate(ctx, id, ActionFeedback, types.ErrNotesRequiredForFeedback, func(ctx context.Context, l types.Lesson) (func(types.Lesson) types.Lesson, error) {
		text, err := c.gen.GenerateFeedback(ctx, l.Notes)
		if err != nil {
			return nil, err
		}
		return func(cur types.Lesson) types.Lesson { return cur.WithFeedback(text) }, nil
	})
}

type generateFunc func(ctx context.Context, l types.Lesson) (merge func(types.Lesson) types.Lesson, err error)

// generate runs one gateway call for (id, action). The result is merged into the
// lesson as stored when the call returns, so edits made meanwhile are kept.
func (c *Controller) generate(ctx context.Context, id string, action Action, emptyNotes error, run generateFunc) (types.Lesson, error) {
	key := Key{LessonID: id, Action: action}

	c.mu.Lock()
	l, ok := c.repo.Get(ctx, id)
	if !ok {
		c.mu.Unlock()
		return types.Lesson{}, types.ErrLessonNotFound
	}
	if c.state.Busy[key] {
		c.mu.Unlock()
		return types.Lesson{}, types.ErrGenerationInFlight
	}
	if !l.HasNotes() {
		c.set(c.state.Failed(key, emptyNotes.Error()))
		c.mu.Unlock()
		return types.Lesson{}, emptyNotes
	}
	c.set(c.state.StartBusy(key))
	c.mu.Unlock()

	merge, err := run(ctx, l)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.log.Warn("Generation failed", "lesson_id", id, "action", string(action), "error", err)
		c.set(c.state.Failed(key, types.UserMessage(err)))
		return types.Lesson{}, err
	}
	cur, ok := c.repo.Get(ctx, id)
	if !ok {
		c.set(c.state.FinishBusy(key))
		return types.Lesson{}, types.ErrLessonNotFound
	}
	saved, err := c.repo.Update(ctx, merge(cur))
	if err != nil {
		c.set(c.state.Failed(key, types.UserMessage(err)))
		return types.Lesson{}, err
	}
	next := c.state.FinishBusy(key).Refreshed(saved)
	if action == ActionMCQs {
		next = next.ResetReveal(id)
	}
	c.emit(EventLessonUpdated, &saved, saved.ID)
	c.set(next)
	return saved, nil
}

func (c *Controller) ToggleAnswer(ctx context.Context, id string, index int) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.repo.Get(ctx, id)
	if !ok {
		return c.state, types.ErrLessonNotFound
	}
	if index < 0 || index >= len(l.MCQs) {
		return c.state, ErrQuestionNotFound
	}
	return c.set(c.state.ToggleReveal(id, index)), nil
}
