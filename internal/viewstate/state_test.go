package viewstate

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	types "github.com/yungbote/studynotes-backend/internal/domain"
)

func lesson(id, notes string) types.Lesson {
	return types.Lesson{ID: id, Title: "t-" + id, Notes: notes, CreatedAt: time.Now().UTC(), MCQs: []types.MCQ{}, ImageURLs: []string{}}
}

func TestBootOnlyLeavesLoading(t *testing.T) {
	s := Initial()
	if s.Screen != ScreenLoading {
		t.Fatalf("initial screen: want=loading got=%s", s.Screen)
	}
	s = s.Boot()
	if s.Screen != ScreenList {
		t.Fatalf("after boot: want=list got=%s", s.Screen)
	}
	d := s.Select(lesson("a", "")).Boot()
	if d.Screen != ScreenDetail {
		t.Fatalf("boot on detail should be a no-op")
	}
}

func TestTransitionsDoNotMutateReceiver(t *testing.T) {
	base := Initial().Boot().Select(lesson("a", "n"))
	k := Key{"a", ActionMCQs}

	busy := base.StartBusy(k)
	if base.IsBusy("a", ActionMCQs) {
		t.Fatalf("StartBusy mutated its receiver")
	}
	revealed := busy.ToggleReveal("a", 2)
	if busy.IsRevealed("a", 2) {
		t.Fatalf("ToggleReveal mutated its receiver")
	}
	revealed.Selected.Title = "changed"
	if busy.Selected.Title == "changed" {
		t.Fatalf("selected lesson shared between states")
	}
	if revealed.Version <= base.Version {
		t.Fatalf("version should increase: %d -> %d", base.Version, revealed.Version)
	}
}

func TestSelectAndBack(t *testing.T) {
	s := Initial().Boot().Select(lesson("a", "n")).ToggleReveal("a", 0).Failed(Key{"a", ActionFeedback}, "x")
	if s.Screen != ScreenDetail || s.Selected.ID != "a" {
		t.Fatalf("select: %+v", s)
	}
	b := s.Back()
	if b.Screen != ScreenList || b.Selected != nil || len(b.Revealed) != 0 || len(b.Errors) != 0 {
		t.Fatalf("back should clear detail state: %+v", b)
	}
}

func TestDeletedSelectedReturnsToList(t *testing.T) {
	k := Key{"a", ActionMCQs}
	s := Initial().Boot().Select(lesson("a", "n")).RequestDelete("a").StartBusy(k).ToggleReveal("a", 1)
	d := s.Deleted("a")
	if d.Screen != ScreenList || d.Selected != nil || d.PendingDelete != "" {
		t.Fatalf("unexpected state after delete: screen=%s selected=%v pending=%q", d.Screen, d.Selected, d.PendingDelete)
	}
	if d.IsBusy("a", ActionMCQs) || d.IsRevealed("a", 1) {
		t.Fatalf("per-lesson state not cleared")
	}

	other := Initial().Boot().Select(lesson("b", "n")).Deleted("a")
	if other.Screen != ScreenDetail || other.Selected.ID != "b" {
		t.Fatalf("deleting another lesson should keep the detail view")
	}
}

func TestRefreshedOnlyTouchesSelected(t *testing.T) {
	s := Initial().Boot().Select(lesson("a", "old"))
	if got := s.Refreshed(lesson("b", "new")); got.Selected.Notes != "old" {
		t.Fatalf("refresh of another lesson changed selection")
	}
	if got := s.Refreshed(lesson("a", "new")); got.Selected.Notes != "new" {
		t.Fatalf("refresh of selected lesson not applied")
	}
}

func TestToggleRevealTwiceHides(t *testing.T) {
	s := Initial().ToggleReveal("a", 0).ToggleReveal("a", 0)
	if s.IsRevealed("a", 0) {
		t.Fatalf("second toggle should hide the answer")
	}
}

func TestModalLifecycle(t *testing.T) {
	s := Initial().Boot().OpenModal().FormChanged(types.LessonDraft{Title: "x"}).DraftStarted()
	if !s.ModalOpen || !s.Form.Busy || s.Form.Draft.Title != "x" {
		t.Fatalf("unexpected form: %+v", s.Form)
	}
	s = s.DraftFilled("Photosynthesis", "PHOTOSYNTHESIS")
	if s.Form.Busy || s.Form.Draft.Notes != "PHOTOSYNTHESIS" || s.Form.Draft.Title != "x" {
		t.Fatalf("draft fill: %+v", s.Form)
	}
	if got := Initial().OpenModal().DraftFilled(" Photosynthesis ", "n"); got.Form.Draft.Title != "Photosynthesis" {
		t.Fatalf("blank title should take the topic, got %q", got.Form.Draft.Title)
	}
	closed := s.CloseModal()
	if closed.ModalOpen || closed.Form.Draft.Title != "" {
		t.Fatalf("close should reset the form")
	}
}

func TestStateJSONIsStable(t *testing.T) {
	s := Initial().Boot().
		StartBusy(Key{"b", ActionFeedback}).
		StartBusy(Key{"a", ActionMCQs}).
		Failed(Key{"c", ActionMCQs}, "Failed to generate multiple-choice questions. Please try again.").
		ToggleReveal("a", 3).ToggleReveal("a", 1)

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(raw)
	for _, want := range []string{
		`"screen":"list"`,
		`"busy":[{"lessonId":"a","action":"mcqs"},{"lessonId":"b","action":"feedback"}]`,
		`"revealed":{"a":[1,3]}`,
		`"selected":null`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("json missing %s: %s", want, got)
		}
	}
}
