package viewstate

import (
	"encoding/json"
	"sort"
	"strings"

	types "github.com/yungbote/studynotes-backend/internal/domain"
)

type Screen string

const (
	ScreenLoading Screen = "loading"
	ScreenList    Screen = "list"
	ScreenDetail  Screen = "detail"
)

type Action string

const (
	ActionMCQs     Action = "mcqs"
	ActionFeedback Action = "feedback"
)

// Key scopes busy flags and error messages to one control on one lesson.
type Key struct {
	LessonID string `json:"lessonId"`
	Action   Action `json:"action"`
}

// Form is the create-lesson modal.
type Form struct {
	Draft types.LessonDraft `json:"draft"`
	// Busy is true while notes are being drafted from a topic.
	Busy  bool   `json:"busy"`
	Error string `json:"error,omitempty"`
}

// State is a value. Transitions return a new State and never modify the receiver.
type State struct {
	Version       uint64
	Screen        Screen
	ModalOpen     bool
	Form          Form
	Selected      *types.Lesson
	PendingDelete string
	Busy          map[Key]bool
	Errors        map[Key]string
	Revealed      map[string]map[int]bool
}

func Initial() State {
	return State{Screen: ScreenLoading}
}

func (s State) IsBusy(id string, a Action) bool { return s.Busy[Key{id, a}] }

func (s State) ErrorFor(id string, a Action) string { return s.Errors[Key{id, a}] }

func (s State) IsRevealed(id string, index int) bool { return s.Revealed[id][index] }

// next is the copy every transition starts from.
func (s State) next() State {
	out := s
	out.Version = s.Version + 1
	out.Form.Draft.ImageURLs = append([]string(nil), s.Form.Draft.ImageURLs...)
	if s.Selected != nil {
		l := s.Selected.Clone()
		out.Selected = &l
	}
	out.Busy = make(map[Key]bool, len(s.Busy))
	for k, v := range s.Busy {
		out.Busy[k] = v
	}
	out.Errors = make(map[Key]string, len(s.Errors))
	for k, v := range s.Errors {
		out.Errors[k] = v
	}
	out.Revealed = make(map[string]map[int]bool, len(s.Revealed))
	for id, set := range s.Revealed {
		cp := make(map[int]bool, len(set))
		for i := range set {
			cp[i] = true
		}
		out.Revealed[id] = cp
	}
	return out
}

// Boot leaves the splash screen. It is a no-op on any other screen.
func (s State) Boot() State {
	if s.Screen != ScreenLoading {
		return s
	}
	out := s.next()
	out.Screen = ScreenList
	return out
}

// Select shows l on the detail screen. Revealed answers and errors from the previous
// detail view are dropped.
func (s State) Select(l types.Lesson) State {
	out := s.next()
	out.Screen = ScreenDetail
	cp := l.Clone()
	out.Selected = &cp
	out.Revealed = map[string]map[int]bool{}
	out.Errors = map[Key]string{}
	return out
}

func (s State) Back() State {
	out := s.next()
	out.Screen = ScreenList
	out.Selected = nil
	out.PendingDelete = ""
	out.Revealed = map[string]map[int]bool{}
	out.Errors = map[Key]string{}
	return out
}

func (s State) OpenModal() State {
	out := s.next()
	out.ModalOpen = true
	out.Form = Form{}
	return out
}

func (s State) CloseModal() State {
	out := s.next()
	out.ModalOpen = false
	out.Form = Form{}
	return out
}

func (s State) FormChanged(d types.LessonDraft) State {
	out := s.next()
	out.Form.Draft = d
	out.Form.Draft.ImageURLs = append([]string(nil), d.ImageURLs...)
	out.Form.Error = ""
	return out
}

func (s State) FormFailed(msg string) State {
	out := s.next()
	out.Form.Busy = false
	out.Form.Error = msg
	return out
}

func (s State) DraftStarted() State {
	out := s.next()
	out.Form.Busy = true
	out.Form.Error = ""
	return out
}

// DraftFilled puts generated notes into the form. The topic becomes the title when the
// title is still blank.
func (s State) DraftFilled(topic, notes string) State {
	out := s.next()
	out.Form.Busy = false
	out.Form.Error = ""
	out.Form.Draft.Notes = notes
	if strings.TrimSpace(out.Form.Draft.Title) == "" {
		out.Form.Draft.Title = strings.TrimSpace(topic)
	}
	return out
}

// Submitted closes the modal after a successful add and returns to the list.
func (s State) Submitted() State {
	out := s.next()
	out.ModalOpen = false
	out.Form = Form{}
	out.Screen = ScreenList
	out.Selected = nil
	out.PendingDelete = ""
	return out
}

func (s State) RequestDelete(id string) State {
	out := s.next()
	out.PendingDelete = id
	return out
}

func (s State) CancelDelete() State {
	out := s.next()
	out.PendingDelete = ""
	return out
}

// Deleted forgets everything tied to id. Deleting the selected lesson returns to the
// list with no selection.
func (s State) Deleted(id string) State {
	out := s.next()
	if out.PendingDelete == id {
		out.PendingDelete = ""
	}
	if out.Selected != nil && out.Selected.ID == id {
		out.Selected = nil
		out.Screen = ScreenList
	}
	for k := range out.Busy {
		if k.LessonID == id {
			delete(out.Busy, k)
		}
	}
	for k := range out.Errors {
		if k.LessonID == id {
			delete(out.Errors, k)
		}
	}
	delete(out.Revealed, id)
	return out
}

// Refreshed replaces the selected lesson's data when l is the selected lesson.
func (s State) Refreshed(l types.Lesson) State {
	out := s.next()
	if out.Selected != nil && out.Selected.ID == l.ID {
		cp := l.Clone()
		out.Selected = &cp
	}
	return out
}

func (s State) StartBusy(k Key) State {
	out := s.next()
	out.Busy[k] = true
	delete(out.Errors, k)
	return out
}

func (s State) FinishBusy(k Key) State {
	out := s.next()
	delete(out.Busy, k)
	return out
}

func (s State) Failed(k Key, msg string) State {
	out := s.next()
	delete(out.Busy, k)
	out.Errors[k] = msg
	return out
}

func (s State) ToggleReveal(id string, index int) State {
	out := s.next()
	set := out.Revealed[id]
	if set == nil {
		set = map[int]bool{}
		out.Revealed[id] = set
	}
	if set[index] {
		delete(set, index)
	} else {
		set[index] = true
	}
	return out
}

func (s State) ResetReveal(id string) State {
	out := s.next()
	delete(out.Revealed, id)
	return out
}

type errorEntry struct {
	Key
	Message string `json:"message"`
}

type stateJSON struct {
	Version       uint64           `json:"version"`
	Screen        Screen           `json:"screen"`
	ModalOpen     bool             `json:"modalOpen"`
	Form          Form             `json:"form"`
	Selected      *types.Lesson    `json:"selected"`
	PendingDelete string           `json:"pendingDelete,omitempty"`
	Busy          []Key            `json:"busy"`
	Errors        []errorEntry     `json:"errors"`
	Revealed      map[string][]int `json:"revealed"`
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].LessonID != keys[j].LessonID {
			return keys[i].LessonID < keys[j].LessonID
		}
		return keys[i].Action < keys[j].Action
	})
}

// MarshalJSON flattens the keyed maps into sorted lists so the output is stable.
func (s State) MarshalJSON() ([]byte, error) {
	out := stateJSON{
		Version:       s.Version,
		Screen:        s.Screen,
		ModalOpen:     s.ModalOpen,
		Form:          s.Form,
		Selected:      s.Selected,
		PendingDelete: s.PendingDelete,
		Busy:          []Key{},
		Errors:        []errorEntry{},
		Revealed:      map[string][]int{},
	}
	for k, on := range s.Busy {
		if on {
			out.Busy = append(out.Busy, k)
		}
	}
	sortKeys(out.Busy)

	errKeys := make([]Key, 0, len(s.Errors))
	for k := range s.Errors {
		errKeys = append(errKeys, k)
	}
	sortKeys(errKeys)
	for _, k := range errKeys {
		out.Errors = append(out.Errors, errorEntry{Key: k, Message: s.Errors[k]})
	}

	for id, set := range s.Revealed {
		if len(set) == 0 {
			continue
		}
		idx := make([]int, 0, len(set))
		for i := range set {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		out.Revealed[id] = idx
	}
	return json.Marshal(out)
}
