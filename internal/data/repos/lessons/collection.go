package lessons

import (
	"sort"

	types "github.com/yungbote/studynotes-backend/internal/domain"
)

// Collection is the in-memory lesson set. The functions below never mutate their
// input; each returns a fresh slice.
type Collection []types.Lesson

func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, l := range c {
		out[i] = l.Clone()
	}
	return out
}

func (c Collection) Index(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

func Added(c Collection, l types.Lesson) Collection {
	out := make(Collection, 0, len(c)+1)
	out = append(out, c.Clone()...)
	return append(out, l.Clone())
}

// Updated replaces the lesson with l.ID. ok is false when no such lesson exists.
func Updated(c Collection, l types.Lesson) (Collection, bool) {
	i := c.Index(l.ID)
	if i < 0 {
		return c, false
	}
	out := c.Clone()
	out[i] = l.Clone()
	return out, true
}

func Removed(c Collection, id string) (Collection, bool) {
	i := c.Index(id)
	if i < 0 {
		return c, false
	}
	out := make(Collection, 0, len(c)-1)
	for j, l := range c {
		if j == i {
			continue
		}
		out = append(out, l.Clone())
	}
	return out, true
}

// Sorted orders by createdAt, newest first. Equal timestamps fall back to id so the
// order is total.
func Sorted(c Collection) Collection {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}
