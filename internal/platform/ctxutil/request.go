package ctxutil

import "context"

type requestKey struct{}

// Request identifies one API call and, when it targets a lesson, which lesson and
// which user action. Services read it to tag their logs and spans.
type Request struct {
	TraceID   string
	RequestID string
	LessonID  string
	// Action is the user action behind the call, e.g. "generate_mcqs". Empty for
	// reads and view navigation.
	Action string
}

func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func RequestFrom(ctx context.Context) *Request {
	if ctx == nil {
		return nil
	}
	if r, ok := ctx.Value(requestKey{}).(*Request); ok {
		return r
	}
	return nil
}

// LogFields returns the non-empty ids as logger key/value pairs.
func LogFields(ctx context.Context) []any {
	r := RequestFrom(ctx)
	if r == nil {
		return nil
	}
	out := make([]any, 0, 8)
	for _, kv := range [][2]string{
		{"trace_id", r.TraceID},
		{"request_id", r.RequestID},
		{"lesson_id", r.LessonID},
		{"action", r.Action},
	} {
		if kv[1] != "" {
			out = append(out, kv[0], kv[1])
		}
	}
	return out
}
