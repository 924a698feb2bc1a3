package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/studynotes-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// routeActions names the user action behind each mutating lesson route, keyed by
// method and route template.
var routeActions = map[string]string{
	"POST /api/lessons":                        "create_lesson",
	"PATCH /api/lessons/:id":                   "edit_lesson",
	"DELETE /api/lessons/:id":                  "delete_lesson",
	"POST /api/lessons/:id/mcqs":               "generate_mcqs",
	"POST /api/lessons/:id/feedback":           "generate_feedback",
	"POST /api/lessons/:id/mcqs/:index/reveal": "reveal_answer",
	"POST /api/notes/generate":                 "draft_notes",
	"POST /api/view/delete/:id":                "request_delete",
	"POST /api/view/delete/confirm":            "confirm_delete",
}

// RouteAction returns the action name for a matched route, or "".
func RouteAction(method, route string) string {
	return routeActions[strings.ToUpper(method)+" "+route]
}

// AttachRequestContext stores a ctxutil.Request on the request context and echoes
// the trace and request ids back as headers. Lesson id and action are also set on
// the otelgin span when there is one.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		span := trace.SpanFromContext(c.Request.Context())
		traceID := strings.TrimSpace(c.GetHeader(headerTraceID))
		if traceID == "" && span.SpanContext().HasTraceID() {
			traceID = span.SpanContext().TraceID().String()
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}

		req := &ctxutil.Request{
			TraceID:   traceID,
			RequestID: reqID,
			LessonID:  strings.TrimSpace(c.Param("id")),
			Action:    RouteAction(c.Request.Method, c.FullPath()),
		}
		if req.LessonID != "" {
			span.SetAttributes(attribute.String("lesson.id", req.LessonID))
		}
		if req.Action != "" {
			span.SetAttributes(attribute.String("lesson.action", req.Action))
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequest(c.Request.Context(), req))
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}
