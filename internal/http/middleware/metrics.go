package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studynotes-backend/internal/observability"
	"github.com/yungbote/studynotes-backend/internal/platform/ctxutil"
)

// Long-lived or self-referential routes stay out of the latency histograms.
var unmeteredRoutes = map[string]bool{
	"/metrics":    true,
	"/api/stream": true,
}

// Metrics records request counts and latency by route template, and the outcome of
// every lesson action tagged by AttachRequestContext.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		if unmeteredRoutes[route] {
			c.Next()
			return
		}

		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		status := c.Writer.Status()
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), time.Since(start))
		if req := ctxutil.RequestFrom(c.Request.Context()); req != nil {
			m.ObserveLessonAction(req.Action, actionOutcome(status))
		}
	}
}

func actionOutcome(status int) string {
	switch {
	case status < 400:
		return "ok"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusConflict:
		return "busy"
	case status < 500:
		return "invalid"
	default:
		return "failed"
	}
}
