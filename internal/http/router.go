package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studynotes-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studynotes-backend/internal/http/middleware"
	"github.com/yungbote/studynotes-backend/internal/observability"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	HealthHandler   *httpH.HealthHandler
	ViewHandler     *httpH.ViewHandler
	LessonHandler   *httpH.LessonHandler
	RealtimeHandler *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/stream", cfg.RealtimeHandler.Stream)
		}

		// View
		if cfg.ViewHandler != nil {
			api.GET("/state", cfg.ViewHandler.GetState)
			api.POST("/view/select/:id", cfg.ViewHandler.Select)
			api.POST("/view/back", cfg.ViewHandler.Back)
			api.POST("/view/modal/open", cfg.ViewHandler.OpenModal)
			api.POST("/view/modal/close", cfg.ViewHandler.CloseModal)
			api.PUT("/view/modal/form", cfg.ViewHandler.UpdateForm)
			api.POST("/view/delete/confirm", cfg.ViewHandler.ConfirmDelete)
			api.POST("/view/delete/cancel", cfg.ViewHandler.CancelDelete)
			api.POST("/view/delete/:id", cfg.ViewHandler.RequestDelete)
		}

		// Lessons
		if cfg.LessonHandler != nil {
			api.GET("/lessons", cfg.LessonHandler.ListLessons)
			api.POST("/lessons", cfg.LessonHandler.CreateLesson)
			api.GET("/lessons/:id", cfg.LessonHandler.GetLesson)
			api.PATCH("/lessons/:id", cfg.LessonHandler.EditLesson)
			api.DELETE("/lessons/:id", cfg.LessonHandler.DeleteLesson)
			api.POST("/lessons/:id/mcqs", cfg.LessonHandler.GenerateMCQs)
			api.POST("/lessons/:id/feedback", cfg.LessonHandler.GenerateFeedback)
			api.POST("/lessons/:id/mcqs/:index/reveal", cfg.LessonHandler.RevealAnswer)
			api.POST("/notes/generate", cfg.LessonHandler.GenerateNotes)
		}
	}

	return r
}
