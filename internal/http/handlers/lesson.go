package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/http/response"
	"github.com/yungbote/studynotes-backend/internal/platform/apierr"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/viewstate"
)

type LessonHandler struct {
	log  *logger.Logger
	ctrl *viewstate.Controller
}

func NewLessonHandler(log *logger.Logger, ctrl *viewstate.Controller) *LessonHandler {
	return &LessonHandler{log: log.With("handler", "LessonHandler"), ctrl: ctrl}
}

// GET /api/lessons
func (h *LessonHandler) ListLessons(c *gin.Context) {
	response.RespondOK(c, gin.H{"lessons": h.ctrl.Lessons(c.Request.Context())})
}

// GET /api/lessons/:id
func (h *LessonHandler) GetLesson(c *gin.Context) {
	l, err := h.ctrl.Lesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// POST /api/lessons
func (h *LessonHandler) CreateLesson(c *gin.Context) {
	var draft types.LessonDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	l, err := h.ctrl.SubmitCreate(c.Request.Context(), draft)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": l})
}

// PATCH /api/lessons/:id
func (h *LessonHandler) EditLesson(c *gin.Context) {
	var edit types.LessonEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	l, err := h.ctrl.EditLesson(c.Request.Context(), c.Param("id"), edit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// DELETE /api/lessons/:id
func (h *LessonHandler) DeleteLesson(c *gin.Context) {
	st, err := h.ctrl.DeleteLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// POST /api/lessons/:id/mcqs
func (h *LessonHandler) GenerateMCQs(c *gin.Context) {
	l, err := h.ctrl.GenerateMCQs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// POST /api/lessons/:id/feedback
func (h *LessonHandler) GenerateFeedback(c *gin.Context) {
	l, err := h.ctrl.GenerateFeedback(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": l})
}

// POST /api/lessons/:id/mcqs/:index/reveal
func (h *LessonHandler) RevealAnswer(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	st, err := h.ctrl.ToggleAnswer(c.Request.Context(), c.Param("id"), idx)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, st)
}

type generateNotesRequest struct {
	Topic string `json:"topic"`
}

// POST /api/notes/generate
func (h *LessonHandler) GenerateNotes(c *gin.Context) {
	var req generateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	text, err := h.ctrl.DraftNotes(c.Request.Context(), strings.TrimSpace(req.Topic))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"notes": text})
}
