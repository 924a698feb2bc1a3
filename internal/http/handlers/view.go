package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/studynotes-backend/internal/domain"
	"github.com/yungbote/studynotes-backend/internal/http/response"
	"github.com/yungbote/studynotes-backend/internal/platform/apierr"
	"github.com/yungbote/studynotes-backend/internal/platform/logger"
	"github.com/yungbote/studynotes-backend/internal/viewstate"
)

// ViewHandler exposes the screen-level transitions. Every route answers with the new
// state.
type ViewHandler struct {
	log  *logger.Logger
	ctrl *viewstate.Controller
}

func NewViewHandler(log *logger.Logger, ctrl *viewstate.Controller) *ViewHandler {
	return &ViewHandler{log: log.With("handler", "ViewHandler"), ctrl: ctrl}
}

// GET /api/state
func (h *ViewHandler) GetState(c *gin.Context) {
	response.RespondOK(c, h.ctrl.State())
}

// POST /api/view/select/:id
func (h *ViewHandler) Select(c *gin.Context) {
	st, err := h.ctrl.SelectLesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// POST /api/view/back
func (h *ViewHandler) Back(c *gin.Context) {
	response.RespondOK(c, h.ctrl.Back())
}

// POST /api/view/modal/open
func (h *ViewHandler) OpenModal(c *gin.Context) {
	response.RespondOK(c, h.ctrl.OpenCreate())
}

// POST /api/view/modal/close
func (h *ViewHandler) CloseModal(c *gin.Context) {
	response.RespondOK(c, h.ctrl.CloseCreate())
}

// PUT /api/view/modal/form
func (h *ViewHandler) UpdateForm(c *gin.Context) {
	var draft types.LessonDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidInput, err)
		return
	}
	response.RespondOK(c, h.ctrl.UpdateForm(draft))
}

// POST /api/view/delete/:id
func (h *ViewHandler) RequestDelete(c *gin.Context) {
	st, err := h.ctrl.RequestDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// POST /api/view/delete/confirm
func (h *ViewHandler) ConfirmDelete(c *gin.Context) {
	st, err := h.ctrl.ConfirmDelete(c.Request.Context())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, st)
}

// POST /api/view/delete/cancel
func (h *ViewHandler) CancelDelete(c *gin.Context) {
	response.RespondOK(c, h.ctrl.CancelDelete())
}
