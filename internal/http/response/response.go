package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studynotes-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondDomainError classifies err with apierr.FromDomain. Internal errors never
// leak their cause to the client.
func RespondDomainError(c *gin.Context, err error) {
	ae := apierr.FromDomain(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, apierr.CodeInternal, nil)
	}
	_ = c.Error(err)
	if ae.Status >= http.StatusInternalServerError && ae.Code != apierr.CodeGeneration {
		RespondError(c, ae.Status, ae.Code, errInternal)
		return
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

type internalError struct{}

func (internalError) Error() string { return "Something went wrong. Please try again." }

var errInternal error = internalError{}
