package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizdrill/quizdrill-backend/internal/model"
	"github.com/quizdrill/quizdrill-backend/internal/response"
	"github.com/quizdrill/quizdrill-backend/internal/service"
	"github.com/quizdrill/quizdrill-backend/internal/validator"
)

// SessionHandler drives the quiz session engine. Every mutating
// endpoint responds with the full session state so the client
// re-renders from it — there is no derived state on the wire.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// GetState godoc
// GET /api/v1/session
func (h *SessionHandler) GetState(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"session": h.sessionService.State()})
}

// UpdateFilters godoc
// PUT /api/v1/session/filters
// Applies the non-nil filter fields and rebuilds the queue.
func (h *SessionHandler) UpdateFilters(c *gin.Context) {
	var req model.SetFiltersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.ApplyFilters(c.Request.Context(), req); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorageFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": h.sessionService.State()})
}

// Next godoc
// POST /api/v1/session/next
// A no-op at the last question; the response is the resulting state
// either way.
func (h *SessionHandler) Next(c *gin.Context) {
	if err := h.sessionService.Next(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorageFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": h.sessionService.State()})
}

// Prev godoc
// POST /api/v1/session/prev
func (h *SessionHandler) Prev(c *gin.Context) {
	if err := h.sessionService.Prev(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorageFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": h.sessionService.State()})
}

// Jump godoc
// POST /api/v1/session/jump
// Out-of-range indexes are silently ignored.
func (h *SessionHandler) Jump(c *gin.Context) {
	var req model.JumpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.JumpTo(c.Request.Context(), req.Index); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorageFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": h.sessionService.State()})
}

// Submit godoc
// POST /api/v1/session/answer
// Grades the submitted option against the current question. Repeated
// submissions while a record exists are rejected with accepted=false,
// never an error.
func (h *SessionHandler) Submit(c *gin.Context) {
	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.sessionService.Submit(c.Request.Context(), req.Option)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorageFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"result":  result,
		"session": h.sessionService.State(),
	})
}

// Reset godoc
// POST /api/v1/session/reset
// Clears the record for the given question id, or for the current
// question when the body is empty.
func (h *SessionHandler) Reset(c *gin.Context) {
	var req model.ResetAnswerRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	if err := h.sessionService.Reset(c.Request.Context(), req.QuestionID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrStorageFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": h.sessionService.State()})
}

// ToggleImage godoc
// POST /api/v1/session/image
// Flips the transient image lightbox flag for the current question.
func (h *SessionHandler) ToggleImage(c *gin.Context) {
	show := h.sessionService.ToggleImage()
	response.Success(c, http.StatusOK, gin.H{
		"showImage": show,
		"session":   h.sessionService.State(),
	})
}
