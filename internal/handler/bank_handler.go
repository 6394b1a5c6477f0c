package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizdrill/quizdrill-backend/internal/bank"
	"github.com/quizdrill/quizdrill-backend/internal/response"
)

// BankHandler serves the read-only loaded bank: subject/chapter index
// and individual questions.
type BankHandler struct {
	bank *bank.Bank
}

// NewBankHandler creates a new BankHandler.
func NewBankHandler(b *bank.Bank) *BankHandler {
	return &BankHandler{bank: b}
}

// GetSubjects godoc
// GET /api/v1/bank/subjects
// Returns the subject→chapter index in bank order.
func (h *BankHandler) GetSubjects(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"subjects": h.bank.Subjects})
}

// GetChapters godoc
// GET /api/v1/bank/subjects/:subject/chapters
func (h *BankHandler) GetChapters(c *gin.Context) {
	subject := c.Param("subject")

	chapters := h.bank.ChaptersFor(subject)
	if chapters == nil {
		response.Fail(c, http.StatusNotFound, response.ErrSubjectUnknown)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"chapters": chapters})
}

// GetQuestion godoc
// GET /api/v1/bank/questions/*id
// Question ids contain slashes (subject/chapter/page-id), hence the
// wildcard parameter.
func (h *BankHandler) GetQuestion(c *gin.Context) {
	id := strings.TrimPrefix(c.Param("id"), "/")

	q, ok := h.bank.Question(id)
	if !ok {
		response.Fail(c, http.StatusNotFound, response.ErrQuestionUnknown)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": q})
}
