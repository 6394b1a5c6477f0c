package model

// SetFiltersRequest is the payload for updating session filters.
// Nil fields are left unchanged; the queue is rebuilt once per applied
// field, mirroring the individual filter setters.
type SetFiltersRequest struct {
	Subject     *string `json:"subject"`
	Chapter     *string `json:"chapter"`
	Keyword     *string `json:"keyword"`
	RandomOrder *bool   `json:"randomOrder"`
	OnlyWrong   *bool   `json:"onlyWrong"`
}

// SubmitAnswerRequest is the payload for answering the current question.
type SubmitAnswerRequest struct {
	Option string `json:"option" binding:"required,max=10"`
}

// JumpRequest is the payload for jumping to a queue index. Out-of-range
// indexes are silent no-ops, so no range validation happens here.
type JumpRequest struct {
	Index int `json:"index"`
}

// ResetAnswerRequest is the payload for clearing a question's record.
// An empty id targets the current question.
type ResetAnswerRequest struct {
	QuestionID string `json:"questionId"`
}
