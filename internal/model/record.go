package model

import "time"

// AnswerRecord is the remembered grading outcome for one question.
// At most one record exists per question id; it is only replaced after
// an explicit reset, never by resubmission.
type AnswerRecord struct {
	Selected   string    `json:"selected"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answeredAt"`
}

// Prefs are the persisted filter preferences restored at startup.
type Prefs struct {
	RandomOrder     bool   `json:"randomOrder"`
	OnlyWrong       bool   `json:"onlyWrong"`
	SelectedSubject string `json:"selectedSubject"`
	SelectedChapter string `json:"selectedChapter"`
	Keyword         string `json:"keyword"`
}
