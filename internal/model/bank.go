package model

// BankDocument is the flat question bank emitted by the offline builder.
type BankDocument struct {
	Version     string     `json:"version"`
	GeneratedAt string     `json:"generatedAt"`
	Total       int        `json:"total"`
	Questions   []Question `json:"questions"`
}

// ChapterIndexDocument is the subject→chapter index emitted alongside
// the bank. It only drives filter selection order and counts.
type ChapterIndexDocument struct {
	GeneratedAt string         `json:"generatedAt"`
	Subjects    []SubjectEntry `json:"subjects"`
}

// SubjectEntry lists one subject's chapters in reading order.
type SubjectEntry struct {
	Name     string         `json:"name"`
	Chapters []ChapterEntry `json:"chapters"`
}

// ChapterEntry is a chapter name plus its question count.
type ChapterEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
