// Package bankbuilder turns a directory tree of per-page OCR cache
// files into the two bank documents the server consumes. It runs as an
// offline batch job (cmd/buildbank), never inside the server.
package bankbuilder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/model"
)

// figurePattern marks questions that reference a figure. OCR sometimes
// misreads 图例 as 图列, so both spellings count.
var figurePattern = regexp.MustCompile(`如图|见图|如下图|图中|下列图|图示|图例|图列`)

var (
	pageNumberPattern = regexp.MustCompile(`page-(\d+)\.dpi100\.json$`)
	pageIDPattern     = regexp.MustCompile(`(page-\d+)\.dpi100\.json$`)
)

// ocrRecord is one entry of a per-page OCR cache file. The cache files
// are arrays; only the first record carries the question.
type ocrRecord struct {
	Question string            `json:"题目"`
	Options  map[string]string `json:"选项"`
	Answer   string            `json:"答案"`
}

// Builder scans sourceRoot (<subject>/cache/<chapter>/page-N.dpi100.json
// plus sibling images/ trees) and writes the bank documents to dataDir
// and the referenced page images under imageDir.
type Builder struct {
	sourceRoot string
	dataDir    string
	imageDir   string
	log        zerolog.Logger
}

// Result summarizes one build run.
type Result struct {
	Questions    int
	Subjects     int
	ImagesCopied int
}

func New(sourceRoot, dataDir, imageDir string, log zerolog.Logger) *Builder {
	return &Builder{
		sourceRoot: sourceRoot,
		dataDir:    dataDir,
		imageDir:   imageDir,
		log:        log.With().Str("component", "bank_builder").Logger(),
	}
}

// Build walks the source tree and emits question-bank.json and
// chapter-index.json. Subjects and chapters iterate in natural name
// order; pages in ascending page number, which becomes the canonical
// reading order inside each chapter.
func (b *Builder) Build() (Result, error) {
	var result Result

	info, err := os.Stat(b.sourceRoot)
	if err != nil || !info.IsDir() {
		return result, fmt.Errorf("source root %s is not a readable directory", b.sourceRoot)
	}
	if err := os.MkdirAll(b.dataDir, 0o755); err != nil {
		return result, fmt.Errorf("create data dir: %w", err)
	}

	subjects, err := listDirs(b.sourceRoot)
	if err != nil {
		return result, fmt.Errorf("list subjects: %w", err)
	}

	var questions []model.Question
	var index []model.SubjectEntry

	for _, subject := range subjects {
		cacheDir := filepath.Join(b.sourceRoot, subject, "cache")
		chapters, err := listDirs(cacheDir)
		if err != nil {
			// A subject directory without a cache tree carries no questions.
			b.log.Warn().Str("subject", subject).Msg("no cache directory, skipping")
			continue
		}

		subjectNode := model.SubjectEntry{Name: subject}

		for _, chapter := range chapters {
			count, err := b.buildChapter(subject, chapter, &questions, &result)
			if err != nil {
				return result, err
			}
			subjectNode.Chapters = append(subjectNode.Chapters, model.ChapterEntry{
				Name:  chapter,
				Count: count,
			})
		}

		index = append(index, subjectNode)
	}

	generatedAt := time.Now().UTC().Format(time.RFC3339)

	bankDoc := model.BankDocument{
		Version:     "v1",
		GeneratedAt: generatedAt,
		Total:       len(questions),
		Questions:   questions,
	}
	indexDoc := model.ChapterIndexDocument{
		GeneratedAt: generatedAt,
		Subjects:    index,
	}

	if err := writeJSON(filepath.Join(b.dataDir, "question-bank.json"), bankDoc); err != nil {
		return result, err
	}
	if err := writeJSON(filepath.Join(b.dataDir, "chapter-index.json"), indexDoc); err != nil {
		return result, err
	}

	result.Questions = len(questions)
	result.Subjects = len(index)

	b.log.Info().
		Int("questions", result.Questions).
		Int("subjects", result.Subjects).
		Int("images", result.ImagesCopied).
		Msg("bank build complete")

	return result, nil
}

func (b *Builder) buildChapter(subject, chapter string, questions *[]model.Question, result *Result) (int, error) {
	chapterDir := filepath.Join(b.sourceRoot, subject, "cache", chapter)

	entries, err := os.ReadDir(chapterDir)
	if err != nil {
		return 0, fmt.Errorf("read chapter %s/%s: %w", subject, chapter, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".dpi100.json") {
			files = append(files, entry.Name())
		}
	}
	sort.Slice(files, func(i, j int) bool { return parsePageNumber(files[i]) < parsePageNumber(files[j]) })

	count := 0
	for _, fileName := range files {
		raw, err := os.ReadFile(filepath.Join(chapterDir, fileName))
		if err != nil {
			return count, fmt.Errorf("read %s: %w", fileName, err)
		}

		var records []ocrRecord
		if err := json.Unmarshal(raw, &records); err != nil || len(records) == 0 {
			// Pages the OCR pass could not parse stay out of the bank.
			continue
		}
		record := records[0]

		questionText := strings.TrimSpace(record.Question)
		answer := strings.ToUpper(strings.TrimSpace(record.Answer))
		pageID := toPageID(fileName)

		q := model.Question{
			ID:       path.Join(subject, chapter, pageID),
			Subject:  subject,
			Chapter:  chapter,
			Page:     parsePageNumber(fileName),
			Question: questionText,
			Options:  model.NormalizeOptions(record.Options),
			Answer:   answer,
		}

		// A figure reference in the text, or a page whose options the
		// OCR pass lost entirely, gets the page image attached when one
		// exists.
		if figurePattern.MatchString(questionText) || optionsEmpty(record.Options) {
			src := filepath.Join(b.sourceRoot, subject, "images", chapter, pageID+".png")
			dst := filepath.Join(b.imageDir, subject, "images", chapter, pageID+".png")
			if copyIfExists(src, dst) {
				q.HasImage = true
				q.ImagePath = path.Join("output", subject, "images", chapter, pageID+".png")
				result.ImagesCopied++
			}
		}

		*questions = append(*questions, q)
		count++
	}

	return count, nil
}

// listDirs returns the non-hidden subdirectory names of dir in natural
// order (digit runs compare numerically, so chapter-10 follows chapter-2).
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	return names, nil
}

func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		aDigits, aRest := splitLeadingDigits(a)
		bDigits, bRest := splitLeadingDigits(b)

		if aDigits != "" && bDigits != "" {
			an, _ := strconv.Atoi(aDigits)
			bn, _ := strconv.Atoi(bDigits)
			if an != bn {
				return an < bn
			}
			a, b = aRest, bRest
			continue
		}

		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return a < b
}

func splitLeadingDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}

func parsePageNumber(fileName string) int {
	m := pageNumberPattern.FindStringSubmatch(fileName)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func toPageID(fileName string) string {
	m := pageIDPattern.FindStringSubmatch(fileName)
	if m == nil {
		return strings.TrimSuffix(filepath.Base(fileName), ".json")
	}
	return m[1]
}

// optionsEmpty reports whether the raw OCR options carry no usable text.
func optionsEmpty(options map[string]string) bool {
	for _, value := range options {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

func copyIfExists(src, dst string) bool {
	in, err := os.Open(src)
	if err != nil {
		return false
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false
	}
	out, err := os.Create(dst)
	if err != nil {
		return false
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return false
	}
	return true
}

func writeJSON(path string, doc interface{}) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
