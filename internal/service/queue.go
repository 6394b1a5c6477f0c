package service

import (
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/quizdrill/quizdrill-backend/internal/model"
)

// formulaSpellings collapses the backslash-escaped spellings the OCR
// pass leaves behind into the symbols users actually type.
var formulaSpellings = []struct {
	re     *regexp.Regexp
	symbol string
}{
	{regexp.MustCompile(`(?i)\\+lambda`), "λ"},
	{regexp.MustCompile(`(?i)\\+mu`), "μ"},
	{regexp.MustCompile(`(?i)\\+rho`), "ρ"},
	{regexp.MustCompile(`(?i)\\+alpha`), "α"},
	{regexp.MustCompile(`(?i)\\+beta`), "β"},
	{regexp.MustCompile(`(?i)\\+gamma`), "γ"},
	{regexp.MustCompile(`(?i)\\+times`), "×"},
	{regexp.MustCompile(`(?i)\\+cdot`), "·"},
}

// normalizeFormulaText folds case and canonicalizes escaped Greek
// letters and operators so a keyword matches either spelling.
func normalizeFormulaText(text string) string {
	for _, s := range formulaSpellings {
		text = s.re.ReplaceAllString(text, s.symbol)
	}
	return strings.ToLower(text)
}

// buildQueue derives the ordered question-id queue for one filter
// combination: subject+chapter selection, normalized keyword substring
// match over question and option text, optional wrongbook intersection,
// stable ascending-page sort, optional shuffle. With randomize=false
// the output is deterministic for identical inputs.
func buildQueue(
	questions []model.Question,
	subject, chapter, keyword string,
	onlyWrong bool,
	wrongbook []string,
	randomize bool,
	rng *rand.Rand,
) []string {
	if subject == "" || chapter == "" {
		return nil
	}

	keyword = strings.TrimSpace(keyword)
	normalizedKeyword := normalizeFormulaText(keyword)

	var wrongSet map[string]struct{}
	if onlyWrong {
		wrongSet = make(map[string]struct{}, len(wrongbook))
		for _, id := range wrongbook {
			wrongSet[id] = struct{}{}
		}
	}

	var list []model.Question
	for _, q := range questions {
		if q.Subject != subject || q.Chapter != chapter {
			continue
		}
		if keyword != "" && !matchesKeyword(q, normalizedKeyword) {
			continue
		}
		if onlyWrong {
			if _, ok := wrongSet[q.ID]; !ok {
				continue
			}
		}
		list = append(list, q)
	}

	// Canonical reading order within a chapter.
	sort.SliceStable(list, func(i, j int) bool { return list[i].Page < list[j].Page })

	ids := make([]string, len(list))
	for i, q := range list {
		ids[i] = q.ID
	}

	if randomize {
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	}
	return ids
}

func matchesKeyword(q model.Question, normalizedKeyword string) bool {
	if strings.Contains(normalizeFormulaText(q.Question), normalizedKeyword) {
		return true
	}
	for _, text := range q.Options.Texts() {
		if strings.Contains(normalizeFormulaText(text), normalizedKeyword) {
			return true
		}
	}
	return false
}
