package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Question is a single bank entry. Questions are immutable once loaded;
// the ID is `subject/chapter/page-id` and never collides across chapters.
type Question struct {
	ID        string     `json:"id"`
	Subject   string     `json:"subject"`
	Chapter   string     `json:"chapter"`
	Page      int        `json:"page"`
	Question  string     `json:"question"`
	Options   OptionList `json:"options"`
	Answer    string     `json:"answer"`
	HasImage  bool       `json:"hasImage"`
	ImagePath string     `json:"imagePath,omitempty"`
}

// Option is a single answer choice keyed by an uppercase letter.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// OptionList is the canonical in-memory form of a question's options:
// normalized once on ingest, sorted by ascending key, no empty texts.
// It round-trips as a JSON object so the bank documents keep their shape.
type OptionList []Option

// Get returns the option text for a key.
func (l OptionList) Get(key string) (string, bool) {
	for _, opt := range l {
		if opt.Key == key {
			return opt.Text, true
		}
	}
	return "", false
}

// Texts returns the option texts in key order.
func (l OptionList) Texts() []string {
	texts := make([]string, len(l))
	for i, opt := range l {
		texts[i] = opt.Text
	}
	return texts
}

// UnmarshalJSON reads a JSON object of key→text and normalizes it.
func (l *OptionList) UnmarshalJSON(data []byte) error {
	// The bank builder may emit null for figure-only questions.
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*l = nil
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = NormalizeOptions(raw)
	return nil
}

// MarshalJSON writes the options back as an object in ascending key order.
func (l OptionList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, opt := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(opt.Key)
		if err != nil {
			return nil, err
		}
		text, err := json.Marshal(opt.Text)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(text)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizeOptions turns a raw option map into the canonical OptionList:
// keys uppercased and trimmed, entries with empty text or a key outside
// A..Z dropped, duplicates collapsed, result sorted by key. The function
// is pure and idempotent.
func NormalizeOptions(raw map[string]string) OptionList {
	if len(raw) == 0 {
		return nil
	}

	// Walk the source keys in sorted order so duplicate keys collapse
	// deterministically (the lexicographically later source key wins).
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	merged := make(map[string]string, len(raw))
	for _, k := range keys {
		key := strings.ToUpper(strings.TrimSpace(k))
		if len(key) != 1 || key[0] < 'A' || key[0] > 'Z' {
			continue
		}
		text := strings.TrimSpace(raw[k])
		if text == "" {
			continue
		}
		merged[key] = text
	}

	list := make(OptionList, 0, len(merged))
	for key, text := range merged {
		list = append(list, Option{Key: key, Text: text})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list
}
