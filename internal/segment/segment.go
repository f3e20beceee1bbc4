// Package segment splits resume text into sentence-like segments used as the unit of embedding.
package segment

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	// DefaultMinLength is the length a segment must exceed to be kept.
	DefaultMinLength = 10
	// DefaultMaxSegments bounds provider calls per request.
	DefaultMaxSegments = 20
)

// sentenceBoundary matches whitespace preceded by sentence-ending punctuation.
// The punctuation stays with the preceding segment.
var sentenceBoundary = regexp2.MustCompile(`(?<=[.!?])\s+`, regexp2.None)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Segmenter splits text into at most MaxSegments segments longer than MinLength runes.
type Segmenter struct {
	MinLength   int
	MaxSegments int
}

// Result is the output of Split. Dropped counts segments that passed the length filter but
// were cut by MaxSegments.
type Result struct {
	Segments []string
	Dropped  int
}

// New returns a Segmenter, substituting defaults for non-positive values.
// A zero minLength is kept as is (every non-empty segment qualifies).
func New(minLength, maxSegments int) *Segmenter {
	if minLength < 0 {
		minLength = DefaultMinLength
	}

	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}

	return &Segmenter{MinLength: minLength, MaxSegments: maxSegments}
}

// Split normalizes line breaks, splits on sentence boundaries, drops short segments and keeps
// the first MaxSegments in original order. When nothing survives the filter the whole trimmed
// text is returned as the single segment (empty text yields no segments).
func (s *Segmenter) Split(text string) (Result, error) {
	normalized := lineBreaks.Replace(text)

	parts, err := splitSentences(normalized)
	if err != nil {
		return Result{}, err
	}

	kept := make([]string, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || utf8.RuneCountInString(part) <= s.MinLength {
			continue
		}

		kept = append(kept, part)
	}

	if len(kept) == 0 {
		whole := strings.TrimSpace(normalized)
		if whole == "" {
			return Result{}, nil
		}

		return Result{Segments: []string{whole}}, nil
	}

	res := Result{Segments: kept}
	if s.MaxSegments > 0 && len(kept) > s.MaxSegments {
		res.Segments = kept[:s.MaxSegments]
		res.Dropped = len(kept) - s.MaxSegments
	}

	return res, nil
}

// splitSentences cuts text at every sentenceBoundary match. regexp2 reports rune offsets.
func splitSentences(text string) ([]string, error) {
	runes := []rune(text)

	var (
		parts []string
		start int
	)

	m, err := sentenceBoundary.FindRunesMatch(runes)
	for m != nil && err == nil {
		parts = append(parts, string(runes[start:m.Index]))
		start = m.Index + m.Length

		m, err = sentenceBoundary.FindNextMatch(m)
	}

	if err != nil {
		return nil, fmt.Errorf("segment: split sentences: %w", err)
	}

	return append(parts, string(runes[start:])), nil
}
