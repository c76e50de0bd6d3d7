package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// PreambleLabel names text that appears before the first recognised header.
	PreambleLabel = "Unknown"
	// FallbackLabel names the single section returned when nothing was recognised.
	FallbackLabel = "Content"
)

// DefaultSectionHeaders are the section names found in most research papers.
var DefaultSectionHeaders = []string{
	"abstract", "introduction", "related work", "methodology", "methods",
	"experiments", "results", "discussion", "conclusion", "references",
	"bibliography", "appendix",
}

// Section is a labelled run of body text. Label is the header line verbatim.
type Section struct {
	Label string
	Body  string
}

// Segmenter splits text into sections on header lines. Recognition is a
// heuristic: a document with no recognisable structure is a valid input.
type Segmenter struct {
	headers  []string
	numbered []*regexp.Regexp
}

// NewSegmenter builds a Segmenter for the given header vocabulary.
// An empty list uses DefaultSectionHeaders.
func NewSegmenter(headers []string) *Segmenter {
	if len(headers) == 0 {
		headers = DefaultSectionHeaders
	}

	s := &Segmenter{headers: make([]string, 0, len(headers))}
	for _, h := range headers {
		words := strings.Fields(strings.ToLower(h))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		pattern := `(?i)^\s*\d+\W*` + strings.Join(words, `\W+`) + `(\s|$)`
		s.headers = append(s.headers, h)
		s.numbered = append(s.numbered, regexp.MustCompile(pattern))
	}
	return s
}

// Segment is shorthand for NewSegmenter(headers).Segment(text).
func Segment(text string, headers []string) []Section {
	return NewSegmenter(headers).Segment(text)
}

// IsHeader reports whether a single line reads as a section header.
func (s *Segmenter) IsHeader(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	for _, h := range s.headers {
		if strings.EqualFold(line, h) {
			return true
		}
	}
	for _, re := range s.numbered {
		if re.MatchString(line) {
			return true
		}
	}

	return isShoutedLine(line) && len(strings.Fields(line)) <= 5
}

// Segment walks text line by line. Blank lines are kept inside bodies so that
// paragraph boundaries survive. Sections with empty bodies are dropped. Text
// with no header at all comes back as a single FallbackLabel section.
func (s *Segmenter) Segment(text string) []Section {
	var (
		sections  []Section
		body      []string
		label     = PreambleLabel
		sawHeader bool
	)

	flush := func() {
		b := strings.TrimSpace(strings.Join(body, "\n"))
		if b != "" {
			sections = append(sections, Section{Label: label, Body: b})
		}
		body = body[:0]
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			body = append(body, "")
			continue
		}
		if s.IsHeader(line) {
			flush()
			label = line
			sawHeader = true
			continue
		}
		body = append(body, line)
	}
	flush()

	if !sawHeader || len(sections) == 0 {
		return []Section{{Label: FallbackLabel, Body: strings.TrimSpace(text)}}
	}
	return sections
}

// isShoutedLine is true when the line has at least one letter and every
// cased letter is upper case.
func isShoutedLine(line string) bool {
	hasUpper := false
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
