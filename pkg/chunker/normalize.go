package chunker

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// stopLines are running section words that extraction leaves on their own
// line; they carry no content once the body text is chunked.
var stopLines = []string{"abstract", "introduction", "conclusion", "references", "bibliography"}

var (
	arxivURLPattern   = regexp.MustCompile(`https?://arxiv\.org/abs/\d+\.\d+`)
	arxivIDPattern    = regexp.MustCompile(`\d{4}\.\d{4,5}`)
	spaceRunPattern   = regexp.MustCompile(` {2,}`)
	punctRunPattern   = regexp.MustCompile(`[.!?]{3,}`)
	brokenMathPattern = regexp.MustCompile(`([A-Za-z])[ \t]*\n[ \t]*([+\-*/=])`)

	pageNumberPattern = regexp.MustCompile(`^Page \d+$`)
	digitsPattern     = regexp.MustCompile(`^\d+$`)
	allCapsPattern    = regexp.MustCompile(`^[A-Z ]{3,}$`)
	fewLettersPattern = regexp.MustCompile(`^[a-zA-Z](?:[ \t]*[a-zA-Z]){0,2}$`)
	isolatedPattern   = regexp.MustCompile(`\b[a-zA-Z]\b`)
)

var punctuationReplacer = strings.NewReplacer(
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`,
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'",
	"\u2013", "-", "\u2014", "-", "\u2012", "-", "\u2015", "-", "\u2212", "-",
	"\r\n", "\n", "\r", "",
)

// Normalize strips PDF extraction artifacts from text: page numbers, running
// headers, orphaned letters, arXiv identifiers and typographic punctuation.
// It only ever drops or joins lines, so the output never has more lines than
// the input. Removed content is not recoverable.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = punctuationReplacer.Replace(text)
	text = arxivURLPattern.ReplaceAllString(text, "")
	text = arxivIDPattern.ReplaceAllString(text, "")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	text = punctRunPattern.ReplaceAllString(text, "...")
	text = brokenMathPattern.ReplaceAllString(text, "$1$2")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			// Runs of blank lines collapse to one paragraph break.
			if !blank && len(kept) > 0 {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		if isArtifactLine(line) {
			continue
		}
		kept = append(kept, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isArtifactLine reports whether a trimmed, non-empty line is extraction noise.
func isArtifactLine(line string) bool {
	switch {
	case pageNumberPattern.MatchString(line), digitsPattern.MatchString(line):
		return true
	case allCapsPattern.MatchString(line):
		return true
	case fewLettersPattern.MatchString(line):
		return true
	}

	for _, w := range stopLines {
		if strings.EqualFold(line, w) {
			return true
		}
	}

	return tooManyIsolatedLetters(line)
}

// tooManyIsolatedLetters flags lines such as "a b c d of e" that come from
// characters extracted one glyph at a time. Up to two isolated letters are
// always tolerated.
func tooManyIsolatedLetters(line string) bool {
	words := len(strings.Fields(line))
	isolated := len(isolatedPattern.FindAllStringIndex(line, -1))
	if isolated <= 2 {
		return false
	}
	return float64(isolated) > float64(words)*0.4
}
