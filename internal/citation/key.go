package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nikhilbhutani/scholarrag/internal/models"
)

const (
	unknownTitle  = "Unknown Title"
	unknownAuthor = "Unknown"
	unknownYear   = "xxxx"
)

var arxivIDPattern = regexp.MustCompile(`\d{4}\.\d{4,5}`)

// ExtractArxivID returns the first arXiv identifier (e.g. 2305.12345) found
// in s, or "" if there is none.
func ExtractArxivID(s string) string {
	return arxivIDPattern.FindString(s)
}

// Key derives a citation key: lastname + year + first title word when all
// three are known, else the arXiv id, else the title with underscores cut to
// 20 characters.
func Key(p models.PaperMetadata) string {
	title := titleOrDefault(p)
	authors := authorsOrDefault(p)

	if authors[0] != unknownAuthor && p.Year > 0 && title != unknownTitle {
		nameParts := strings.Fields(authors[0])
		titleWords := strings.Fields(title)
		if len(nameParts) > 0 && len(titleWords) > 0 {
			last := nameParts[len(nameParts)-1]
			return strings.ToLower(last) + strconv.Itoa(p.Year) + strings.ToLower(titleWords[0])
		}
	}
	if p.ArxivID != "" {
		return p.ArxivID
	}

	key := []rune(strings.ReplaceAll(title, " ", "_"))
	if len(key) > 20 {
		key = key[:20]
	}
	return string(key)
}

// Bibtex renders an @article entry for arXiv papers and @misc otherwise.
func Bibtex(key string, p models.PaperMetadata) string {
	title := titleOrDefault(p)
	authors := strings.Join(authorsOrDefault(p), " and ")
	year := unknownYear
	if p.Year > 0 {
		year = strconv.Itoa(p.Year)
	}

	if p.ArxivID != "" {
		return fmt.Sprintf("@article{%s,\n"+
			"  title={ %s },\n"+
			"  author={ %s },\n"+
			"  year={ %s },\n"+
			"  eprint={ %s },\n"+
			"  archivePrefix={arXiv},\n"+
			"  url={ https://arxiv.org/abs/%s }\n"+
			"}", key, title, authors, year, p.ArxivID, p.ArxivID)
	}

	return fmt.Sprintf("@misc{%s,\n"+
		"  title={ %s },\n"+
		"  author={ %s },\n"+
		"  year={ %s },\n"+
		"  url={ %s }\n"+
		"}", key, title, authors, year, p.URL)
}

func titleOrDefault(p models.PaperMetadata) string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return unknownTitle
}

func authorsOrDefault(p models.PaperMetadata) []string {
	var authors []string
	for _, a := range p.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	if len(authors) == 0 {
		return []string{unknownAuthor}
	}
	return authors
}
