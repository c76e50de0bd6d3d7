package models

import (
	"strconv"
	"strings"
	"time"
)

// PaperMetadata describes a paper being ingested. It is caller-owned; the
// store copies what it needs into each chunk.
type PaperMetadata struct {
	Title      string            `json:"title"`
	Authors    []string          `json:"authors,omitempty"`
	Year       int               `json:"year,omitempty"`
	ArxivID    string            `json:"arxiv_id,omitempty"`
	URL        string            `json:"url,omitempty"`
	Source     string            `json:"source,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	IngestedAt time.Time         `json:"ingested_at,omitzero"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type ChunkType string

const (
	ChunkFine   ChunkType = "fine"
	ChunkCoarse ChunkType = "coarse"
)

// Valid reports whether t names one of the two collections.
func (t ChunkType) Valid() bool {
	return t == ChunkFine || t == ChunkCoarse
}

// ChunkMetadata is attached to every stored chunk. Vector indexes only keep
// flat string maps, so it travels as the output of Flatten.
type ChunkMetadata struct {
	Title       string
	Authors     string // comma separated
	Year        int
	ArxivID     string
	URL         string
	Source      string
	UserID      string
	IngestedAt  time.Time
	ChunkIndex  int
	TotalChunks int
	ChunkLength int
	ChunkType   ChunkType
	CitationKey string
	Bibtex      string
	Extra       map[string]string
}

const (
	MetaTitle       = "title"
	MetaAuthors     = "authors"
	MetaYear        = "year"
	MetaArxivID     = "arxiv_id"
	MetaURL         = "url"
	MetaSource      = "source"
	MetaUserID      = "user_id"
	MetaIngestedAt  = "ingested_at"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaChunkLength = "chunk_length"
	MetaChunkType   = "chunk_type"
	MetaCitationKey = "citation_key"
	MetaBibtex      = "bibtex"
)

var reservedKeys = map[string]bool{
	MetaTitle: true, MetaAuthors: true, MetaYear: true, MetaArxivID: true,
	MetaURL: true, MetaSource: true, MetaUserID: true, MetaIngestedAt: true,
	MetaChunkIndex: true, MetaTotalChunks: true, MetaChunkLength: true,
	MetaChunkType: true, MetaCitationKey: true, MetaBibtex: true,
}

// NewChunkMetadata copies the paper fields shared by every chunk of a paper.
func NewChunkMetadata(p PaperMetadata) ChunkMetadata {
	return ChunkMetadata{
		Title:      p.Title,
		Authors:    strings.Join(p.Authors, ", "),
		Year:       p.Year,
		ArxivID:    p.ArxivID,
		URL:        p.URL,
		Source:     p.Source,
		UserID:     p.UserID,
		IngestedAt: p.IngestedAt,
		Extra:      p.Extra,
	}
}

// Flatten renders the metadata as string pairs. Empty fields are omitted;
// Extra entries never override named fields.
func (m ChunkMetadata) Flatten() map[string]string {
	out := make(map[string]string, len(reservedKeys)+len(m.Extra))
	for k, v := range m.Extra {
		if !reservedKeys[k] {
			out[k] = v
		}
	}

	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set(MetaTitle, m.Title)
	set(MetaAuthors, m.Authors)
	if m.Year > 0 {
		out[MetaYear] = strconv.Itoa(m.Year)
	}
	set(MetaArxivID, m.ArxivID)
	set(MetaURL, m.URL)
	set(MetaSource, m.Source)
	set(MetaUserID, m.UserID)
	if !m.IngestedAt.IsZero() {
		out[MetaIngestedAt] = m.IngestedAt.UTC().Format(time.RFC3339)
	}
	out[MetaChunkIndex] = strconv.Itoa(m.ChunkIndex)
	out[MetaTotalChunks] = strconv.Itoa(m.TotalChunks)
	out[MetaChunkLength] = strconv.Itoa(m.ChunkLength)
	set(MetaChunkType, string(m.ChunkType))
	set(MetaCitationKey, m.CitationKey)
	set(MetaBibtex, m.Bibtex)

	return out
}

// ParseChunkMetadata is the inverse of Flatten. Malformed numbers and times
// read as zero values.
func ParseChunkMetadata(meta map[string]string) ChunkMetadata {
	m := ChunkMetadata{
		Title:       meta[MetaTitle],
		Authors:     meta[MetaAuthors],
		ArxivID:     meta[MetaArxivID],
		URL:         meta[MetaURL],
		Source:      meta[MetaSource],
		UserID:      meta[MetaUserID],
		ChunkType:   ChunkType(meta[MetaChunkType]),
		CitationKey: meta[MetaCitationKey],
		Bibtex:      meta[MetaBibtex],
	}
	m.Year, _ = strconv.Atoi(meta[MetaYear])
	m.ChunkIndex, _ = strconv.Atoi(meta[MetaChunkIndex])
	m.TotalChunks, _ = strconv.Atoi(meta[MetaTotalChunks])
	m.ChunkLength, _ = strconv.Atoi(meta[MetaChunkLength])
	if ts, err := time.Parse(time.RFC3339, meta[MetaIngestedAt]); err == nil {
		m.IngestedAt = ts
	}

	for k, v := range meta {
		if reservedKeys[k] {
			continue
		}
		if m.Extra == nil {
			m.Extra = map[string]string{}
		}
		m.Extra[k] = v
	}
	return m
}

// AuthorList splits the flattened author string back into names.
func (m ChunkMetadata) AuthorList() []string {
	var out []string
	for _, a := range strings.Split(m.Authors, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
