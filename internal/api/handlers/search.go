package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nikhilbhutani/scholarrag/internal/citation"
	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/observability"
)

type Searcher interface {
	Search(ctx context.Context, query string, k int, granularity models.ChunkType) ([]models.SearchResult, error)
	SearchBoth(ctx context.Context, query string, kFine, kCoarse int) ([]models.SearchResult, error)
}

// SearchDefaults are used when a request leaves k unset.
type SearchDefaults struct {
	K       int
	KFine   int
	KCoarse int
}

type SearchHandler struct {
	store    Searcher
	matcher  *citation.Matcher
	defaults SearchDefaults
}

func NewSearchHandler(store Searcher, matcher *citation.Matcher, defaults SearchDefaults) *SearchHandler {
	return &SearchHandler{store: store, matcher: matcher, defaults: defaults}
}

type searchRequest struct {
	Query   string `json:"query"`
	K       int    `json:"k,omitempty"`
	KFine   int    `json:"k_fine,omitempty"`
	KCoarse int    `json:"k_coarse,omitempty"`
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query required"})
		return req, false
	}
	return req, true
}

// Search queries both collections.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	if req.KFine <= 0 {
		req.KFine = h.defaults.KFine
	}
	if req.KCoarse <= 0 {
		req.KCoarse = h.defaults.KCoarse
	}

	results, err := h.store.SearchBoth(r.Context(), req.Query, req.KFine, req.KCoarse)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

func (h *SearchHandler) SearchFine(w http.ResponseWriter, r *http.Request) {
	h.searchOne(w, r, models.ChunkFine)
}

func (h *SearchHandler) SearchCoarse(w http.ResponseWriter, r *http.Request) {
	h.searchOne(w, r, models.ChunkCoarse)
}

func (h *SearchHandler) searchOne(w http.ResponseWriter, r *http.Request, granularity models.ChunkType) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	if req.K <= 0 {
		req.K = h.defaults.K
	}

	results, err := h.store.Search(r.Context(), req.Query, req.K, granularity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

type suggestRequest struct {
	Text string `json:"text"`
}

// SuggestCitation reports whether text closely matches an ingested paper.
func (h *SearchHandler) SuggestCitation(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text required"})
		return
	}

	s, err := h.matcher.Suggest(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result := "no_match"
	if s.Match {
		result = "match"
	}
	observability.CitationSuggestionsTotal.WithLabelValues(result).Inc()
	writeJSON(w, http.StatusOK, s)
}
