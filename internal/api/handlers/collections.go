package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
)

type CollectionStore interface {
	Stats(ctx context.Context) (rag.Stats, error)
	ListChunks(ctx context.Context, granularity models.ChunkType) ([]rag.ChunkPreview, error)
	DeleteAll(ctx context.Context) error
}

type CollectionHandler struct {
	store CollectionStore
}

func NewCollectionHandler(store CollectionStore) *CollectionHandler {
	return &CollectionHandler{store: store}
}

func (h *CollectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *CollectionHandler) ListChunks(w http.ResponseWriter, r *http.Request) {
	granularity := models.ChunkType(chi.URLParam(r, "granularity"))

	chunks, err := h.store.ListChunks(r.Context(), granularity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": chunks, "count": len(chunks)})
}

func (h *CollectionHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAll(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
