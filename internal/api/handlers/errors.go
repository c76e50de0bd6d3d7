package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nikhilbhutani/scholarrag/internal/rag"
	"github.com/nikhilbhutani/scholarrag/pkg/textextract"
)

// writeError maps the store's error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var partial *rag.PartialIngestionError

	switch {
	case rag.IsInputError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, textextract.ErrUnsupportedType):
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": err.Error()})
	case errors.As(err, &partial):
		slog.ErrorContext(r.Context(), "partial ingestion", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":       err.Error(),
			"written":     partial.Written,
			"failed":      partial.Failed,
			"written_ids": partial.WrittenIDs,
		})
	case errors.Is(err, rag.ErrEmbedding):
		slog.ErrorContext(r.Context(), "embedding provider error", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		slog.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
