package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nikhilbhutani/scholarrag/internal/citation"
	"github.com/nikhilbhutani/scholarrag/internal/models"
	"github.com/nikhilbhutani/scholarrag/internal/queue"
	"github.com/nikhilbhutani/scholarrag/internal/rag"
	"github.com/nikhilbhutani/scholarrag/pkg/textextract"
)

type Ingester interface {
	IngestDocument(ctx context.Context, text string, paper models.PaperMetadata) (*rag.IngestResult, error)
}

type Enqueuer interface {
	EnqueuePaperIngest(ctx context.Context, payload queue.PaperIngestPayload) (string, error)
}

type PaperHandler struct {
	ingester    Ingester
	enqueuer    Enqueuer // nil when Redis is not configured
	maxUploadMB int
}

func NewPaperHandler(ingester Ingester, enqueuer Enqueuer, maxUploadMB int) *PaperHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	return &PaperHandler{ingester: ingester, enqueuer: enqueuer, maxUploadMB: maxUploadMB}
}

type ingestRequest struct {
	Text     string               `json:"text"`
	Metadata models.PaperMetadata `json:"metadata"`
}

func (h *PaperHandler) decode(w http.ResponseWriter, r *http.Request) (ingestRequest, bool) {
	var req ingestRequest
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.maxUploadMB)<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "text required"})
		return req, false
	}
	return req, true
}

// Ingest chunks and stores a paper supplied as JSON text plus metadata.
func (h *PaperHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.ingester.IngestDocument(r.Context(), req.Text, req.Metadata)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Enqueue accepts the same body as Ingest and hands it to the worker.
func (h *PaperHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "async ingestion requires redis"})
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	taskID, err := h.enqueuer.EnqueuePaperIngest(r.Context(), queue.PaperIngestPayload{
		Text:  req.Text,
		Paper: req.Metadata,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "task_id": taskID})
}

// Upload extracts text from a PDF, DOCX or TXT file and ingests it. Form
// fields title, authors (comma separated), year, arxiv_id and url override
// what the file itself declares.
func (h *PaperHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(int64(h.maxUploadMB) << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read file: " + err.Error()})
		return
	}

	fileType := textextract.DetectType(header.Filename, header.Header.Get("Content-Type"))
	extracted, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), fileType)
	if err != nil {
		if errors.Is(err, textextract.ErrUnsupportedType) {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	paper, err := paperFromForm(r, header.Filename, extracted)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res, err := h.ingester.IngestDocument(r.Context(), extracted.Content, paper)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"result": res,
		"pages":  extracted.Pages,
		"paper":  paper,
	})
}

func paperFromForm(r *http.Request, filename string, ex *textextract.ExtractedText) (models.PaperMetadata, error) {
	p := models.PaperMetadata{
		Title:   r.FormValue("title"),
		ArxivID: r.FormValue("arxiv_id"),
		URL:     r.FormValue("url"),
		Source:  "upload:" + filepath.Base(filename),
	}

	if p.Title == "" {
		p.Title = ex.Metadata["title"]
	}
	if p.Title == "" {
		p.Title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	authors := r.FormValue("authors")
	if authors == "" {
		authors = ex.Metadata["author"]
	}
	for _, a := range strings.Split(authors, ",") {
		if a = strings.TrimSpace(a); a != "" {
			p.Authors = append(p.Authors, a)
		}
	}

	if y := r.FormValue("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return p, errors.New("year must be a number")
		}
		p.Year = year
	}

	if p.ArxivID == "" {
		p.ArxivID = citation.ExtractArxivID(filename)
	}
	return p, nil
}
