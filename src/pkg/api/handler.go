// Package api exposes the media store over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/frame-vault/framevault/src/pkg/events"
	"github.com/frame-vault/framevault/src/pkg/history"
	"github.com/frame-vault/framevault/src/pkg/ledger"
	"github.com/frame-vault/framevault/src/pkg/normalize"
	"github.com/frame-vault/framevault/src/pkg/store"
)

const PathPrefix = "/api/v1"

const (
	reasonFileTooLarge      = "file_too_large"
	reasonUnsupportedFormat = "unsupported_format"
	reasonInvalidDimensions = "invalid_dimensions"
	reasonConversionFailed  = "conversion_failed"
	reasonStorageWrite      = "storage_write_failed"
	reasonLedgerIO          = "ledger_io_failure"
)

type Handler struct {
	store     *store.Store
	publisher *events.Publisher
	recorder  *history.Recorder
	maxUpload int64
}

// NewHandler wires the HTTP surface. recorder may be nil when history
// recording is disabled.
func NewHandler(s *store.Store, publisher *events.Publisher, recorder *history.Recorder, maxUpload int64) *Handler {
	return &Handler{
		store:     s,
		publisher: publisher,
		recorder:  recorder,
		maxUpload: maxUpload,
	}
}

// Register mounts every endpoint on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+PathPrefix+"/images", h.Upload)
	mux.HandleFunc("GET "+PathPrefix+"/images/{sequence}", h.ServeImage)
	mux.HandleFunc("GET "+PathPrefix+"/images/{sequence}/document", h.ServeDocument)
	mux.HandleFunc("POST "+PathPrefix+"/images/delete", h.Delete)
	mux.HandleFunc("POST "+PathPrefix+"/images/clear_all", h.ClearAll)
	mux.HandleFunc("GET "+PathPrefix+"/status", h.Status)
	mux.HandleFunc("GET "+PathPrefix+"/history", h.History)
	if h.publisher != nil {
		mux.HandleFunc("GET "+PathPrefix+"/events", h.publisher.Handler)
	}
}

// itemProjection is the item view returned by upload and status.
type itemProjection struct {
	Sequence    int    `json:"sequence"`
	Filename    string `json:"filename"`
	Timestamp   int64  `json:"timestamp"`
	URL         string `json:"url"`
	DocumentURL string `json:"document_url,omitempty"`
}

func projectItem(item ledger.Item) itemProjection {
	projection := itemProjection{
		Sequence:  item.Sequence,
		Filename:  item.Filename,
		Timestamp: item.Timestamp,
		URL:       fmt.Sprintf("%s/images/%d", PathPrefix, item.Sequence),
	}
	if item.DocumentFilename != "" {
		projection.DocumentURL = fmt.Sprintf("%s/images/%d/document", PathPrefix, item.Sequence)
	}
	return projection
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// Hard cap before any processing; the normalizer re-checks anyway.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1024)

	if parseErr := r.ParseMultipartForm(10 << 20); parseErr != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(parseErr, &maxBytesErr) {
			writeError(w, http.StatusBadRequest, reasonFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %s", parseErr.Error()))
		return
	}

	file, header, fileErr := r.FormFile("image")
	if fileErr != nil {
		writeError(w, http.StatusBadRequest, "no image data provided")
		return
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Warn("failed to close uploaded file", "error", closeErr)
		}
	}()

	name := r.FormValue("filename")
	if name == "" && header != nil {
		name = header.Filename
	}

	if header != nil && header.Size > h.maxUpload {
		writeError(w, http.StatusBadRequest, reasonFileTooLarge)
		return
	}

	raw, readErr := readAll(file, h.maxUpload)
	if readErr != nil {
		writeError(w, http.StatusBadRequest, reasonFileTooLarge)
		return
	}

	item, putErr := h.store.Put(raw, name)
	if putErr != nil {
		reason, status := errorReason(putErr)
		writeError(w, status, reason)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"image":   projectItem(item),
	})
}

func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	sequence, ok := parseSequence(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	path, found, lookupErr := h.store.ImagePath(sequence)
	if lookupErr != nil || !found {
		http.NotFound(w, r)
		return
	}

	serveFile(w, r, path, "image/png")
}

func (h *Handler) ServeDocument(w http.ResponseWriter, r *http.Request) {
	sequence, ok := parseSequence(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	path, found, lookupErr := h.store.DocumentPath(sequence)
	if lookupErr != nil || !found {
		http.NotFound(w, r)
		return
	}

	serveFile(w, r, path, "application/pdf")
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	items, listErr := h.store.List()
	if listErr != nil {
		writeError(w, http.StatusInternalServerError, reasonLedgerIO)
		return
	}

	projections := make([]itemProjection, 0, len(items))
	for _, item := range items {
		projections = append(projections, projectItem(item))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images":     projections,
		"count":      len(items),
		"max_images": h.store.Capacity(),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Sequence *int `json:"sequence"`
	}
	if decodeErr := json.NewDecoder(r.Body).Decode(&request); decodeErr != nil || request.Sequence == nil {
		writeError(w, http.StatusBadRequest, "sequence number required")
		return
	}

	found, deleteErr := h.store.Delete(*request.Sequence)
	if deleteErr != nil {
		reason, status := errorReason(deleteErr)
		writeError(w, status, reason)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) ClearAll(w http.ResponseWriter, r *http.Request) {
	count, clearErr := h.store.DeleteAll()
	if clearErr != nil {
		reason, status := errorReason(clearErr)
		writeError(w, status, reason)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"deleted_count": count,
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "history recording is disabled")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, recentErr := h.recorder.Recent(limit)
	if recentErr != nil {
		slog.Error("failed to query history", "error", recentErr)
		writeError(w, http.StatusInternalServerError, "failed to query history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": entries})
}

func parseSequence(r *http.Request) (int, bool) {
	sequence, parseErr := strconv.Atoi(r.PathValue("sequence"))
	if parseErr != nil || sequence < 1 {
		return 0, false
	}
	return sequence, true
}

func serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	if _, statErr := os.Stat(path); statErr != nil {
		slog.Warn("backing file missing", "path", path, "error", statErr)
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

// errorReason maps a store failure to the caller-visible taxonomy.
// Validation failures are the caller's fault; the rest are ours.
func errorReason(err error) (string, int) {
	switch {
	case errors.Is(err, normalize.ErrFileTooLarge):
		return reasonFileTooLarge, http.StatusBadRequest
	case errors.Is(err, normalize.ErrUnsupportedFormat):
		return reasonUnsupportedFormat, http.StatusBadRequest
	case errors.Is(err, normalize.ErrInvalidDimensions):
		return reasonInvalidDimensions, http.StatusBadRequest
	case errors.Is(err, normalize.ErrConversionFailed):
		return reasonConversionFailed, http.StatusBadRequest
	case errors.Is(err, store.ErrStorageWrite):
		return reasonStorageWrite, http.StatusInternalServerError
	case errors.Is(err, ledger.ErrLedgerIO):
		return reasonLedgerIO, http.StatusInternalServerError
	default:
		return err.Error(), http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		slog.Warn("failed to encode JSON response", "error", encodeErr)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
