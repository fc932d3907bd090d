package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	owerrors "github.com/Aman-CERP/otherwords/internal/errors"
	"github.com/Aman-CERP/otherwords/internal/store"
)

type handlers struct {
	index  Querier
	logger *slog.Logger
}

// SignatureResponse is returned by /api/signatures/{signature}.
type SignatureResponse struct {
	Signature string      `json:"signature"`
	Hits      []store.Hit `json:"hits"`

	// Note explains why a signature that is not canonical has no hits.
	Note string `json:"note,omitempty"`
}

// SourcesResponse is returned by /api/sources.
type SourcesResponse struct {
	Sources []store.SourceRecord `json:"sources"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) find(w http.ResponseWriter, r *http.Request) {
	res, err := h.index.Find(r.Context(), r.URL.Query().Get("phrase"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handlers) lookup(w http.ResponseWriter, r *http.Request) {
	sig := chi.URLParam(r, "signature")
	hits, err := h.index.Lookup(r.Context(), sig)
	if err != nil {
		h.writeError(w, err)
		return
	}
	resp := SignatureResponse{Signature: strings.ToUpper(sig), Hits: hits}
	if err := h.index.CheckSignature(sig); err != nil {
		resp.Note = owerrors.FormatInline(err)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) sources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.index.Sources(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if sources == nil {
		sources = []store.SourceRecord{}
	}
	h.writeJSON(w, http.StatusOK, SourcesResponse{Sources: sources})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.index.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("http_encode_failed", slog.String("error", err.Error()))
	}
}

func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("http_query_failed", owerrors.LogAttrs(err)...)
	}

	body, encErr := owerrors.FormatJSON(err)
	if encErr != nil {
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch owerrors.GetCode(err) {
	case owerrors.ErrCodeIndexLocked:
		return http.StatusServiceUnavailable
	case owerrors.ErrCodeSourceNotFound:
		return http.StatusNotFound
	}
	if owerrors.GetCategory(err) == owerrors.CategoryValidation {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
