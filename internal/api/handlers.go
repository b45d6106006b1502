package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler holds API route handlers.
type Handler struct {
	svc       *Service
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service, maxUpload int64) *Handler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{svc: svc, maxUpload: maxUpload, logger: svc.logger}
}

// Convert handles POST /api/convert.
//
//	@Summary		Convert an uploaded journal export into a vault
//	@Tags			conversions
//	@Accept			multipart/form-data
//	@Produce		application/zip
//	@Param			file	formData	file	true	"Journal export (.zip)"
//	@Param			dedup	formData	bool	false	"Skip identical repeats (default true)"
//	@Success		200
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	file, name, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	defer file.Close()

	dedup := r.FormValue("dedup") != "false"
	conv, err := h.svc.Convert(r.Context(), file, name, dedup)
	if err != nil {
		writeError(w, h.logger, "convert", err, slog.String("source", name))
		return
	}
	defer func() {
		if err := conv.Cleanup(); err != nil {
			h.logger.Warn("workspace cleanup failed", slog.String("id", conv.Run.ID), slog.String("error", err.Error()))
		}
	}()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="vault.zip"`)
	w.Header().Set(HeaderRunID, conv.Run.ID)
	w.Header().Set(HeaderConverted, strconv.Itoa(conv.Run.Converted))
	w.Header().Set(HeaderSkipped, strconv.Itoa(conv.Run.Skipped))
	w.WriteHeader(http.StatusOK)
	if err := writeZip(w, conv.VaultDir); err != nil {
		h.logger.Error("stream vault failed", slog.String("id", conv.Run.ID), slog.String("error", err.Error()))
	}
}

// ListConversions handles GET /api/conversions.
//
//	@Summary		List recent conversions
//	@Tags			conversions
//	@Produce		json
//	@Param			limit	query		int		false	"Maximum number of runs"
//	@Success		200		{object}	ConversionListResponse
//	@Security		BearerAuth
//	@Router			/conversions [get]
func (h *Handler) ListConversions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.svc.ListRuns(limit)
	if err != nil {
		writeError(w, h.logger, "list conversions", err)
		return
	}
	writeJSON(w, http.StatusOK, ConversionListResponse{Conversions: runs})
}

// GetConversion handles GET /api/conversions/{id}.
//
//	@Summary		Get one conversion
//	@Tags			conversions
//	@Produce		json
//	@Param			id	path		string	true	"Run ID"
//	@Success		200	{object}	models.Run
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/conversions/{id} [get]
func (h *Handler) GetConversion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.svc.GetRun(id)
	if err != nil {
		writeError(w, h.logger, "get conversion", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>dayvault</title></head>
<body>
<h1>dayvault</h1>
<p>Upload a journal export (.zip) to receive a Markdown vault.</p>
<form method="post" action="/api/convert" enctype="multipart/form-data">
<input type="file" name="file" accept=".zip" required>
<label><input type="checkbox" name="dedup" value="false"> keep identical repeats</label>
<button type="submit">Convert</button>
</form>
</body>
</html>
`

// IndexPage serves the upload form at GET /.
func IndexPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}
