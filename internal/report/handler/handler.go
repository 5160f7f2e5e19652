package handler

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"gastro/internal/platform/metrics"
	"gastro/internal/platform/middleware"
	"gastro/internal/report"
	"gastro/internal/transport/http/shared"
	dErrors "gastro/pkg/domain-errors"
	"gastro/pkg/platform/sentinel"
)

const invalidDateMessage = "Invalid date format. Expected YYYY-MM-DD"

// Handler exposes the day-report archive endpoints.
type Handler struct {
	logger         *slog.Logger
	archive        *report.Archive
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

func New(archive *report.Archive, maxUploadBytes int64, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:         logger,
		archive:        archive,
		metrics:        m,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register registers the report routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/raports/archive", h.handleArchive)
	r.Post("/raports/upload-gz", h.handleUploadGz)
	r.Get("/raports/day", h.handleDay)
	r.Get("/raports/download", h.handleDownload)
	r.Get("/raports/list", h.handleList)
	r.Get("/raports/exists", h.handleExists)
}

type archiveResponse struct {
	Status       string `json:"status"`
	Date         string `json:"date"`
	EntriesAdded int    `json:"entries_added"`
	TotalEntries int    `json:"total_entries"`
	File         string `json:"file"`
}

// handleArchive appends one entry from an uncompressed JSON body. A missing
// Date means the server's current date.
func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Expected JSON object"))
		return
	}

	day := time.Now()
	var dateStr string
	if raw, ok := body["Date"]; ok {
		if err := json.Unmarshal(raw, &dateStr); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, invalidDateMessage))
			return
		}
	}
	if dateStr != "" {
		parsed, err := report.ParseDate(dateStr)
		if err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, invalidDateMessage))
			return
		}
		day = parsed
	}

	entry := report.Entry{
		ReceivedAt: report.ReceivedAtStamp(time.Now()),
		Date:       day.Format(report.DateLayout),
		Source:     body["Source"],
		Payload:    body["Payload"],
	}
	raw, err := entry.Marshal()
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode archive entry", "error", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to archive entry"))
		return
	}

	h.appendAndRespond(w, r, day, []json.RawMessage{raw})
}

// handleUploadGz bulk-appends entries from a raw gzip(JSON) body. Size is
// checked before decompression.
func (h *Handler) handleUploadGz(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, h.maxUploadBytes+1))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read body"))
		return
	}
	if len(raw) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Empty body"))
		return
	}
	if int64(len(raw)) > h.maxUploadBytes {
		shared.WriteError(w, dErrors.Newf(dErrors.CodePayloadTooLarge, "Body too large. Limit=%d bytes", h.maxUploadBytes))
		return
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid gzip or JSON"))
		return
	}
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid gzip or JSON"))
		return
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(decompressed, &obj); err != nil || obj == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Decoded report must be a JSON object"))
		return
	}

	var dateStr string
	if rawDate, ok := obj["Date"]; ok {
		_ = json.Unmarshal(rawDate, &dateStr)
	}
	if dateStr == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing Date in uploaded report"))
		return
	}
	day, err := report.ParseDate(dateStr)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, invalidDateMessage))
		return
	}

	entries, err := report.EntriesFromUpload(obj, time.Now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to extract upload entries", "error", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to archive upload"))
		return
	}

	h.appendAndRespond(w, r, day, entries)
}

func (h *Handler) appendAndRespond(w http.ResponseWriter, r *http.Request, day time.Time, entries []json.RawMessage) {
	ctx := r.Context()
	merged, err := h.archive.Append(day, entries)
	if err != nil {
		h.logger.ErrorContext(ctx, "report append failed",
			"date", day.Format(report.DateLayout),
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to write report"))
		return
	}

	h.metrics.ReportEntriesAppended.Add(float64(len(entries)))
	shared.WriteJSON(w, http.StatusOK, archiveResponse{
		Status:       "ok",
		Date:         merged.Date,
		EntriesAdded: len(entries),
		TotalEntries: len(merged.Entries),
		File:         h.archive.Path(day),
	})
}

// handleDay returns the decompressed, normalized report document.
func (h *Handler) handleDay(w http.ResponseWriter, r *http.Request) {
	day, ok := h.queryDate(w, r)
	if !ok {
		return
	}

	rep, err := h.archive.ReadDay(day)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Report not found"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report read failed", "error", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to read report"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, rep)
}

// handleDownload streams the raw compressed file as an attachment.
func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	day, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	if !h.archive.Exists(day) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "Report not found"))
		return
	}

	path := h.archive.Path(day)
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.archive.List(r.URL.Query().Get("year"), r.URL.Query().Get("month"))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report list failed", "error", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to list reports"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"Items": items})
}

func (h *Handler) handleExists(w http.ResponseWriter, r *http.Request) {
	day, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"Date":   day.Format(report.DateLayout),
		"Exists": h.archive.Exists(day),
	})
}

// queryDate parses the required ?date=YYYY-MM-DD parameter, writing the
// error response itself when the parameter is missing or malformed.
func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing query param: date=YYYY-MM-DD"))
		return time.Time{}, false
	}
	day, err := report.ParseDate(dateStr)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, invalidDateMessage))
		return time.Time{}, false
	}
	return day, true
}
