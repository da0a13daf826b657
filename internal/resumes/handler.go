package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"resumeai-backend/internal/documents"
	"resumeai-backend/internal/shared/server/respond"
	"resumeai-backend/internal/shared/storage/object"
)

const (
	defaultMaxUploadBytes = 20 << 20
	// Room for multipart boundaries and the text fields.
	formOverheadBytes = 64 << 10
)

// Handler wires HTTP handlers to the resumes service.
type Handler struct {
	Svc            *Service
	MaxUploadBytes int64
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{Svc: svc, MaxUploadBytes: maxUploadBytes}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.ingest)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.get)
	rg.GET("/resumes/:id/file", h.file)
	rg.GET("/resumes/:id/image", h.image)
	rg.DELETE("/resumes/:id", h.retire)
}

// RegisterDevRoutes attaches destructive maintenance routes.
func (h *Handler) RegisterDevRoutes(rg *gin.RouterGroup) {
	rg.POST("/wipe", h.wipe)
}

type resumeView struct {
	Record
	Name     string `json:"name"`
	Complete bool   `json:"complete"`
}

func viewOf(rec Record) resumeView {
	return resumeView{Record: rec, Name: rec.DisplayName(), Complete: rec.IsComplete()}
}

type deletionView struct {
	Resource Resource `json:"resource"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
}

func deletionViews(errs []DeletionError) []deletionView {
	out := make([]deletionView, 0, len(errs))
	for _, e := range errs {
		out = append(out, deletionView{Resource: e.Resource, Path: e.Path, Message: e.Error()})
	}
	return out
}

func (h *Handler) ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+formOverheadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}
	if fh.Size > h.MaxUploadBytes {
		h.tooLarge(c)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	info, err := documents.Inspect(fh.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotPDF):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "only PDF files are supported", gin.H{"mimeType": info.MimeType})
		case errors.Is(err, documents.ErrNoPages):
			respond.Error(c, http.StatusUnprocessableEntity, "no_pages", "PDF has no pages", nil)
		default:
			respond.Error(c, http.StatusBadRequest, "validation_error", "file is empty", []map[string]string{
				{"field": "file", "issue": "empty"},
			})
		}
		return
	}

	in := IngestInput{
		FileName:       fh.Filename,
		Data:           data,
		CompanyName:    strings.TrimSpace(c.PostForm("companyName")),
		JobTitle:       strings.TrimSpace(c.PostForm("jobTitle")),
		JobDescription: strings.TrimSpace(c.PostForm("jobDescription")),
		Pages:          info.Pages,
	}

	if wantsEventStream(c) {
		h.ingestStream(c, in)
		return
	}

	var statuses []Status
	rec, err := h.Svc.Ingest(context.WithoutCancel(c.Request.Context()), in, func(st Status) {
		statuses = append(statuses, st)
	})
	if err != nil {
		status, code, message, details := ingestFailure(err, statuses)
		c.Set("stage", string(details.Stage))
		c.Set("resumeId", details.ResumeID)
		respond.Error(c, status, code, message, details)
		return
	}

	c.Set("resumeId", rec.ID)
	respond.Created(c, gin.H{
		"resume":   viewOf(rec),
		"statuses": statuses,
		"pages":    in.Pages,
	})
}

func (h *Handler) ingestStream(c *gin.Context, in IngestInput) {
	sse, err := respond.NewSSEWriter(c.Writer)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "streaming not supported", nil)
		return
	}

	var statuses []Status
	// Ingest finishes after a client disconnect; later events are dropped.
	rec, err := h.Svc.Ingest(context.WithoutCancel(c.Request.Context()), in, func(st Status) {
		statuses = append(statuses, st)
		sse.WriteEvent("status", st) //nolint:errcheck
	})
	if err != nil {
		_, code, message, details := ingestFailure(err, statuses)
		c.Set("stage", string(details.Stage))
		c.Set("resumeId", details.ResumeID)
		sse.WriteError(code, message, details)
		return
	}

	c.Set("resumeId", rec.ID)
	sse.WriteEvent("complete", gin.H{"resume": viewOf(rec), "pages": in.Pages}) //nolint:errcheck
}

type ingestFailureDetails struct {
	Stage    Stage    `json:"stage,omitempty"`
	ResumeID string   `json:"resumeId,omitempty"`
	Statuses []Status `json:"statuses"`
}

func ingestFailure(err error, statuses []Status) (int, string, string, ingestFailureDetails) {
	details := ingestFailureDetails{Statuses: statuses}
	message := "failed to ingest resume"
	var ie *IngestError
	if errors.As(err, &ie) {
		details.Stage = ie.Stage
		details.ResumeID = ie.ResumeID
		message = ie.Message
	}
	if details.Statuses == nil {
		details.Statuses = []Status{}
	}

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, "validation_error", err.Error(), details
	case errors.Is(err, ErrConversionFailed):
		return http.StatusUnprocessableEntity, "conversion_failed", message, details
	case errors.Is(err, ErrMalformedFeedback):
		return http.StatusUnprocessableEntity, "malformed_feedback", message, details
	case errors.Is(err, ErrUploadFailed):
		return http.StatusBadGateway, "upload_failed", message, details
	case errors.Is(err, ErrPersistFailed):
		return http.StatusBadGateway, "persist_failed", message, details
	case errors.Is(err, ErrAnalysisFailed):
		return http.StatusBadGateway, "analysis_failed", message, details
	default:
		return http.StatusInternalServerError, "internal_error", message, details
	}
}

func (h *Handler) list(c *gin.Context) {
	recs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list resumes", nil)
		return
	}
	out := make([]resumeView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, viewOf(rec))
	}
	respond.OK(c, out)
}

func (h *Handler) get(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, viewOf(rec))
}

func (h *Handler) file(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	h.stream(c, rec.ResumePath)
}

func (h *Handler) image(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	h.stream(c, rec.ImagePath)
}

func (h *Handler) load(c *gin.Context) (Record, bool) {
	id := c.Param("id")
	rec, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "resume id is required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load resume", nil)
		}
		return Record{}, false
	}
	return rec, true
}

func (h *Handler) stream(c *gin.Context, storageKey string) {
	rc, err := h.Svc.Open(c.Request.Context(), storageKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open file", nil)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(storageKey)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("inline; filename=%q", path.Base(storageKey)),
	})
}

func (h *Handler) retire(c *gin.Context) {
	id := c.Param("id")
	// Deletions settle even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())
	res, err := h.Svc.RetireByID(ctx, id, nil)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "resume id is required", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "resume not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete resume", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"id":      res.ID,
		"errors":  deletionViews(res.Errors),
		"refresh": res.NeedsRefresh(),
		"message": res.Message(),
	})
}

func (h *Handler) wipe(c *gin.Context) {
	res, err := h.Svc.Wipe(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to wipe storage", nil)
		return
	}
	respond.OK(c, gin.H{
		"deleted": res.Deleted,
		"errors":  deletionViews(res.Errors),
	})
}

func (h *Handler) tooLarge(c *gin.Context) {
	respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file is too large", gin.H{"maxBytes": h.MaxUploadBytes})
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
