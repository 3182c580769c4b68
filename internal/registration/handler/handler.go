package handler

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ekaa/internal/export"
	"ekaa/internal/registration/models"
	dErrors "ekaa/pkg/domain-errors"
	"ekaa/pkg/platform/httputil"
	"ekaa/pkg/requestcontext"
)

//go:embed static/registration.html
var registrationPage []byte

// Service defines the registration operations the handler needs.
type Service interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.Registration, error)
	List(ctx context.Context) ([]*models.Registration, error)
	Export(ctx context.Context) (*bytes.Buffer, int, error)
}

// Handler serves the public form and the admin registration views.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new registration Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the public and admin registration routes.
// Access control is applied by the router before these handlers run.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/registration", h.handleForm)
	r.Post("/registration", h.handleSubmit)
	r.Get("/admin/registrations", h.handleList)
	r.Get("/admin/export-excel", h.handleExport)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/registration", http.StatusFound)
}

func (h *Handler) handleForm(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(registrationPage)
}

// handleSubmit accepts a JSON submission. Validation failures and malformed
// bodies both answer 400 with the form's message shape.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid registration body",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, models.SubmitResponse{Message: models.MessageRequiredFields})
		return
	}

	reg, err := h.service.Submit(ctx, &req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.InfoContext(ctx, "registration rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
			httputil.WriteJSON(w, http.StatusBadRequest, models.SubmitResponse{Message: validationMessage(err)})
			return
		}
		h.logger.ErrorContext(ctx, "failed to submit registration",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "registration created",
		"request_id", requestID,
		"registration_id", reg.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, models.SubmitResponse{Message: models.MessageSubmitted})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	regs, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list registrations",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	if regs == nil {
		regs = []*models.Registration{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.ListResponse{Registrations: regs, Count: len(regs)})
}

// handleExport streams the spreadsheet only after it was fully built, so a
// failure never leaves a truncated attachment behind.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	buf, rows, err := h.service.Export(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to export registrations",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(ctx, "export write interrupted",
			"request_id", requestID,
			"error", err.Error(),
		)
		return
	}
	h.logger.InfoContext(ctx, "registrations exported",
		"request_id", requestID,
		"rows", rows,
	)
}

func validationMessage(err error) string {
	if de, ok := dErrors.As(err); ok && de.Message != "" {
		return de.Message
	}
	return models.MessageRequiredFields
}
