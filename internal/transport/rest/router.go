// Package rest exposes the HTTP API. Handlers translate between JSON and
// the service layer; all business rules live below.
package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/applytrack/applytrack-backend/internal/transport/middleware"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler bundles the HTTP handlers and their dependencies.
type Handler struct {
	apps        ApplicationService
	attachments AttachmentService
	dispatcher  DispatcherService
	audit       AuditService
	db          Pinger
	log         *slog.Logger
}

// NewHandler creates the REST handler set.
func NewHandler(
	log *slog.Logger,
	apps ApplicationService,
	attachments AttachmentService,
	dispatcher DispatcherService,
	audit AuditService,
	db Pinger,
) *Handler {
	return &Handler{
		apps:        apps,
		attachments: attachments,
		dispatcher:  dispatcher,
		audit:       audit,
		db:          db,
		log:         log.With("component", "rest"),
	}
}

// Routes mounts the API onto a fresh mux. The auth middleware is applied by
// the caller around everything except the health probe.
func (h *Handler) Routes(authMW middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", h.healthLive)
	mux.HandleFunc("GET /health/ready", h.healthReady)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/v1/applications", h.createApplication)
	api.HandleFunc("GET /api/v1/applications", h.listApplications)
	api.HandleFunc("GET /api/v1/applications/{id}", h.getApplication)
	api.HandleFunc("PATCH /api/v1/applications/{id}", h.updateApplication)
	api.HandleFunc("DELETE /api/v1/applications/{id}", h.deleteApplication)

	api.HandleFunc("POST /api/v1/applications/{id}/attachments", h.uploadAttachment)
	api.HandleFunc("GET /api/v1/applications/{id}/attachments", h.listAttachments)
	api.HandleFunc("GET /api/v1/applications/{id}/attachments/{attachmentID}", h.downloadAttachment)
	api.HandleFunc("DELETE /api/v1/applications/{id}/attachments/{attachmentID}", h.deleteAttachment)

	api.HandleFunc("POST /api/v1/applications/{id}/analysis", h.submitAnalysis)
	api.HandleFunc("GET /api/v1/jobs/{id}", h.getJob)

	api.HandleFunc("GET /api/v1/audit", h.queryAudit)
	api.HandleFunc("GET /api/v1/audit/latency", h.responseLatency)

	api.Handle("GET /api/v1/admin/audit",
		middleware.Chain(http.HandlerFunc(h.queryAudit), middleware.RequireAdmin()))

	mux.Handle("/api/v1/", authMW(api))
	return mux
}

func (h *Handler) healthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) healthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.log.ErrorContext(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
