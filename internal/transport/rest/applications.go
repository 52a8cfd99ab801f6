package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/internal/service/application"
)

type applicationPayload struct {
	ID        uuid.UUID `json:"id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	Status    string    `json:"status"`
	URL       *string   `json:"url,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toApplicationPayload(app *domain.Application) applicationPayload {
	return applicationPayload{
		ID:        app.ID,
		Company:   app.Company,
		Position:  app.Position,
		Status:    app.Status.String(),
		URL:       app.URL,
		Notes:     app.Notes,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
}

type createApplicationRequest struct {
	Company  string  `json:"company"`
	Position string  `json:"position"`
	Status   string  `json:"status"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
}

func (h *Handler) createApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	created, err := h.apps.Create(r.Context(), application.CreateInput{
		Company:  req.Company,
		Position: req.Position,
		Status:   domain.ApplicationStatus(req.Status),
		URL:      req.URL,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplicationPayload(created))
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.apps.List(r.Context())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	payload := make([]applicationPayload, 0, len(apps))
	for _, app := range apps {
		payload = append(payload, toApplicationPayload(app))
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": payload})
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	app, err := h.apps.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationPayload(app))
}

type updateApplicationRequest struct {
	Company  *string `json:"company"`
	Position *string `json:"position"`
	Status   *string `json:"status"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
}

func (h *Handler) updateApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	var req updateApplicationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	params := domain.ApplicationUpdateParams{
		Company:  req.Company,
		Position: req.Position,
		URL:      req.URL,
		Notes:    req.Notes,
	}
	if req.Status != nil {
		status := domain.ApplicationStatus(*req.Status)
		params.Status = &status
	}

	updated, err := h.apps.Update(r.Context(), application.UpdateInput{
		ApplicationID: id,
		Params:        params,
	})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationPayload(updated))
}

func (h *Handler) deleteApplication(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	if err := h.apps.Delete(r.Context(), id); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
