package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

type auditEntryPayload struct {
	ID         uuid.UUID        `json:"id"`
	ActorID    uuid.UUID        `json:"actor_id"`
	EntityType string           `json:"entity_type"`
	EntityID   uuid.UUID        `json:"entity_id"`
	Action     string           `json:"action"`
	Before     *domain.Snapshot `json:"before,omitempty"`
	After      *domain.Snapshot `json:"after,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toAuditEntryPayload(e domain.AuditEntry) auditEntryPayload {
	return auditEntryPayload{
		ID:         e.ID,
		ActorID:    e.ActorID,
		EntityType: e.EntityType.String(),
		EntityID:   e.EntityID,
		Action:     e.Action.String(),
		Before:     e.Before,
		After:      e.After,
		CreatedAt:  e.CreatedAt,
	}
}

// queryAudit parses the filter from query parameters:
// actor_id, entity_type, entity_id, action, from, to (RFC 3339), page, page_size.
func (h *Handler) queryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter domain.AuditFilter
	if raw := q.Get("actor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, h.log, r, domain.NewValidationError("actor_id", "must be a UUID"))
			return
		}
		filter.ActorID = id
	}
	if raw := q.Get("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, h.log, r, domain.NewValidationError("entity_id", "must be a UUID"))
			return
		}
		filter.EntityID = id
	}
	filter.EntityType = domain.EntityType(q.Get("entity_type"))
	filter.Action = domain.AuditAction(q.Get("action"))

	for name, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, h.log, r, domain.NewValidationError(name, "must be RFC 3339"))
			return
		}
		*dst = ts
	}

	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	res, err := h.audit.Query(r.Context(), filter, page, pageSize)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	entries := make([]auditEntryPayload, 0, len(res.Entries))
	for _, e := range res.Entries {
		entries = append(entries, toAuditEntryPayload(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":   entries,
		"total":     res.Total,
		"page":      res.Page,
		"page_size": res.PageSize,
	})
}

func (h *Handler) responseLatency(w http.ResponseWriter, r *http.Request) {
	report, err := h.audit.ResponseLatency(r.Context())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"average_seconds": report.Average.Seconds(),
		"count":           report.Count,
	})
}
