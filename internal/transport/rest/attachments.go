package rest

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
	"github.com/applytrack/applytrack-backend/internal/service/attachment"
)

type attachmentPayload struct {
	ID            uuid.UUID `json:"id"`
	ApplicationID uuid.UUID `json:"application_id"`
	FileName      string    `json:"file_name"`
	ByteSize      int64     `json:"byte_size"`
	ContentType   string    `json:"content_type"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

func toAttachmentPayload(att *domain.Attachment) attachmentPayload {
	return attachmentPayload{
		ID:            att.ID,
		ApplicationID: att.ApplicationID,
		FileName:      att.FileName,
		ByteSize:      att.ByteSize,
		ContentType:   att.ContentType,
		UploadedAt:    att.UploadedAt,
	}
}

// uploadAttachment accepts a multipart form with a single "file" part.
func (h *Handler) uploadAttachment(w http.ResponseWriter, r *http.Request) {
	appID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	if err := r.ParseMultipartForm(attachment.MaxUploadBytes); err != nil {
		writeError(w, h.log, r, domain.NewValidationError("body", "malformed multipart form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, h.log, r, domain.NewValidationError("file", "is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, attachment.MaxUploadBytes+1))
	if err != nil {
		writeError(w, h.log, r, fmt.Errorf("read upload: %w", err))
		return
	}

	created, err := h.attachments.Upload(r.Context(), attachment.UploadInput{
		ApplicationID: appID,
		FileName:      header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Data:          data,
	})
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttachmentPayload(created))
}

func (h *Handler) listAttachments(w http.ResponseWriter, r *http.Request) {
	appID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	atts, err := h.attachments.List(r.Context(), appID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	payload := make([]attachmentPayload, 0, len(atts))
	for _, att := range atts {
		payload = append(payload, toAttachmentPayload(att))
	}
	writeJSON(w, http.StatusOK, map[string]any{"attachments": payload})
}

func (h *Handler) downloadAttachment(w http.ResponseWriter, r *http.Request) {
	appID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	attID, err := pathUUID(r, "attachmentID")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	att, data, err := h.attachments.Download(r.Context(), appID, attID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) deleteAttachment(w http.ResponseWriter, r *http.Request) {
	appID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	attID, err := pathUUID(r, "attachmentID")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	if err := h.attachments.Delete(r.Context(), appID, attID); err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
