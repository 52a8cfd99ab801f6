package rest

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

type analysisPayload struct {
	ID          uuid.UUID `json:"id"`
	SubjectID   uuid.UUID `json:"subject_id"`
	Fingerprint string    `json:"fingerprint"`
	Score       int       `json:"score"`
	Findings    []string  `json:"findings"`
	Suggestions []string  `json:"suggestions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAnalysisPayload(a *domain.Analysis) *analysisPayload {
	return &analysisPayload{
		ID:          a.ID,
		SubjectID:   a.SubjectID,
		Fingerprint: a.InputFingerprint,
		Score:       a.Result.Score,
		Findings:    a.Result.Findings,
		Suggestions: a.Result.Suggestions,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type jobPayload struct {
	ID            uuid.UUID              `json:"id"`
	State         string                 `json:"state"`
	Progress      int                    `json:"progress"`
	Attempts      int                    `json:"attempts"`
	Result        *domain.AnalysisResult `json:"result,omitempty"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func toJobPayload(job *domain.AnalysisJob) jobPayload {
	return jobPayload{
		ID:            job.ID,
		State:         job.State.String(),
		Progress:      job.Progress,
		Attempts:      job.Attempts,
		Result:        job.Result,
		FailureReason: job.FailureReason,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

type submitAnalysisRequest struct {
	Input string `json:"input"`
}

type submitAnalysisResponse struct {
	Mode     string           `json:"mode"`
	JobID    *uuid.UUID       `json:"job_id,omitempty"`
	Analysis *analysisPayload `json:"analysis,omitempty"`
}

// submitAnalysis runs or enqueues a fit analysis. Sync mode answers 200 with
// the analysis; queued mode answers 202 with a job id to poll.
func (h *Handler) submitAnalysis(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	var req submitAnalysisRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	res, err := h.dispatcher.Submit(r.Context(), subjectID, req.Input)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	resp := submitAnalysisResponse{Mode: res.Mode, JobID: res.JobID}
	status := http.StatusAccepted
	if res.Analysis != nil {
		resp.Analysis = toAnalysisPayload(res.Analysis)
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	job, err := h.dispatcher.GetStatus(r.Context(), jobID)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobPayload(job))
}
