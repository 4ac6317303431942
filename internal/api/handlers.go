package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"

	"crewpay-orchestrator/internal/config"
	"crewpay-orchestrator/internal/domain"
	"crewpay-orchestrator/internal/storage"
	appTemporal "crewpay-orchestrator/internal/temporal"
)

// runTimeout bounds a synchronous run end to end: four single-attempt
// activities at two minutes each, plus headroom.
const runTimeout = 10 * time.Minute

type Handler struct {
	cfg            config.Config
	store          *storage.PostgresStore
	blob           documentBlobStore
	temporalClient client.Client
	log            zerolog.Logger
}

type documentBlobStore interface {
	PutSupportingDocument(ctx context.Context, claimID, filename string, content []byte) (string, error)
}

func NewHandler(cfg config.Config, store *storage.PostgresStore, blob documentBlobStore, temporalClient client.Client, log zerolog.Logger) *Handler {
	return &Handler{cfg: cfg, store: store, blob: blob, temporalClient: temporalClient, log: log}
}

// ValidatePayRecord runs a pay validation workflow synchronously and
// returns the full result.
func (h *Handler) ValidatePayRecord(w http.ResponseWriter, r *http.Request) {
	var rec domain.PayRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if err := rec.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	if err := h.store.CreateSubmittedPayRecord(ctx, rec); err != nil {
		h.log.Error().Err(err).Str("pay_record_id", rec.ID).Msg("create pay record failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to record submission"})
		return
	}

	runID := uuid.NewString()
	input := appTemporal.WorkflowInput{
		RunID:                runID,
		Kind:                 appTemporal.RunKindPayValidation,
		PayRecord:            &rec,
		ComplianceEnabled:    h.cfg.EnableComplianceChecks,
		NotificationsEnabled: h.cfg.EnableNotifications,
		MaxIterations:        h.cfg.MaxIterations,
	}
	h.runWorkflow(ctx, w, runID, string(appTemporal.RunKindPayValidation), rec.ID, input)
}

// ProcessClaim runs a claim processing workflow synchronously and
// returns the full result.
func (h *Handler) ProcessClaim(w http.ResponseWriter, r *http.Request) {
	var claim domain.Claim
	if err := json.NewDecoder(r.Body).Decode(&claim); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if err := claim.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	if err := h.store.CreateSubmittedClaim(ctx, claim); err != nil {
		h.log.Error().Err(err).Str("claim_id", claim.ID).Msg("create claim failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to record submission"})
		return
	}

	runID := uuid.NewString()
	input := appTemporal.WorkflowInput{
		RunID:                runID,
		Kind:                 appTemporal.RunKindClaimProcessing,
		Claim:                &claim,
		ComplianceEnabled:    h.cfg.EnableComplianceChecks,
		NotificationsEnabled: h.cfg.EnableNotifications,
		MaxIterations:        h.cfg.MaxIterations,
	}
	h.runWorkflow(ctx, w, runID, string(appTemporal.RunKindClaimProcessing), claim.ID, input)
}

func (h *Handler) runWorkflow(ctx context.Context, w http.ResponseWriter, runID, kind, subjectID string, input appTemporal.WorkflowInput) {
	if err := h.store.CreateRun(ctx, runID, kind, subjectID); err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("create run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to create run"})
		return
	}

	run, err := h.temporalClient.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        h.workflowID(runID),
		TaskQueue: h.cfg.TemporalTaskQueue,
	}, appTemporal.CrewPayWorkflowName, input)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("start workflow failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to start workflow"})
		return
	}

	var result appTemporal.WorkflowResult
	if err := run.Get(ctx, &result); err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("workflow execution failed")
		_ = h.store.CompleteRun(ctx, runID, domain.WorkflowFailed, err.Error(), 0)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "workflow execution failed"})
		return
	}

	if err := h.store.CompleteRun(ctx, runID, result.Status, result.ErrorMessage, result.DurationSeconds); err != nil {
		h.log.Error().Err(err).Str("run_id", runID).Msg("complete run failed")
	}

	writeJSON(w, http.StatusOK, result)
}

// UploadSupportingDocument stores a supporting document for a claim and
// returns the object key to reference in supporting_documents.
func (h *Handler) UploadSupportingDocument(w http.ResponseWriter, r *http.Request, claimID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := r.ParseMultipartForm(h.cfg.AllowedUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid multipart payload"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file form field is required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, h.cfg.AllowedUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read file"})
		return
	}
	if int64(len(body)) > h.cfg.AllowedUploadBytes {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file exceeds size limit"})
		return
	}

	objectKey, err := h.blob.PutSupportingDocument(ctx, claimID, header.Filename, body)
	if err != nil {
		h.log.Error().Err(err).Str("claim_id", claimID).Msg("upload supporting document failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to upload file"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"claim_id":   claimID,
		"object_key": objectKey,
	})
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request, runID string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rec, err := h.store.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "run not found"})
			return
		}
		h.log.Error().Err(err).Str("run_id", runID).Msg("fetch run failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to fetch run"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) workflowID(runID string) string {
	return fmt.Sprintf("%s-%s", h.cfg.WorkflowIDPrefix, runID)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
