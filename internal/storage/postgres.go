package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/lib/pq"

	"crewpay-orchestrator/internal/domain"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateSubmittedPayRecord(ctx context.Context, rec domain.PayRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pay_records (id, employee_id, payload, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, rec.ID, rec.CrewMember.EmployeeID, payload, domain.PayStatusPending)
	return err
}

func (s *PostgresStore) UpdatePayRecordStatus(ctx context.Context, payRecordID string, status domain.PayStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pay_records
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, payRecordID, status)
	return err
}

func (s *PostgresStore) CreateSubmittedClaim(ctx context.Context, c domain.Claim) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO claims (id, employee_id, claim_type, amount, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, c.ID, c.CrewMember.EmployeeID, c.ClaimType, c.Amount, payload, domain.ClaimStatusSubmitted)
	return err
}

func (s *PostgresStore) UpdateClaimStatus(ctx context.Context, claimID string, status domain.ClaimStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE claims
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`, claimID, status)
	return err
}

func (s *PostgresStore) CreateRun(ctx context.Context, runID, kind, subjectID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO workflow_runs (id, kind, subject_id, status, started_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO NOTHING
	`, runID, kind, subjectID, domain.WorkflowInProgress)
	return err
}

func (s *PostgresStore) SaveValidationReport(ctx context.Context, runID string, report domain.ValidationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE workflow_runs
		SET validation_report = $2, updated_at = NOW()
		WHERE id = $1
	`, runID, payload)
	return err
}

func (s *PostgresStore) SaveClaimDecision(ctx context.Context, runID string, decision domain.ClaimDecision) error {
	payload, err := json.Marshal(decision)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE workflow_runs
		SET claim_decision = $2, updated_at = NOW()
		WHERE id = $1
	`, runID, payload)
	return err
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status domain.WorkflowStatus, errorMessage string, durationSeconds float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE workflow_runs
		SET status = $2,
		    error_message = NULLIF($3, ''),
		    duration_seconds = $4,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`, runID, status, errorMessage, durationSeconds)
	return err
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (domain.WorkflowRunRecord, error) {
	var rec domain.WorkflowRunRecord
	var report, decision []byte
	var errorMessage sql.NullString
	var duration sql.NullFloat64
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, subject_id, status, validation_report, claim_decision,
		       error_message, COALESCE(duration_seconds, 0)
		FROM workflow_runs
		WHERE id = $1
	`, runID)
	if err := row.Scan(&rec.RunID, &rec.Kind, &rec.SubjectID, &rec.Status, &report, &decision, &errorMessage, &duration); err != nil {
		return domain.WorkflowRunRecord{}, err
	}
	if len(report) > 0 {
		var vr domain.ValidationReport
		if err := json.Unmarshal(report, &vr); err == nil {
			rec.ValidationReport = &vr
		}
	}
	if len(decision) > 0 {
		var cd domain.ClaimDecision
		if err := json.Unmarshal(decision, &cd); err == nil {
			rec.ClaimDecision = &cd
		}
	}
	if errorMessage.Valid {
		rec.ErrorMessage = errorMessage.String
	}
	rec.DurationSeconds = duration.Float64
	return rec, nil
}

func (s *PostgresStore) InsertNotification(ctx context.Context, runID string, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (run_id, type, recipient, subject, body, sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, runID, n.Type, n.Recipient, n.Subject, n.Body, n.Sent, time.Now().UTC())
	return err
}
