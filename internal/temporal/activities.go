package temporal

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"crewpay-orchestrator/internal/domain"
	"crewpay-orchestrator/internal/openai"
	"crewpay-orchestrator/internal/rules"
)

const claimsReviewer = "claims_processing"

type ActivityStore interface {
	UpdatePayRecordStatus(ctx context.Context, payRecordID string, status domain.PayStatus) error
	UpdateClaimStatus(ctx context.Context, claimID string, status domain.ClaimStatus) error
	SaveValidationReport(ctx context.Context, runID string, report domain.ValidationReport) error
	SaveClaimDecision(ctx context.Context, runID string, decision domain.ClaimDecision) error
	InsertNotification(ctx context.Context, runID string, n domain.Notification) error
}

// NotificationSink dispatches a notification record. Implementations are
// fire-and-forget; dispatch failures never fail a run.
type NotificationSink interface {
	Publish(ctx context.Context, runID string, n domain.Notification)
}

type Activities struct {
	Store    ActivityStore
	LLM      openai.Client
	Notifier NotificationSink
	Log      zerolog.Logger

	Model       string
	Temperature float64
	Timeout     time.Duration

	Thresholds           rules.PayThresholds
	MinimumHourlyWage    float64
	AutoApproveThreshold float64
}

type PayValidationInput struct {
	RunID     string
	PayRecord domain.PayRecord
}

type PayValidationOutput struct {
	Report domain.ValidationReport
}

type ClaimsProcessingInput struct {
	RunID string
	Claim domain.Claim
}

type ClaimsProcessingOutput struct {
	Decision domain.ClaimDecision
}

type ComplianceInput struct {
	RunID     string
	PayRecord *domain.PayRecord
	Claim     *domain.Claim
}

type ComplianceOutput struct {
	Checks      []domain.ComplianceCheck
	Status      string
	AllPassed   bool
	HasWarnings bool
	FailedNames []string
}

type NotificationInput struct {
	RunID            string
	Kind             RunKind
	PayRecord        *domain.PayRecord
	Claim            *domain.Claim
	Report           *domain.ValidationReport
	Decision         *domain.ClaimDecision
	ComplianceStatus string
	RunFailed        bool
	ErrorMessage     string
	Enabled          bool
}

type NotificationOutput struct {
	Notifications []domain.Notification
	Count         int
}

// PayValidationActivity runs the four deterministic pay checks plus one
// advisory call and aggregates them into a validation report.
func (a *Activities) PayValidationActivity(ctx context.Context, input PayValidationInput) (PayValidationOutput, error) {
	a.Log.Info().Str("agent", string(NodePayValidation)).Str("run_id", input.RunID).Str("pay_record_id", input.PayRecord.ID).Msg("agent started")

	results := rules.CheckPayRecord(input.PayRecord, a.Thresholds)
	results = append(results, a.payAdvisory(ctx, input.PayRecord))
	report := rules.BuildReport(input.PayRecord.ID, results)

	if err := a.Store.SaveValidationReport(ctx, input.RunID, report); err != nil {
		return PayValidationOutput{}, domain.NewAgentError("save validation report", err)
	}
	payStatus := domain.PayStatusValidated
	if report.OverallStatus == domain.ValidationFailed {
		payStatus = domain.PayStatusRejected
	}
	if err := a.Store.UpdatePayRecordStatus(ctx, input.PayRecord.ID, payStatus); err != nil {
		return PayValidationOutput{}, domain.NewAgentError("update pay record status", err)
	}

	a.Log.Info().Str("agent", string(NodePayValidation)).Str("run_id", input.RunID).Str("overall_status", string(report.OverallStatus)).Msg("agent completed")
	return PayValidationOutput{Report: report}, nil
}

// ClaimsProcessingActivity screens the claim, auto-approves under the
// configured threshold, and otherwise asks the advisory for a decision.
func (a *Activities) ClaimsProcessingActivity(ctx context.Context, input ClaimsProcessingInput) (ClaimsProcessingOutput, error) {
	a.Log.Info().Str("agent", string(NodeClaimsProcessing)).Str("run_id", input.RunID).Str("claim_id", input.Claim.ID).Msg("agent started")

	claim := input.Claim
	var decision domain.ClaimDecision

	switch screen := rules.ScreenClaim(claim); {
	case !screen.Valid:
		decision = domain.ClaimDecision{
			ClaimID:        claim.ID,
			Decision:       domain.ClaimStatusRejected,
			ApprovedAmount: 0,
			Rationale:      screen.Reason,
			Reviewer:       claimsReviewer,
			NextSteps:      []string{"Notify crew member of rejection", "Request additional information"},
		}
	case rules.AutoApprovable(claim, a.AutoApproveThreshold):
		a.Log.Info().Str("claim_id", claim.ID).Float64("amount", claim.Amount).Float64("threshold", a.AutoApproveThreshold).Msg("auto approving claim")
		decision = domain.ClaimDecision{
			ClaimID:        claim.ID,
			Decision:       domain.ClaimStatusApproved,
			ApprovedAmount: claim.Amount,
			Rationale:      fmt.Sprintf("auto-approved: claim amount (%.2f) below threshold (%.2f)", claim.Amount, a.AutoApproveThreshold),
			Reviewer:       claimsReviewer,
			NextSteps:      []string{"Process payment", "Update payroll system", "Notify crew member of approval"},
		}
	default:
		decision = a.claimAdvisory(ctx, claim)
	}

	if err := a.Store.SaveClaimDecision(ctx, input.RunID, decision); err != nil {
		return ClaimsProcessingOutput{}, domain.NewAgentError("save claim decision", err)
	}
	if err := a.Store.UpdateClaimStatus(ctx, claim.ID, decision.Decision); err != nil {
		return ClaimsProcessingOutput{}, domain.NewAgentError("update claim status", err)
	}

	a.Log.Info().Str("agent", string(NodeClaimsProcessing)).Str("run_id", input.RunID).Str("decision", string(decision.Decision)).Msg("agent completed")
	return ClaimsProcessingOutput{Decision: decision}, nil
}

// ComplianceActivity runs the regulatory checks plus one advisory call.
// A failed hard check makes the outcome non-compliant, which fails the
// run at the workflow level.
func (a *Activities) ComplianceActivity(ctx context.Context, input ComplianceInput) (ComplianceOutput, error) {
	a.Log.Info().Str("agent", string(NodeCompliance)).Str("run_id", input.RunID).Msg("agent started")

	var checks []domain.ComplianceCheck
	if input.PayRecord != nil {
		checks = append(checks, rules.CheckPayRecordCompliance(*input.PayRecord, a.MinimumHourlyWage)...)
	}
	if input.Claim != nil {
		checks = append(checks, rules.CheckClaimCompliance(*input.Claim)...)
	}
	checks = append(checks, a.complianceAdvisory(ctx, input.PayRecord, input.Claim))

	outcome := rules.SummarizeCompliance(checks)
	a.Log.Info().Str("agent", string(NodeCompliance)).Str("run_id", input.RunID).Str("compliance_status", outcome.Status).Msg("agent completed")
	return ComplianceOutput{
		Checks:      checks,
		Status:      outcome.Status,
		AllPassed:   outcome.AllPassed,
		HasWarnings: outcome.HasWarnings,
		FailedNames: outcome.FailedNames,
	}, nil
}

// NotificationActivity builds the structured notification records for the
// final state, persists them and hands them to the dispatch sink.
func (a *Activities) NotificationActivity(ctx context.Context, input NotificationInput) (NotificationOutput, error) {
	a.Log.Info().Str("agent", string(NodeNotification)).Str("run_id", input.RunID).Msg("agent started")

	if !input.Enabled {
		a.Log.Info().Str("run_id", input.RunID).Msg("notifications disabled, skipping dispatch")
		return NotificationOutput{}, nil
	}

	notifications := BuildNotifications(input, time.Now().UTC())
	for _, n := range notifications {
		if err := a.Store.InsertNotification(ctx, input.RunID, n); err != nil {
			return NotificationOutput{}, domain.NewAgentError("insert notification", err)
		}
		if a.Notifier != nil {
			a.Notifier.Publish(ctx, input.RunID, n)
		}
	}

	a.Log.Info().Str("agent", string(NodeNotification)).Str("run_id", input.RunID).Int("count", len(notifications)).Msg("agent completed")
	return NotificationOutput{Notifications: notifications, Count: len(notifications)}, nil
}

// advise makes exactly one advisory attempt. No retries: a failure here
// degrades to the caller's manual-review fallback.
func (a *Activities) advise(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return a.LLM.CompleteJSON(ctx, openai.CompletionRequest{
		Model:        a.Model,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  a.Temperature,
		Timeout:      a.Timeout,
	})
}

func (a *Activities) payAdvisory(ctx context.Context, rec domain.PayRecord) domain.ValidationResult {
	raw, err := a.advise(ctx, openai.PAY_VALIDATION_SYSTEM, openai.BuildPayValidationPrompt(rec))
	if err == nil {
		adv, perr := openai.ParsePayAdvisory(raw)
		if perr == nil {
			return domain.ValidationResult{
				CheckName: "llm_semantic_check",
				Status:    adv.Status,
				Message:   adv.Message,
				Details:   map[string]any{"concerns": adv.Concerns},
			}
		}
		err = perr
	}

	a.Log.Warn().Err(err).Str("pay_record_id", rec.ID).Msg("pay advisory degraded to manual review")
	return domain.ValidationResult{
		CheckName: "llm_semantic_check",
		Status:    domain.ValidationRequiresReview,
		Message:   "advisory unavailable, manual review required: " + err.Error(),
		Details:   map[string]any{"error": err.Error()},
	}
}

func (a *Activities) claimAdvisory(ctx context.Context, claim domain.Claim) domain.ClaimDecision {
	raw, err := a.advise(ctx, openai.CLAIM_SYSTEM, openai.BuildClaimPrompt(claim))
	if err == nil {
		adv, perr := openai.ParseClaimAdvisory(raw)
		if perr == nil {
			return decisionFromAdvisory(claim, adv)
		}
		err = perr
	}

	a.Log.Warn().Err(err).Str("claim_id", claim.ID).Msg("claim advisory degraded to manual review")
	return domain.ClaimDecision{
		ClaimID:        claim.ID,
		Decision:       domain.ClaimStatusUnderReview,
		ApprovedAmount: 0,
		Rationale:      "automatic evaluation unavailable, manual review required: " + err.Error(),
		Reviewer:       claimsReviewer,
		NextSteps:      []string{"Manual review required", "Escalate to human reviewer"},
	}
}

func decisionFromAdvisory(claim domain.Claim, adv openai.ClaimAdvisory) domain.ClaimDecision {
	decision := domain.ClaimDecision{
		ClaimID:   claim.ID,
		Decision:  adv.Decision,
		Rationale: adv.Rationale,
		Reviewer:  claimsReviewer,
		NextSteps: adv.NextSteps,
	}
	switch adv.Decision {
	case domain.ClaimStatusApproved:
		// Never approve more than was requested.
		if adv.ApprovedAmount > 0 && adv.ApprovedAmount <= claim.Amount {
			decision.ApprovedAmount = adv.ApprovedAmount
		} else {
			decision.ApprovedAmount = claim.Amount
		}
		if len(decision.NextSteps) == 0 {
			decision.NextSteps = []string{"Process payment", "Update payroll system", "Notify crew member of approval"}
		}
	case domain.ClaimStatusRejected:
		decision.ApprovedAmount = 0
		if len(decision.NextSteps) == 0 {
			decision.NextSteps = []string{"Notify crew member of rejection", "Provide feedback for resubmission"}
		}
	default:
		decision.ApprovedAmount = 0
		if len(decision.NextSteps) == 0 {
			decision.NextSteps = []string{"Request additional documentation", "Escalate to manager for review"}
		}
	}
	return decision
}

func (a *Activities) complianceAdvisory(ctx context.Context, rec *domain.PayRecord, claim *domain.Claim) domain.ComplianceCheck {
	raw, err := a.advise(ctx, openai.COMPLIANCE_SYSTEM, openai.BuildCompliancePrompt(rec, claim))
	if err == nil {
		adv, perr := openai.ParseComplianceAdvisory(raw)
		if perr == nil {
			msg := "no compliance concerns identified"
			if len(adv.Concerns) > 0 {
				msg = fmt.Sprintf("compliance review raised %d concern(s)", len(adv.Concerns))
			}
			// The model's opinion is advisory: it can warn, never hard-fail.
			return domain.ComplianceCheck{
				CheckName: "llm_general_compliance",
				Passed:    true,
				Warning:   !adv.Compliant,
				Message:   msg,
				Details: map[string]any{
					"concerns":        adv.Concerns,
					"recommendations": adv.Recommendations,
				},
			}
		}
		err = perr
	}

	a.Log.Warn().Err(err).Msg("compliance advisory skipped")
	return domain.ComplianceCheck{
		CheckName: "llm_general_compliance",
		Passed:    true,
		Warning:   true,
		Message:   "compliance advisory skipped: " + err.Error(),
		Details:   map[string]any{"error": err.Error()},
	}
}
