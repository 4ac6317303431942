package temporal

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"crewpay-orchestrator/internal/domain"
)

const CrewPayWorkflowName = "CrewPayWorkflow"

// RunKind selects the workflow entry node.
type RunKind string

const (
	RunKindPayValidation   RunKind = "pay_validation"
	RunKindClaimProcessing RunKind = "claim_processing"
)

// Node is a closed identifier for a workflow graph stage. Routing works
// on these values only; there are no free-form agent name strings.
type Node string

const (
	NodePayValidation    Node = "pay_validation"
	NodeClaimsProcessing Node = "claims_processing"
	NodeCompliance       Node = "compliance"
	NodeNotification     Node = "notification"
	NodeEnd              Node = "end"
)

const defaultMaxIterations = 10

type WorkflowInput struct {
	RunID                string
	Kind                 RunKind
	PayRecord            *domain.PayRecord
	Claim                *domain.Claim
	ComplianceEnabled    bool
	NotificationsEnabled bool
	MaxIterations        int
}

// WorkflowResult is also the HTTP response body for synchronous runs.
type WorkflowResult struct {
	RunID             string                   `json:"run_id"`
	Status            domain.WorkflowStatus    `json:"status"`
	ValidationReport  *domain.ValidationReport `json:"validation_report,omitempty"`
	ClaimDecision     *domain.ClaimDecision    `json:"claim_decision,omitempty"`
	ComplianceStatus  string                   `json:"compliance_status,omitempty"`
	NotificationsSent int                      `json:"notifications_sent"`
	DurationSeconds   float64                  `json:"duration_seconds"`
	ErrorMessage      string                   `json:"error_message,omitempty"`
}

// runState accumulates across node visits within one execution. Each
// execution owns its own state; nothing is shared between runs.
type runState struct {
	report           *domain.ValidationReport
	decision         *domain.ClaimDecision
	complianceStatus string
	status           domain.WorkflowStatus
	errorMessage     string
	notifications    int
}

// CrewPayWorkflow drives the directed graph
// pay_validation|claims_processing -> [compliance] -> notification.
// It always returns a WorkflowResult; input-shaped and node failures
// surface as status failed, never as a workflow error.
func CrewPayWorkflow(ctx workflow.Context, input WorkflowInput) (WorkflowResult, error) {
	started := workflow.Now(ctx)
	st := &runState{status: domain.WorkflowInProgress}

	finish := func() WorkflowResult {
		return WorkflowResult{
			RunID:             input.RunID,
			Status:            st.status,
			ValidationReport:  st.report,
			ClaimDecision:     st.decision,
			ComplianceStatus:  st.complianceStatus,
			NotificationsSent: st.notifications,
			DurationSeconds:   workflow.Now(ctx).Sub(started).Seconds(),
			ErrorMessage:      st.errorMessage,
		}
	}

	node, err := entryNode(input)
	if err != nil {
		// Missing required input is fatal: no node runs, no notification.
		st.status = domain.WorkflowFailed
		st.errorMessage = err.Error()
		return finish(), nil
	}

	// Agent activities run exactly once; advisory failures are handled
	// inside the agents, and a node fault aborts the run.
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	})

	maxIterations := input.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	for visits := 0; node != NodeEnd; visits++ {
		// The graph is acyclic with depth 3; this bound is defensive only.
		if visits >= maxIterations {
			st.status = domain.WorkflowFailed
			st.errorMessage = fmt.Sprintf("workflow exceeded %d node visits", maxIterations)
			return finish(), nil
		}

		switch node {
		case NodePayValidation:
			var out PayValidationOutput
			if err := workflow.ExecuteActivity(ctx, (*Activities).PayValidationActivity, PayValidationInput{
				RunID:     input.RunID,
				PayRecord: *input.PayRecord,
			}).Get(ctx, &out); err != nil {
				st.status = domain.WorkflowFailed
				st.errorMessage = err.Error()
				return finish(), nil
			}
			st.report = &out.Report
			if out.Report.OverallStatus == domain.ValidationFailed {
				st.status = domain.WorkflowFailed
				st.errorMessage = "pay validation failed"
			}
			node = routeFromPayValidation(out.Report.OverallStatus, input.ComplianceEnabled)

		case NodeClaimsProcessing:
			var out ClaimsProcessingOutput
			if err := workflow.ExecuteActivity(ctx, (*Activities).ClaimsProcessingActivity, ClaimsProcessingInput{
				RunID: input.RunID,
				Claim: *input.Claim,
			}).Get(ctx, &out); err != nil {
				st.status = domain.WorkflowFailed
				st.errorMessage = err.Error()
				return finish(), nil
			}
			st.decision = &out.Decision
			node = routeFromClaimsProcessing(out.Decision.Decision, input.ComplianceEnabled)

		case NodeCompliance:
			var out ComplianceOutput
			if err := workflow.ExecuteActivity(ctx, (*Activities).ComplianceActivity, ComplianceInput{
				RunID:     input.RunID,
				PayRecord: input.PayRecord,
				Claim:     input.Claim,
			}).Get(ctx, &out); err != nil {
				st.status = domain.WorkflowFailed
				st.errorMessage = err.Error()
				return finish(), nil
			}
			st.complianceStatus = out.Status
			if !out.AllPassed {
				st.status = domain.WorkflowFailed
				st.errorMessage = "compliance check failed: " + strings.Join(out.FailedNames, ", ")
			}
			node = routeFromCompliance()

		case NodeNotification:
			var out NotificationOutput
			if err := workflow.ExecuteActivity(ctx, (*Activities).NotificationActivity, NotificationInput{
				RunID:            input.RunID,
				Kind:             input.Kind,
				PayRecord:        input.PayRecord,
				Claim:            input.Claim,
				Report:           st.report,
				Decision:         st.decision,
				ComplianceStatus: st.complianceStatus,
				RunFailed:        st.status == domain.WorkflowFailed,
				ErrorMessage:     st.errorMessage,
				Enabled:          input.NotificationsEnabled,
			}).Get(ctx, &out); err != nil {
				st.status = domain.WorkflowFailed
				st.errorMessage = err.Error()
				return finish(), nil
			}
			st.notifications = out.Count
			// Terminal node: completed unless an earlier stage failed.
			if st.status != domain.WorkflowFailed {
				st.status = domain.WorkflowCompleted
			}
			node = NodeEnd

		default:
			st.status = domain.WorkflowFailed
			st.errorMessage = fmt.Sprintf("unknown workflow node %q", node)
			return finish(), nil
		}
	}

	return finish(), nil
}

func entryNode(input WorkflowInput) (Node, error) {
	switch input.Kind {
	case RunKindPayValidation:
		if input.PayRecord == nil {
			return "", domain.NewValidationError("no pay record provided for validation")
		}
		return NodePayValidation, nil
	case RunKindClaimProcessing:
		if input.Claim == nil {
			return "", domain.NewValidationError("no claim provided for processing")
		}
		return NodeClaimsProcessing, nil
	default:
		return "", domain.NewWorkflowError(fmt.Sprintf("unknown run kind %q", input.Kind))
	}
}

// routeFromPayValidation: failed reports go straight to notification;
// surviving records get compliance review when it is enabled.
func routeFromPayValidation(overall domain.ValidationStatus, complianceEnabled bool) Node {
	if overall == domain.ValidationFailed {
		return NodeNotification
	}
	if complianceEnabled {
		return NodeCompliance
	}
	return NodeNotification
}

// routeFromClaimsProcessing: only approved decisions are nominated for
// compliance review; rejected and under_review runs notify directly.
func routeFromClaimsProcessing(decision domain.ClaimStatus, complianceEnabled bool) Node {
	if decision == domain.ClaimStatusApproved && complianceEnabled {
		return NodeCompliance
	}
	return NodeNotification
}

// routeFromCompliance: compliance never re-enters earlier stages.
func routeFromCompliance() Node {
	return NodeNotification
}
