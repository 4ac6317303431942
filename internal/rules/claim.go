package rules

import (
	"fmt"
	"strings"

	"crewpay-orchestrator/internal/domain"
)

const minDescriptionLength = 10

var timesheetKeywords = []string{"timesheet", "time", "hours", "schedule"}

// ScreenResult is the outcome of the deterministic claim screening that
// runs before any advisory call.
type ScreenResult struct {
	Valid  bool
	Reason string
}

// ScreenClaim applies the rule-based rejection checks. A rejected claim
// never reaches the advisory step.
func ScreenClaim(c domain.Claim) ScreenResult {
	if len(strings.TrimSpace(c.Description)) < minDescriptionLength {
		return ScreenResult{Reason: fmt.Sprintf("claim description is too short or missing (minimum %d characters)", minDescriptionLength)}
	}
	if c.Amount <= 0 {
		return ScreenResult{Reason: "claim amount must be greater than zero"}
	}
	switch c.ClaimType {
	case domain.ClaimOvertime:
		if !hasTimesheetDocument(c.SupportingDocuments) {
			return ScreenResult{Reason: "overtime claims require timesheet documentation"}
		}
	case domain.ClaimReimbursement:
		if len(c.SupportingDocuments) == 0 {
			return ScreenResult{Reason: "reimbursement claims require supporting documents"}
		}
	}
	return ScreenResult{Valid: true, Reason: "claim screening passed"}
}

// AutoApprovable reports whether the claim falls under the configured
// auto-approve threshold. A zero threshold disables auto-approval.
func AutoApprovable(c domain.Claim, threshold float64) bool {
	return threshold > 0 && c.Amount <= threshold
}

func hasTimesheetDocument(docs []string) bool {
	for _, doc := range docs {
		lowered := strings.ToLower(doc)
		for _, kw := range timesheetKeywords {
			if strings.Contains(lowered, kw) {
				return true
			}
		}
	}
	return false
}
