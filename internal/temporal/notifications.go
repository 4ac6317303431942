package temporal

import (
	"fmt"
	"strings"
	"time"

	"crewpay-orchestrator/internal/domain"
)

const (
	payrollTeamRecipient    = "payroll-team"
	complianceTeamRecipient = "compliance-team"
	auditLogRecipient       = "audit-log"
)

// BuildNotifications derives the notification records for a finished run:
// an email to the crew member, alerts for failures, review tasks where a
// human has to act, and always one audit log entry.
func BuildNotifications(input NotificationInput, now time.Time) []domain.Notification {
	ts := now.Format(time.RFC3339)
	var out []domain.Notification

	add := func(typ domain.NotificationType, recipient, subject, body string) {
		out = append(out, domain.Notification{
			Type:      typ,
			Recipient: recipient,
			Subject:   subject,
			Body:      body,
			Sent:      true,
			Timestamp: ts,
		})
	}

	switch input.Kind {
	case RunKindPayValidation:
		buildPayNotifications(input, add)
	case RunKindClaimProcessing:
		buildClaimNotifications(input, add)
	}

	if input.ComplianceStatus != "" && input.ComplianceStatus != "compliant" {
		add(domain.NotifyAlert, complianceTeamRecipient,
			fmt.Sprintf("Compliance review outcome: %s", input.ComplianceStatus),
			fmt.Sprintf("Run %s finished compliance review with status %q. Review the recorded checks.", input.RunID, input.ComplianceStatus))
	}

	status := "completed"
	if input.RunFailed {
		status = "failed"
		if input.ErrorMessage != "" {
			status = "failed: " + input.ErrorMessage
		}
	}
	add(domain.NotifyLog, auditLogRecipient,
		fmt.Sprintf("Workflow run %s %s", input.RunID, strings.SplitN(status, ":", 2)[0]),
		fmt.Sprintf("Run %s (%s) %s.", input.RunID, input.Kind, status))

	return out
}

func buildPayNotifications(input NotificationInput, add func(domain.NotificationType, string, string, string)) {
	if input.PayRecord == nil || input.Report == nil {
		return
	}
	rec := input.PayRecord
	report := input.Report
	crew := crewRecipient(rec.CrewMember)

	switch report.OverallStatus {
	case domain.ValidationPassed, domain.ValidationWarning:
		add(domain.NotifyEmail, crew,
			fmt.Sprintf("Pay record %s validated", rec.ID),
			fmt.Sprintf("Your pay record for the period %s to %s has been validated. %s", rec.PayPeriodStart, rec.PayPeriodEnd, report.Summary))
	case domain.ValidationRequiresReview:
		add(domain.NotifyEmail, crew,
			fmt.Sprintf("Pay record %s under review", rec.ID),
			fmt.Sprintf("Your pay record for the period %s to %s requires manual review. %s", rec.PayPeriodStart, rec.PayPeriodEnd, report.Summary))
		add(domain.NotifyTask, payrollTeamRecipient,
			fmt.Sprintf("Review pay record %s", rec.ID),
			fmt.Sprintf("Pay record %s for %s requires manual review. %s", rec.ID, rec.CrewMember.Name, report.Summary))
	case domain.ValidationFailed:
		add(domain.NotifyEmail, crew,
			fmt.Sprintf("Pay record %s rejected", rec.ID),
			fmt.Sprintf("Your pay record for the period %s to %s failed validation. %s", rec.PayPeriodStart, rec.PayPeriodEnd, report.Summary))
		add(domain.NotifyAlert, payrollTeamRecipient,
			fmt.Sprintf("Pay validation failed for record %s", rec.ID),
			fmt.Sprintf("Pay record %s for %s failed validation: %s", rec.ID, rec.CrewMember.Name, failedCheckNames(report)))
	}
}

func buildClaimNotifications(input NotificationInput, add func(domain.NotificationType, string, string, string)) {
	if input.Claim == nil || input.Decision == nil {
		return
	}
	claim := input.Claim
	decision := input.Decision
	crew := crewRecipient(claim.CrewMember)

	switch decision.Decision {
	case domain.ClaimStatusApproved:
		add(domain.NotifyEmail, crew,
			fmt.Sprintf("Claim %s approved", claim.ID),
			fmt.Sprintf("Your %s claim has been approved for %.2f. %s", claim.ClaimType, decision.ApprovedAmount, decision.Rationale))
		add(domain.NotifyTask, payrollTeamRecipient,
			fmt.Sprintf("Process payment for claim %s", claim.ID),
			fmt.Sprintf("Claim %s (%s) approved for %.2f; schedule payment to %s.", claim.ID, claim.ClaimType, decision.ApprovedAmount, claim.CrewMember.Name))
	case domain.ClaimStatusRejected:
		add(domain.NotifyEmail, crew,
			fmt.Sprintf("Claim %s rejected", claim.ID),
			fmt.Sprintf("Your %s claim has been rejected. %s", claim.ClaimType, decision.Rationale))
	case domain.ClaimStatusUnderReview:
		add(domain.NotifyEmail, crew,
			fmt.Sprintf("Claim %s under review", claim.ID),
			fmt.Sprintf("Your %s claim needs manual review. %s", claim.ClaimType, decision.Rationale))
		add(domain.NotifyTask, payrollTeamRecipient,
			fmt.Sprintf("Review claim %s", claim.ID),
			fmt.Sprintf("Claim %s (%s, %.2f) from %s requires manual review: %s", claim.ID, claim.ClaimType, claim.Amount, claim.CrewMember.Name, decision.Rationale))
	}
}

func crewRecipient(c domain.CrewMember) string {
	if c.Email != "" {
		return c.Email
	}
	return c.EmployeeID
}

func failedCheckNames(report *domain.ValidationReport) string {
	var names []string
	for _, r := range report.Results {
		if r.Status == domain.ValidationFailed {
			names = append(names, r.CheckName)
		}
	}
	if len(names) == 0 {
		return "see validation report"
	}
	return strings.Join(names, ", ")
}
