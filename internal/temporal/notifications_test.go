package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crewpay-orchestrator/internal/domain"
	"crewpay-orchestrator/internal/rules"
)

func TestBuildNotificationsApprovedClaim(t *testing.T) {
	claim := testClaim()
	decision := domain.ClaimDecision{
		ClaimID:        claim.ID,
		Decision:       domain.ClaimStatusApproved,
		ApprovedAmount: 320,
		Rationale:      "documented and reasonable",
	}
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	out := BuildNotifications(NotificationInput{
		RunID:            "run-1",
		Kind:             RunKindClaimProcessing,
		Claim:            &claim,
		Decision:         &decision,
		ComplianceStatus: rules.ComplianceCompliant,
	}, now)

	// Approval email, payment task and the audit log entry.
	require.Len(t, out, 3)
	require.Equal(t, domain.NotifyEmail, out[0].Type)
	require.Equal(t, claim.CrewMember.Email, out[0].Recipient)
	require.Contains(t, out[0].Body, "320.00")
	require.Equal(t, domain.NotifyTask, out[1].Type)
	require.Equal(t, domain.NotifyLog, out[2].Type)
	for _, n := range out {
		require.True(t, n.Sent)
		require.Equal(t, "2026-08-24T12:00:00Z", n.Timestamp)
	}
}

func TestBuildNotificationsComplianceWarningAlert(t *testing.T) {
	rec := testPayRecord()
	report := domain.ValidationReport{
		PayRecordID:   rec.ID,
		OverallStatus: domain.ValidationPassed,
		Summary:       "validation completed with status passed",
	}

	out := BuildNotifications(NotificationInput{
		RunID:            "run-1",
		Kind:             RunKindPayValidation,
		PayRecord:        &rec,
		Report:           &report,
		ComplianceStatus: rules.ComplianceWithWarnings,
	}, time.Now().UTC())

	var alerts int
	for _, n := range out {
		if n.Type == domain.NotifyAlert {
			alerts++
			require.Equal(t, complianceTeamRecipient, n.Recipient)
		}
	}
	require.Equal(t, 1, alerts)
}

func TestBuildNotificationsMissingPayloadOnlyLogs(t *testing.T) {
	out := BuildNotifications(NotificationInput{
		RunID:     "run-1",
		Kind:      RunKindPayValidation,
		RunFailed: true,
	}, time.Now().UTC())

	require.Len(t, out, 1)
	require.Equal(t, domain.NotifyLog, out[0].Type)
}
