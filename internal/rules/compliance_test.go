package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"crewpay-orchestrator/internal/domain"
)

func checkByName(t *testing.T, checks []domain.ComplianceCheck, name string) domain.ComplianceCheck {
	t.Helper()
	for _, c := range checks {
		if c.CheckName == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return domain.ComplianceCheck{}
}

func TestCheckPayRecordCompliance(t *testing.T) {
	rec := payRecord()
	checks := CheckPayRecordCompliance(rec, 15)

	require.True(t, checkByName(t, checks, "minimum_wage_check").Passed)
	require.True(t, checkByName(t, checks, "overtime_rate_check").Passed)
	withholding := checkByName(t, checks, "tax_withholding_check")
	require.True(t, withholding.Passed)
	require.False(t, withholding.Warning)

	rec.CrewMember.HourlyRate = 10
	checks = CheckPayRecordCompliance(rec, 15)
	require.False(t, checkByName(t, checks, "minimum_wage_check").Passed)

	// No overtime hours, no overtime check.
	rec = payRecord()
	rec.OvertimeHours = 0
	checks = CheckPayRecordCompliance(rec, 15)
	for _, c := range checks {
		require.NotEqual(t, "overtime_rate_check", c.CheckName)
	}
}

func TestCheckDeductions(t *testing.T) {
	rec := payRecord()
	rec.Deductions = 0
	check := checkDeductions(rec)
	require.False(t, check.Passed)
	require.True(t, check.Warning)

	// Deduction ratio outside the 5-50% band warns but still passes.
	rec = payRecord()
	rec.Deductions = rec.GrossPay * 0.02
	check = checkDeductions(rec)
	require.True(t, check.Passed)
	require.True(t, check.Warning)

	rec.Deductions = rec.GrossPay * 0.6
	check = checkDeductions(rec)
	require.True(t, check.Passed)
	require.True(t, check.Warning)

	rec.Deductions = rec.GrossPay * 0.2
	check = checkDeductions(rec)
	require.True(t, check.Passed)
	require.False(t, check.Warning)
}

func TestCheckClaimCompliance(t *testing.T) {
	c := claim(domain.ClaimReimbursement, 120)
	checks := CheckClaimCompliance(c)
	require.False(t, checkByName(t, checks, "documentation_requirement").Passed)

	c = claim(domain.ClaimReimbursement, 120, "receipt.pdf")
	checks = CheckClaimCompliance(c)
	require.True(t, checkByName(t, checks, "documentation_requirement").Passed)

	// Bonus claims also need documentation; adjustments do not.
	c = claim(domain.ClaimBonus, 120)
	checks = CheckClaimCompliance(c)
	require.False(t, checkByName(t, checks, "documentation_requirement").Passed)

	c = claim(domain.ClaimAdjustment, 120)
	checks = CheckClaimCompliance(c)
	require.True(t, checkByName(t, checks, "documentation_requirement").Passed)

	c = claim(domain.ClaimBonus, 15000, "approval.pdf")
	checks = CheckClaimCompliance(c)
	amount := checkByName(t, checks, "amount_threshold_check")
	require.True(t, amount.Passed)
	require.True(t, amount.Warning)
}

func TestSummarizeCompliance(t *testing.T) {
	outcome := SummarizeCompliance([]domain.ComplianceCheck{
		{CheckName: "a", Passed: true},
		{CheckName: "b", Passed: true},
	})
	require.Equal(t, ComplianceCompliant, outcome.Status)
	require.True(t, outcome.AllPassed)

	outcome = SummarizeCompliance([]domain.ComplianceCheck{
		{CheckName: "a", Passed: true},
		{CheckName: "b", Passed: true, Warning: true},
	})
	require.Equal(t, ComplianceWithWarnings, outcome.Status)
	require.True(t, outcome.AllPassed)
	require.True(t, outcome.HasWarnings)

	outcome = SummarizeCompliance([]domain.ComplianceCheck{
		{CheckName: "a", Passed: false},
		{CheckName: "b", Passed: true},
		{CheckName: "c", Passed: false},
	})
	require.Equal(t, ComplianceNonCompliant, outcome.Status)
	require.False(t, outcome.AllPassed)
	require.Equal(t, []string{"a", "c"}, outcome.FailedNames)
}
