package rules

import (
	"fmt"

	"crewpay-orchestrator/internal/domain"
)

// Claim amounts above this trigger an additional-review warning.
const claimAmountWarningThreshold = 10000.0

// CheckPayRecordCompliance runs the regulatory checks on a pay record:
// minimum wage, overtime-rate presence and deduction sanity.
func CheckPayRecordCompliance(rec domain.PayRecord, minimumHourlyWage float64) []domain.ComplianceCheck {
	var checks []domain.ComplianceCheck

	if rec.CrewMember.HourlyRate < minimumHourlyWage {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "minimum_wage_check",
			Passed:    false,
			Message:   fmt.Sprintf("hourly rate (%.2f) below minimum wage (%.2f)", rec.CrewMember.HourlyRate, minimumHourlyWage),
			Details:   map[string]any{"hourly_rate": rec.CrewMember.HourlyRate, "minimum": minimumHourlyWage},
		})
	} else {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "minimum_wage_check",
			Passed:    true,
			Message:   "hourly rate meets minimum wage requirements",
			Details:   map[string]any{"hourly_rate": rec.CrewMember.HourlyRate},
		})
	}

	if rec.OvertimeHours > 0 {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "overtime_rate_check",
			Passed:    true,
			Message:   "overtime hours recorded, 1.5x rate applies",
			Details:   map[string]any{"overtime_hours": rec.OvertimeHours},
		})
	}

	checks = append(checks, checkDeductions(rec))
	return checks
}

func checkDeductions(rec domain.PayRecord) domain.ComplianceCheck {
	if rec.Deductions <= 0 && rec.GrossPay > 0 {
		return domain.ComplianceCheck{
			CheckName: "tax_withholding_check",
			Passed:    false,
			Warning:   true,
			Message:   "no deductions found, verify tax withholding",
			Details:   map[string]any{"deductions": rec.Deductions},
		}
	}
	if rec.GrossPay <= 0 {
		return domain.ComplianceCheck{
			CheckName: "tax_withholding_check",
			Passed:    true,
			Warning:   true,
			Message:   "gross pay is zero, deduction ratio not evaluated",
		}
	}
	pct := rec.Deductions / rec.GrossPay * 100
	if pct < 5 || pct > 50 {
		return domain.ComplianceCheck{
			CheckName: "tax_withholding_check",
			Passed:    true,
			Warning:   true,
			Message:   fmt.Sprintf("deductions (%.1f%%) outside typical range", pct),
			Details:   map[string]any{"deduction_percentage": pct},
		}
	}
	return domain.ComplianceCheck{
		CheckName: "tax_withholding_check",
		Passed:    true,
		Message:   "deductions within normal range",
		Details:   map[string]any{"deduction_percentage": pct},
	}
}

// CheckClaimCompliance runs the policy checks on a claim: documentation
// requirements and amount reasonableness.
func CheckClaimCompliance(c domain.Claim) []domain.ComplianceCheck {
	var checks []domain.ComplianceCheck

	needsDocs := c.ClaimType == domain.ClaimReimbursement || c.ClaimType == domain.ClaimBonus
	if needsDocs && len(c.SupportingDocuments) == 0 {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "documentation_requirement",
			Passed:    false,
			Message:   fmt.Sprintf("%s claims require supporting documentation", c.ClaimType),
			Details:   map[string]any{"claim_type": string(c.ClaimType)},
		})
	} else {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "documentation_requirement",
			Passed:    true,
			Message:   "documentation requirements met",
			Details:   map[string]any{"document_count": len(c.SupportingDocuments)},
		})
	}

	if c.Amount > claimAmountWarningThreshold {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "amount_threshold_check",
			Passed:    true,
			Warning:   true,
			Message:   fmt.Sprintf("claim amount (%.2f) exceeds typical threshold, additional review recommended", c.Amount),
			Details:   map[string]any{"amount": c.Amount, "threshold": claimAmountWarningThreshold},
		})
	} else {
		checks = append(checks, domain.ComplianceCheck{
			CheckName: "amount_threshold_check",
			Passed:    true,
			Message:   "claim amount within normal range",
			Details:   map[string]any{"amount": c.Amount},
		})
	}

	return checks
}

// ComplianceOutcome folds a check list into the overall compliance verdict.
type ComplianceOutcome struct {
	Status      string
	AllPassed   bool
	HasWarnings bool
	FailedNames []string
}

const (
	ComplianceCompliant    = "compliant"
	ComplianceWithWarnings = "compliant_with_warnings"
	ComplianceNonCompliant = "non_compliant"
)

func SummarizeCompliance(checks []domain.ComplianceCheck) ComplianceOutcome {
	out := ComplianceOutcome{AllPassed: true}
	for _, c := range checks {
		if !c.Passed {
			out.AllPassed = false
			out.FailedNames = append(out.FailedNames, c.CheckName)
		}
		if c.Warning {
			out.HasWarnings = true
		}
	}
	switch {
	case !out.AllPassed:
		out.Status = ComplianceNonCompliant
	case out.HasWarnings:
		out.Status = ComplianceWithWarnings
	default:
		out.Status = ComplianceCompliant
	}
	return out
}
