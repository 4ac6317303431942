package rules

import (
	"fmt"
	"strings"

	"crewpay-orchestrator/internal/domain"
)

// payTolerance is the allowed rounding difference on pay arithmetic.
const payTolerance = 0.01

// periodSlackDays is the allowed deviation from the nominal period length.
const periodSlackDays = 2

// PayThresholds holds the configured limits for pay-record checks.
type PayThresholds struct {
	MaxRegularHoursPerWeek  float64
	MaxOvertimeHoursPerWeek float64
}

// MaxTotalHours is the hours cap per record. The original caps at two
// weeks' worth of hours regardless of declared period type.
func (t PayThresholds) MaxTotalHours() float64 {
	return (t.MaxRegularHoursPerWeek + t.MaxOvertimeHoursPerWeek) * 2
}

// CheckHours fails when total hours exceed the cap and warns at 90% of it.
func CheckHours(rec domain.PayRecord, t PayThresholds) domain.ValidationResult {
	total := rec.RegularHours + rec.OvertimeHours
	cap := t.MaxTotalHours()

	if total > cap {
		return domain.ValidationResult{
			CheckName: "hours_limit_check",
			Status:    domain.ValidationFailed,
			Message:   fmt.Sprintf("total hours (%.1f) exceeds maximum allowed (%.1f)", total, cap),
			Details: map[string]any{
				"total_hours":    total,
				"max_hours":      cap,
				"regular_hours":  rec.RegularHours,
				"overtime_hours": rec.OvertimeHours,
			},
		}
	}
	if total >= cap*0.9 {
		return domain.ValidationResult{
			CheckName: "hours_limit_check",
			Status:    domain.ValidationWarning,
			Message:   fmt.Sprintf("total hours (%.1f) approaching maximum limit (%.1f)", total, cap),
			Details:   map[string]any{"total_hours": total, "max_hours": cap},
		}
	}
	return domain.ValidationResult{
		CheckName: "hours_limit_check",
		Status:    domain.ValidationPassed,
		Message:   "hours within acceptable limits",
		Details:   map[string]any{"total_hours": total},
	}
}

// CheckPayCalculation recomputes gross and net pay and fails on any
// difference beyond the rounding tolerance. Overtime pays at 1.5x.
func CheckPayCalculation(rec domain.PayRecord) domain.ValidationResult {
	rate := rec.CrewMember.HourlyRate
	expectedGross := rec.RegularHours*rate + rec.OvertimeHours*rate*1.5

	if diff := abs(rec.GrossPay - expectedGross); diff > payTolerance {
		return domain.ValidationResult{
			CheckName: "pay_calculation_check",
			Status:    domain.ValidationFailed,
			Message:   fmt.Sprintf("gross pay mismatch: expected %.2f, got %.2f", expectedGross, rec.GrossPay),
			Details: map[string]any{
				"expected_gross_pay": expectedGross,
				"actual_gross_pay":   rec.GrossPay,
				"difference":         diff,
			},
		}
	}

	expectedNet := rec.GrossPay - rec.Deductions
	if diff := abs(rec.NetPay - expectedNet); diff > payTolerance {
		return domain.ValidationResult{
			CheckName: "pay_calculation_check",
			Status:    domain.ValidationFailed,
			Message:   fmt.Sprintf("net pay mismatch: expected %.2f, got %.2f", expectedNet, rec.NetPay),
			Details: map[string]any{
				"expected_net_pay": expectedNet,
				"actual_net_pay":   rec.NetPay,
			},
		}
	}

	return domain.ValidationResult{
		CheckName: "pay_calculation_check",
		Status:    domain.ValidationPassed,
		Message:   "pay calculations are accurate",
		Details:   map[string]any{"gross_pay": rec.GrossPay, "net_pay": rec.NetPay},
	}
}

// CheckPayPeriod fails on an inverted period and warns when the period
// length deviates more than two days from the nominal length for its type.
func CheckPayPeriod(rec domain.PayRecord) domain.ValidationResult {
	start, errStart := domain.ParseDate(rec.PayPeriodStart)
	end, errEnd := domain.ParseDate(rec.PayPeriodEnd)
	if errStart != nil || errEnd != nil {
		return domain.ValidationResult{
			CheckName: "pay_period_check",
			Status:    domain.ValidationFailed,
			Message:   "pay period dates are not parseable",
			Details:   map[string]any{"start": rec.PayPeriodStart, "end": rec.PayPeriodEnd},
		}
	}
	if !end.After(start) {
		return domain.ValidationResult{
			CheckName: "pay_period_check",
			Status:    domain.ValidationFailed,
			Message:   "pay period end date must be after start date",
			Details:   map[string]any{"start": rec.PayPeriodStart, "end": rec.PayPeriodEnd},
		}
	}

	days := rec.PeriodDays()
	expected := rec.PayPeriodType.NominalDays()
	if deviation := days - expected; deviation > periodSlackDays || deviation < -periodSlackDays {
		return domain.ValidationResult{
			CheckName: "pay_period_check",
			Status:    domain.ValidationWarning,
			Message:   fmt.Sprintf("pay period length (%d days) does not match type %s", days, rec.PayPeriodType),
			Details: map[string]any{
				"actual_days":     days,
				"expected_days":   expected,
				"pay_period_type": string(rec.PayPeriodType),
			},
		}
	}

	return domain.ValidationResult{
		CheckName: "pay_period_check",
		Status:    domain.ValidationPassed,
		Message:   "pay period is valid",
		Details:   map[string]any{"days": days},
	}
}

// CheckCompleteness fails when required identity or amount fields are
// missing or invalid.
func CheckCompleteness(rec domain.PayRecord) domain.ValidationResult {
	var missing []string
	if strings.TrimSpace(rec.CrewMember.Name) == "" {
		missing = append(missing, "crew_member.name")
	}
	if strings.TrimSpace(rec.CrewMember.EmployeeID) == "" {
		missing = append(missing, "crew_member.employee_id")
	}
	if rec.RegularHours < 0 {
		missing = append(missing, "regular_hours (invalid)")
	}
	if rec.GrossPay <= 0 {
		missing = append(missing, "gross_pay (invalid)")
	}

	if len(missing) > 0 {
		return domain.ValidationResult{
			CheckName: "data_completeness_check",
			Status:    domain.ValidationFailed,
			Message:   "missing or invalid required fields: " + strings.Join(missing, ", "),
			Details:   map[string]any{"missing_fields": missing},
		}
	}
	return domain.ValidationResult{
		CheckName: "data_completeness_check",
		Status:    domain.ValidationPassed,
		Message:   "all required data is present",
	}
}

// CheckPayRecord runs the four deterministic rule checks in order.
func CheckPayRecord(rec domain.PayRecord, t PayThresholds) []domain.ValidationResult {
	return []domain.ValidationResult{
		CheckHours(rec, t),
		CheckPayCalculation(rec),
		CheckPayPeriod(rec),
		CheckCompleteness(rec),
	}
}

// BuildReport aggregates check results into a report whose overall status
// is the worst among them.
func BuildReport(payRecordID string, results []domain.ValidationResult) domain.ValidationReport {
	statuses := make([]domain.ValidationStatus, 0, len(results))
	for _, r := range results {
		statuses = append(statuses, r.Status)
	}
	overall := domain.WorstStatus(statuses...)
	return domain.ValidationReport{
		PayRecordID:   payRecordID,
		OverallStatus: overall,
		Results:       results,
		Summary:       summarize(results, overall),
	}
}

func summarize(results []domain.ValidationResult, overall domain.ValidationStatus) string {
	var passed, warnings, failed int
	var failedChecks []string
	for _, r := range results {
		switch r.Status {
		case domain.ValidationPassed:
			passed++
		case domain.ValidationWarning:
			warnings++
		case domain.ValidationFailed:
			failed++
			failedChecks = append(failedChecks, r.CheckName)
		}
	}
	summary := fmt.Sprintf("validation completed with status %s: %d passed, %d warnings, %d failed", overall, passed, warnings, failed)
	if failed > 0 {
		summary += " (failed: " + strings.Join(failedChecks, ", ") + ")"
	}
	return summary
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
