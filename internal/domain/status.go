package domain

type PayPeriodType string

const (
	PeriodWeekly      PayPeriodType = "weekly"
	PeriodBiWeekly    PayPeriodType = "bi_weekly"
	PeriodSemiMonthly PayPeriodType = "semi_monthly"
	PeriodMonthly     PayPeriodType = "monthly"
)

// NominalDays returns the expected pay-period length in days.
func (p PayPeriodType) NominalDays() int {
	switch p {
	case PeriodWeekly:
		return 7
	case PeriodBiWeekly:
		return 14
	case PeriodSemiMonthly:
		return 15
	case PeriodMonthly:
		return 30
	default:
		return 14
	}
}

type PayStatus string

const (
	PayStatusPending   PayStatus = "pending"
	PayStatusValidated PayStatus = "validated"
	PayStatusRejected  PayStatus = "rejected"
	PayStatusProcessed PayStatus = "processed"
	PayStatusPaid      PayStatus = "paid"
)

type ClaimType string

const (
	ClaimOvertime      ClaimType = "overtime"
	ClaimReimbursement ClaimType = "reimbursement"
	ClaimBonus         ClaimType = "bonus"
	ClaimAdjustment    ClaimType = "adjustment"
	ClaimDispute       ClaimType = "dispute"
)

type ClaimStatus string

const (
	ClaimStatusSubmitted   ClaimStatus = "submitted"
	ClaimStatusUnderReview ClaimStatus = "under_review"
	ClaimStatusApproved    ClaimStatus = "approved"
	ClaimStatusRejected    ClaimStatus = "rejected"
	ClaimStatusPaid        ClaimStatus = "paid"
)

type ValidationStatus string

const (
	ValidationPassed         ValidationStatus = "passed"
	ValidationWarning        ValidationStatus = "warning"
	ValidationFailed         ValidationStatus = "failed"
	ValidationRequiresReview ValidationStatus = "requires_review"
)

var validationSeverity = map[ValidationStatus]int{
	ValidationPassed:         0,
	ValidationWarning:        1,
	ValidationRequiresReview: 2,
	ValidationFailed:         3,
}

// WorstStatus returns the most severe status among the given results,
// under the ordering failed > requires_review > warning > passed.
func WorstStatus(statuses ...ValidationStatus) ValidationStatus {
	worst := ValidationPassed
	for _, s := range statuses {
		if validationSeverity[s] > validationSeverity[worst] {
			worst = s
		}
	}
	return worst
}

type WorkflowStatus string

const (
	WorkflowInProgress WorkflowStatus = "in_progress"
	WorkflowCompleted  WorkflowStatus = "completed"
	WorkflowFailed     WorkflowStatus = "failed"
)

type NotificationType string

const (
	NotifyEmail NotificationType = "email"
	NotifyAlert NotificationType = "alert"
	NotifyTask  NotificationType = "task"
	NotifyLog   NotificationType = "log"
)
