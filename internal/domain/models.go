package domain

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses an ISO YYYY-MM-DD date string.
func ParseDate(v string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(v))
}

type CrewMember struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	EmployeeID string  `json:"employee_id"`
	Department string  `json:"department"`
	Position   string  `json:"position"`
	HourlyRate float64 `json:"hourly_rate"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
}

func (c CrewMember) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return NewValidationError("crew member id is required")
	}
	if c.HourlyRate <= 0 {
		return NewValidationError(fmt.Sprintf("hourly rate must be positive, got %.2f", c.HourlyRate))
	}
	return nil
}

type PayRecord struct {
	ID             string         `json:"id"`
	CrewMember     CrewMember     `json:"crew_member"`
	PayPeriodStart string         `json:"pay_period_start"`
	PayPeriodEnd   string         `json:"pay_period_end"`
	PayPeriodType  PayPeriodType  `json:"pay_period_type"`
	RegularHours   float64        `json:"regular_hours"`
	OvertimeHours  float64        `json:"overtime_hours"`
	GrossPay       float64        `json:"gross_pay"`
	Deductions     float64        `json:"deductions"`
	NetPay         float64        `json:"net_pay"`
	Status         PayStatus      `json:"status,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Validate enforces construction invariants. It is called at input-parse
// time, before any workflow starts.
func (p PayRecord) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return NewValidationError("pay record id is required")
	}
	if err := p.CrewMember.Validate(); err != nil {
		return err
	}
	start, err := ParseDate(p.PayPeriodStart)
	if err != nil {
		return NewValidationError(fmt.Sprintf("pay_period_start is not a valid date: %v", err))
	}
	end, err := ParseDate(p.PayPeriodEnd)
	if err != nil {
		return NewValidationError(fmt.Sprintf("pay_period_end is not a valid date: %v", err))
	}
	if !end.After(start) {
		return NewValidationError("pay period end must be after start date")
	}
	if p.RegularHours < 0 || p.OvertimeHours < 0 {
		return NewValidationError("hours must not be negative")
	}
	if p.GrossPay < 0 || p.Deductions < 0 || p.NetPay < 0 {
		return NewValidationError("pay amounts must not be negative")
	}
	return nil
}

// PeriodDays returns the pay period length in days. Validate must have
// passed for the result to be meaningful.
func (p PayRecord) PeriodDays() int {
	start, err1 := ParseDate(p.PayPeriodStart)
	end, err2 := ParseDate(p.PayPeriodEnd)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

type Claim struct {
	ID                  string         `json:"id"`
	CrewMember          CrewMember     `json:"crew_member"`
	ClaimType           ClaimType      `json:"claim_type"`
	Amount              float64        `json:"amount"`
	Description         string         `json:"description"`
	SupportingDocuments []string       `json:"supporting_documents,omitempty"`
	SubmittedDate       string         `json:"submitted_date,omitempty"`
	Status              ClaimStatus    `json:"status,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
}

func (c Claim) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return NewValidationError("claim id is required")
	}
	if err := c.CrewMember.Validate(); err != nil {
		return err
	}
	if c.Amount <= 0 {
		return NewValidationError(fmt.Sprintf("claim amount must be positive, got %.2f", c.Amount))
	}
	return nil
}

// ValidationResult is the outcome of one named check.
type ValidationResult struct {
	CheckName string           `json:"check_name"`
	Status    ValidationStatus `json:"status"`
	Message   string           `json:"message"`
	Details   map[string]any   `json:"details,omitempty"`
}

// ValidationReport aggregates all check results for one pay record.
// OverallStatus is the worst status among the results.
type ValidationReport struct {
	PayRecordID   string             `json:"pay_record_id"`
	OverallStatus ValidationStatus   `json:"overall_status"`
	Results       []ValidationResult `json:"validation_results"`
	Summary       string             `json:"summary"`
}

// ClaimDecision is the final verdict for one claim.
type ClaimDecision struct {
	ClaimID        string      `json:"claim_id"`
	Decision       ClaimStatus `json:"decision"`
	ApprovedAmount float64     `json:"approved_amount"`
	Rationale      string      `json:"rationale"`
	Reviewer       string      `json:"reviewer"`
	NextSteps      []string    `json:"next_steps,omitempty"`
}

// ComplianceCheck is one regulatory/policy check outcome.
type ComplianceCheck struct {
	CheckName string         `json:"check_name"`
	Passed    bool           `json:"passed"`
	Warning   bool           `json:"warning"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

type Notification struct {
	Type      NotificationType `json:"type"`
	Recipient string           `json:"recipient"`
	Subject   string           `json:"subject"`
	Body      string           `json:"body"`
	Sent      bool             `json:"sent"`
	Timestamp string           `json:"timestamp"`
}

// WorkflowRunRecord is the persisted view of one workflow run.
type WorkflowRunRecord struct {
	RunID            string            `json:"run_id"`
	Kind             string            `json:"kind"`
	SubjectID        string            `json:"subject_id"`
	Status           WorkflowStatus    `json:"status"`
	ValidationReport *ValidationReport `json:"validation_report,omitempty"`
	ClaimDecision    *ClaimDecision    `json:"claim_decision,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	DurationSeconds  float64           `json:"duration_seconds"`
}
