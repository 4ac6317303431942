package openai

import (
	"fmt"
	"strings"

	"crewpay-orchestrator/internal/domain"
)

const PAY_VALIDATION_SYSTEM = `You are a payroll validation expert.
Review the pay record and identify anomalies, inconsistencies or concerns.
You must output ONLY valid JSON and nothing else.
No markdown. No comments. No extra keys.

Return a JSON object with exactly these keys:
{
  "status": "passed" | "warning" | "failed",
  "message": "brief explanation",
  "concerns": ["list", "of", "concerns"]
}`

const PAY_VALIDATION_USER_TEMPLATE = `Review this pay record for semantic anomalies.

Employee: {{EMPLOYEE_NAME}} ({{EMPLOYEE_ID}})
Position: {{POSITION}}
Department: {{DEPARTMENT}}
Hourly Rate: ${{HOURLY_RATE}}

Pay Period: {{PERIOD_START}} to {{PERIOD_END}}
Regular Hours: {{REGULAR_HOURS}}
Overtime Hours: {{OVERTIME_HOURS}}

Gross Pay: ${{GROSS_PAY}}
Deductions: ${{DEDUCTIONS}}
Net Pay: ${{NET_PAY}}

Return JSON only.`

const CLAIM_SYSTEM = `You are a claims processing expert.
Evaluate the claim considering type, amount, documentation, description
completeness and reasonableness of the request.
You must output ONLY valid JSON and nothing else.
No markdown. No comments. No extra keys.

Return a JSON object with exactly these keys:
{
  "decision": "approved" | "rejected" | "under_review",
  "approved_amount": <number>,
  "rationale": "explanation for the decision",
  "next_steps": ["recommended next steps"]
}`

const CLAIM_USER_TEMPLATE = `Evaluate this claim.

Claim ID: {{CLAIM_ID}}
Crew Member: {{EMPLOYEE_NAME}} ({{EMPLOYEE_ID}})
Position: {{POSITION}}
Department: {{DEPARTMENT}}

Claim Type: {{CLAIM_TYPE}}
Requested Amount: ${{AMOUNT}}
Description: {{DESCRIPTION}}

Supporting Documents: {{DOCUMENTS}}

Return JSON only.`

const COMPLIANCE_SYSTEM = `You are a compliance expert specializing in labor laws and payroll regulations.
Review the provided information for potential compliance issues. Consider
FLSA compliance, tax regulations, record-keeping requirements and equal pay.
You must output ONLY valid JSON and nothing else.
No markdown. No comments. No extra keys.

Return a JSON object with exactly these keys:
{
  "compliant": true | false,
  "concerns": ["list of concerns"],
  "recommendations": ["list of recommendations"]
}`

const COMPLIANCE_USER_TEMPLATE = `Compliance check context:
{{CONTEXT}}

Return JSON only.`

func RenderTemplate(tpl string, vars map[string]string) string {
	rendered := tpl
	for k, v := range vars {
		rendered = strings.ReplaceAll(rendered, "{{"+k+"}}", v)
	}
	return rendered
}

func BuildPayValidationPrompt(rec domain.PayRecord) string {
	return RenderTemplate(PAY_VALIDATION_USER_TEMPLATE, map[string]string{
		"EMPLOYEE_NAME":  rec.CrewMember.Name,
		"EMPLOYEE_ID":    rec.CrewMember.EmployeeID,
		"POSITION":       rec.CrewMember.Position,
		"DEPARTMENT":     rec.CrewMember.Department,
		"HOURLY_RATE":    fmt.Sprintf("%.2f", rec.CrewMember.HourlyRate),
		"PERIOD_START":   rec.PayPeriodStart,
		"PERIOD_END":     rec.PayPeriodEnd,
		"REGULAR_HOURS":  fmt.Sprintf("%.1f", rec.RegularHours),
		"OVERTIME_HOURS": fmt.Sprintf("%.1f", rec.OvertimeHours),
		"GROSS_PAY":      fmt.Sprintf("%.2f", rec.GrossPay),
		"DEDUCTIONS":     fmt.Sprintf("%.2f", rec.Deductions),
		"NET_PAY":        fmt.Sprintf("%.2f", rec.NetPay),
	})
}

func BuildClaimPrompt(c domain.Claim) string {
	docs := "none"
	if len(c.SupportingDocuments) > 0 {
		docs = strings.Join(c.SupportingDocuments, ", ")
	}
	return RenderTemplate(CLAIM_USER_TEMPLATE, map[string]string{
		"CLAIM_ID":      c.ID,
		"EMPLOYEE_NAME": c.CrewMember.Name,
		"EMPLOYEE_ID":   c.CrewMember.EmployeeID,
		"POSITION":      c.CrewMember.Position,
		"DEPARTMENT":    c.CrewMember.Department,
		"CLAIM_TYPE":    string(c.ClaimType),
		"AMOUNT":        fmt.Sprintf("%.2f", c.Amount),
		"DESCRIPTION":   c.Description,
		"DOCUMENTS":     docs,
	})
}

func BuildCompliancePrompt(rec *domain.PayRecord, c *domain.Claim) string {
	var b strings.Builder
	if rec != nil {
		fmt.Fprintf(&b, "Pay Record ID: %s\n", rec.ID)
		fmt.Fprintf(&b, "Employee: %s\n", rec.CrewMember.Name)
		fmt.Fprintf(&b, "Position: %s\n", rec.CrewMember.Position)
		fmt.Fprintf(&b, "Hourly Rate: $%.2f\n", rec.CrewMember.HourlyRate)
		fmt.Fprintf(&b, "Regular Hours: %.1f\n", rec.RegularHours)
		fmt.Fprintf(&b, "Overtime Hours: %.1f\n", rec.OvertimeHours)
		fmt.Fprintf(&b, "Gross Pay: $%.2f\n", rec.GrossPay)
		fmt.Fprintf(&b, "Deductions: $%.2f\n", rec.Deductions)
		fmt.Fprintf(&b, "Net Pay: $%.2f\n", rec.NetPay)
	}
	if c != nil {
		fmt.Fprintf(&b, "Claim ID: %s\n", c.ID)
		fmt.Fprintf(&b, "Employee: %s\n", c.CrewMember.Name)
		fmt.Fprintf(&b, "Claim Type: %s\n", c.ClaimType)
		fmt.Fprintf(&b, "Amount: $%.2f\n", c.Amount)
		fmt.Fprintf(&b, "Description: %s\n", c.Description)
	}
	return RenderTemplate(COMPLIANCE_USER_TEMPLATE, map[string]string{
		"CONTEXT": b.String(),
	})
}
