//go:build system

package system_test

import (
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crewpay-orchestrator/internal/domain"
)

var _ = Describe("System happy paths", Ordered, func() {
	var cfg systemTestConfig
	var apiBaseURL string

	BeforeAll(func() {
		if os.Getenv("RUN_SYSTEM_TEST") != "1" {
			Skip("set RUN_SYSTEM_TEST=1 to run the real system test against running services")
		}

		cfg = loadSystemTestConfig()
		apiBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

		By("failing fast if infrastructure is unreachable")
		Expect(waitForPostgres(cfg.PostgresDSN, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(apiBaseURL+"/healthz", 200, cfg.PreflightTimeout)).To(Succeed())
		Expect(waitForHTTPStatus(apiBaseURL+"/readyz", 200, cfg.PreflightTimeout)).To(Succeed())
	})

	It("validates a clean pay record end to end through a real worker", func() {
		payload := map[string]any{
			"id": "sys-pay-1",
			"crew_member": map[string]any{
				"id":          "sys-crew-1",
				"name":        "Riley Tan",
				"employee_id": "EMP-9001",
				"department":  "Deck",
				"position":    "Bosun",
				"hourly_rate": 32.00,
				"email":       "riley.tan@example.com",
			},
			"pay_period_start": "2026-08-01",
			"pay_period_end":   "2026-08-15",
			"pay_period_type":  "bi_weekly",
			"regular_hours":    80,
			"overtime_hours":   4,
			"gross_pay":        2752.00,
			"deductions":       550.40,
			"net_pay":          2201.60,
		}

		result, err := postJSON(apiBaseURL+"/v1/pay-records/validate", payload, cfg.RunTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.RunID).ToNot(BeEmpty())
		Expect(result.Status).To(Equal(domain.WorkflowCompleted))
		Expect(result.ValidationReport).ToNot(BeNil())
		Expect(result.ValidationReport.OverallStatus).ToNot(Equal(domain.ValidationFailed))
		Expect(result.NotificationsSent).To(BeNumerically(">", 0))
	})

	It("rejects an inconsistent pay record without running compliance", func() {
		payload := map[string]any{
			"id": "sys-pay-2",
			"crew_member": map[string]any{
				"id":          "sys-crew-1",
				"name":        "Riley Tan",
				"employee_id": "EMP-9001",
				"hourly_rate": 32.00,
			},
			"pay_period_start": "2026-08-01",
			"pay_period_end":   "2026-08-15",
			"pay_period_type":  "bi_weekly",
			"regular_hours":    80,
			"gross_pay":        9999.00,
			"deductions":       500.00,
			"net_pay":          9499.00,
		}

		result, err := postJSON(apiBaseURL+"/v1/pay-records/validate", payload, cfg.RunTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Status).To(Equal(domain.WorkflowFailed))
		Expect(result.ValidationReport).ToNot(BeNil())
		Expect(result.ValidationReport.OverallStatus).To(Equal(domain.ValidationFailed))
		Expect(result.ComplianceStatus).To(BeEmpty())
	})

	It("processes a documented reimbursement claim end to end", func() {
		payload := map[string]any{
			"id": "sys-claim-1",
			"crew_member": map[string]any{
				"id":          "sys-crew-1",
				"name":        "Riley Tan",
				"employee_id": "EMP-9001",
				"hourly_rate": 32.00,
				"email":       "riley.tan@example.com",
			},
			"claim_type":           "reimbursement",
			"amount":               145.80,
			"description":          "reimbursement for replacement work gloves and harness clips",
			"supporting_documents": []string{"receipt-gloves.pdf"},
		}

		result, err := postJSON(apiBaseURL+"/v1/claims/process", payload, cfg.RunTimeout)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Status).To(Equal(domain.WorkflowCompleted))
		Expect(result.ClaimDecision).ToNot(BeNil())
		Expect(result.ClaimDecision.Decision).To(BeElementOf(
			domain.ClaimStatusApproved,
			domain.ClaimStatusRejected,
			domain.ClaimStatusUnderReview,
		))
	})
})
