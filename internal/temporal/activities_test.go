package temporal

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"crewpay-orchestrator/internal/domain"
	"crewpay-orchestrator/internal/openai"
	"crewpay-orchestrator/internal/rules"
)

type fakeStore struct {
	mu            sync.Mutex
	payStatuses   map[string]domain.PayStatus
	claimStatuses map[string]domain.ClaimStatus
	reports       map[string]domain.ValidationReport
	decisions     map[string]domain.ClaimDecision
	notifications map[string][]domain.Notification
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payStatuses:   make(map[string]domain.PayStatus),
		claimStatuses: make(map[string]domain.ClaimStatus),
		reports:       make(map[string]domain.ValidationReport),
		decisions:     make(map[string]domain.ClaimDecision),
		notifications: make(map[string][]domain.Notification),
	}
}

func (f *fakeStore) UpdatePayRecordStatus(_ context.Context, payRecordID string, status domain.PayStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payStatuses[payRecordID] = status
	return nil
}

func (f *fakeStore) UpdateClaimStatus(_ context.Context, claimID string, status domain.ClaimStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claimStatuses[claimID] = status
	return nil
}

func (f *fakeStore) SaveValidationReport(_ context.Context, runID string, report domain.ValidationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports[runID] = report
	return nil
}

func (f *fakeStore) SaveClaimDecision(_ context.Context, runID string, decision domain.ClaimDecision) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions[runID] = decision
	return nil
}

func (f *fakeStore) InsertNotification(_ context.Context, runID string, n domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications[runID] = append(f.notifications[runID], n)
	return nil
}

type stubLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (s *stubLLM) CompleteJSON(_ context.Context, _ openai.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", fmt.Errorf("stubLLM: no response configured")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Notification
}

func (r *recordingNotifier) Publish(_ context.Context, _ string, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func testActivities(store *fakeStore, llm *stubLLM, notifier *recordingNotifier) *Activities {
	acts := &Activities{
		Store:       store,
		LLM:         llm,
		Log:         zerolog.Nop(),
		Model:       "gpt-4o-mini",
		Temperature: 0,
		Timeout:     5 * time.Second,
		Thresholds: rules.PayThresholds{
			MaxRegularHoursPerWeek:  40,
			MaxOvertimeHoursPerWeek: 20,
		},
		MinimumHourlyWage: 15,
	}
	if notifier != nil {
		acts.Notifier = notifier
	}
	return acts
}

func testPayRecord() domain.PayRecord {
	return domain.PayRecord{
		ID: "pay-1",
		CrewMember: domain.CrewMember{
			ID:         "crew-1",
			Name:       "Sam Okafor",
			EmployeeID: "EMP-2001",
			Department: "Engine",
			Position:   "Engineer",
			HourlyRate: 75.50,
			Email:      "sam.okafor@example.com",
		},
		PayPeriodStart: "2026-08-01",
		PayPeriodEnd:   "2026-08-15",
		PayPeriodType:  domain.PeriodBiWeekly,
		RegularHours:   80,
		OvertimeHours:  5,
		GrossPay:       6606.25,
		Deductions:     1321.25,
		NetPay:         5285.00,
	}
}

func testClaim() domain.Claim {
	return domain.Claim{
		ID: "claim-1",
		CrewMember: domain.CrewMember{
			ID:         "crew-1",
			Name:       "Sam Okafor",
			EmployeeID: "EMP-2001",
			HourlyRate: 75.50,
			Email:      "sam.okafor@example.com",
		},
		ClaimType:           domain.ClaimReimbursement,
		Amount:              320.00,
		Description:         "reimbursement for safety boots purchased for deck duty",
		SupportingDocuments: []string{"receipt.pdf"},
	}
}

func TestPayValidationActivityHappyPath(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"status":"passed","message":"no anomalies"}`}}
	acts := testActivities(store, llm, nil)

	out, err := acts.PayValidationActivity(context.Background(), PayValidationInput{RunID: "run-1", PayRecord: testPayRecord()})
	require.NoError(t, err)
	require.Equal(t, domain.ValidationPassed, out.Report.OverallStatus)
	require.Len(t, out.Report.Results, 5)
	require.Equal(t, domain.PayStatusValidated, store.payStatuses["pay-1"])
	require.Equal(t, out.Report, store.reports["run-1"])
	require.Equal(t, 1, llm.callCount())
}

func TestPayValidationActivityCalculationMismatch(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"status":"passed","message":"no anomalies"}`}}
	acts := testActivities(store, llm, nil)

	rec := testPayRecord()
	rec.GrossPay = 6415.00
	rec.NetPay = rec.GrossPay - rec.Deductions

	out, err := acts.PayValidationActivity(context.Background(), PayValidationInput{RunID: "run-1", PayRecord: rec})
	require.NoError(t, err)
	require.Equal(t, domain.ValidationFailed, out.Report.OverallStatus)
	require.Equal(t, domain.PayStatusRejected, store.payStatuses["pay-1"])
}

func TestPayValidationActivityAdvisoryDegrades(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{err: fmt.Errorf("connection refused")}
	acts := testActivities(store, llm, nil)

	out, err := acts.PayValidationActivity(context.Background(), PayValidationInput{RunID: "run-1", PayRecord: testPayRecord()})
	require.NoError(t, err)
	require.Equal(t, domain.ValidationRequiresReview, out.Report.OverallStatus)

	var semantic *domain.ValidationResult
	for i := range out.Report.Results {
		if out.Report.Results[i].CheckName == "llm_semantic_check" {
			semantic = &out.Report.Results[i]
		}
	}
	require.NotNil(t, semantic)
	require.Equal(t, domain.ValidationRequiresReview, semantic.Status)
	require.Contains(t, semantic.Message, "connection refused")
	// Only failed reports reject the record; requires_review keeps it validated.
	require.Equal(t, domain.PayStatusValidated, store.payStatuses["pay-1"])
}

func TestPayValidationActivityAdvisoryContractViolationDegrades(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"status":"passed","message":"ok","extra_key":true}`}}
	acts := testActivities(store, llm, nil)

	out, err := acts.PayValidationActivity(context.Background(), PayValidationInput{RunID: "run-1", PayRecord: testPayRecord()})
	require.NoError(t, err)
	require.Equal(t, domain.ValidationRequiresReview, out.Report.OverallStatus)
}

func TestClaimsProcessingActivityScreeningRejects(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{}
	acts := testActivities(store, llm, nil)

	claim := testClaim()
	claim.SupportingDocuments = nil

	out, err := acts.ClaimsProcessingActivity(context.Background(), ClaimsProcessingInput{RunID: "run-1", Claim: claim})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimStatusRejected, out.Decision.Decision)
	require.Zero(t, out.Decision.ApprovedAmount)
	require.Contains(t, out.Decision.Rationale, "supporting documents")
	require.Equal(t, domain.ClaimStatusRejected, store.claimStatuses["claim-1"])
	// Screening rejections never reach the advisory.
	require.Equal(t, 0, llm.callCount())
}

func TestClaimsProcessingActivityAutoApproves(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{}
	acts := testActivities(store, llm, nil)
	acts.AutoApproveThreshold = 1000

	out, err := acts.ClaimsProcessingActivity(context.Background(), ClaimsProcessingInput{RunID: "run-1", Claim: testClaim()})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimStatusApproved, out.Decision.Decision)
	require.Equal(t, 320.00, out.Decision.ApprovedAmount)
	require.Contains(t, out.Decision.Rationale, "auto-approved")
	require.Equal(t, 0, llm.callCount())
}

func TestClaimsProcessingActivityAdvisoryDecision(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"decision":"approved","approved_amount":300,"rationale":"documented and reasonable","next_steps":["process payment"]}`}}
	acts := testActivities(store, llm, nil)

	out, err := acts.ClaimsProcessingActivity(context.Background(), ClaimsProcessingInput{RunID: "run-1", Claim: testClaim()})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimStatusApproved, out.Decision.Decision)
	require.Equal(t, 300.00, out.Decision.ApprovedAmount)
	require.Equal(t, domain.ClaimStatusApproved, store.claimStatuses["claim-1"])
	require.Equal(t, 1, llm.callCount())
}

func TestClaimsProcessingActivityClampsApprovedAmount(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"decision":"approved","approved_amount":5000,"rationale":"generous"}`}}
	acts := testActivities(store, llm, nil)

	out, err := acts.ClaimsProcessingActivity(context.Background(), ClaimsProcessingInput{RunID: "run-1", Claim: testClaim()})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimStatusApproved, out.Decision.Decision)
	require.Equal(t, 320.00, out.Decision.ApprovedAmount)
}

func TestClaimsProcessingActivityAdvisoryDegrades(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{err: fmt.Errorf("gateway timeout")}
	acts := testActivities(store, llm, nil)

	out, err := acts.ClaimsProcessingActivity(context.Background(), ClaimsProcessingInput{RunID: "run-1", Claim: testClaim()})
	require.NoError(t, err)
	require.Equal(t, domain.ClaimStatusUnderReview, out.Decision.Decision)
	require.Zero(t, out.Decision.ApprovedAmount)
	require.Contains(t, out.Decision.Rationale, "gateway timeout")
	require.Equal(t, domain.ClaimStatusUnderReview, store.claimStatuses["claim-1"])
}

func TestComplianceActivity(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"compliant":true}`}}
	acts := testActivities(store, llm, nil)

	rec := testPayRecord()
	out, err := acts.ComplianceActivity(context.Background(), ComplianceInput{RunID: "run-1", PayRecord: &rec})
	require.NoError(t, err)
	require.True(t, out.AllPassed)
	require.Equal(t, rules.ComplianceCompliant, out.Status)
	require.Empty(t, out.FailedNames)
}

func TestComplianceActivityHardFailure(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"compliant":true}`}}
	acts := testActivities(store, llm, nil)

	rec := testPayRecord()
	rec.CrewMember.HourlyRate = 5

	out, err := acts.ComplianceActivity(context.Background(), ComplianceInput{RunID: "run-1", PayRecord: &rec})
	require.NoError(t, err)
	require.False(t, out.AllPassed)
	require.Equal(t, rules.ComplianceNonCompliant, out.Status)
	require.Contains(t, out.FailedNames, "minimum_wage_check")
}

func TestComplianceActivityAdvisoryConcernsWarnOnly(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{responses: []string{`{"compliant":false,"concerns":["possible FLSA issue"]}`}}
	acts := testActivities(store, llm, nil)

	rec := testPayRecord()
	out, err := acts.ComplianceActivity(context.Background(), ComplianceInput{RunID: "run-1", PayRecord: &rec})
	require.NoError(t, err)
	// Model concerns warn; only deterministic checks can fail a run.
	require.True(t, out.AllPassed)
	require.Equal(t, rules.ComplianceWithWarnings, out.Status)
}

func TestComplianceActivityAdvisorySkippedOnError(t *testing.T) {
	store := newFakeStore()
	llm := &stubLLM{err: fmt.Errorf("service unavailable")}
	acts := testActivities(store, llm, nil)

	rec := testPayRecord()
	out, err := acts.ComplianceActivity(context.Background(), ComplianceInput{RunID: "run-1", PayRecord: &rec})
	require.NoError(t, err)
	// Advisory failure is a warning, never a hard failure.
	require.True(t, out.AllPassed)
	require.Equal(t, rules.ComplianceWithWarnings, out.Status)
}

func TestNotificationActivity(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	acts := testActivities(store, &stubLLM{}, notifier)

	rec := testPayRecord()
	report := domain.ValidationReport{
		PayRecordID:   rec.ID,
		OverallStatus: domain.ValidationFailed,
		Results: []domain.ValidationResult{
			{CheckName: "pay_calculation_check", Status: domain.ValidationFailed, Message: "gross pay mismatch"},
		},
		Summary: "validation completed with status failed",
	}

	out, err := acts.NotificationActivity(context.Background(), NotificationInput{
		RunID:     "run-1",
		Kind:      RunKindPayValidation,
		PayRecord: &rec,
		Report:    &report,
		RunFailed: true,
		Enabled:   true,
	})
	require.NoError(t, err)
	require.Equal(t, 3, out.Count)

	types := make(map[domain.NotificationType]int)
	for _, n := range out.Notifications {
		types[n.Type]++
	}
	require.Equal(t, 1, types[domain.NotifyEmail])
	require.Equal(t, 1, types[domain.NotifyAlert])
	require.Equal(t, 1, types[domain.NotifyLog])

	require.Len(t, store.notifications["run-1"], 3)
	require.Len(t, notifier.events, 3)
}

func TestNotificationActivityDisabled(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	acts := testActivities(store, &stubLLM{}, notifier)

	rec := testPayRecord()
	out, err := acts.NotificationActivity(context.Background(), NotificationInput{
		RunID:     "run-1",
		Kind:      RunKindPayValidation,
		PayRecord: &rec,
		Enabled:   false,
	})
	require.NoError(t, err)
	require.Zero(t, out.Count)
	require.Empty(t, store.notifications["run-1"])
	require.Empty(t, notifier.events)
}
