package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"crewpay-orchestrator/internal/domain"
)

// Structured-output contract for the advisory responses. Unknown keys,
// missing required keys and out-of-enum values are all parse failures;
// callers degrade to the manual-review fallback on any error here.

type PayAdvisory struct {
	Status   domain.ValidationStatus `json:"status"`
	Message  string                  `json:"message"`
	Concerns []string                `json:"concerns"`
}

type ClaimAdvisory struct {
	Decision       domain.ClaimStatus `json:"decision"`
	ApprovedAmount float64            `json:"approved_amount"`
	Rationale      string             `json:"rationale"`
	NextSteps      []string           `json:"next_steps"`
}

type ComplianceAdvisory struct {
	Compliant       bool     `json:"compliant"`
	Concerns        []string `json:"concerns"`
	Recommendations []string `json:"recommendations"`
}

var payAdvisoryKeys = map[string]struct{}{
	"status":   {},
	"message":  {},
	"concerns": {},
}

var claimAdvisoryKeys = map[string]struct{}{
	"decision":        {},
	"approved_amount": {},
	"rationale":       {},
	"next_steps":      {},
}

var complianceAdvisoryKeys = map[string]struct{}{
	"compliant":       {},
	"concerns":        {},
	"recommendations": {},
}

func ParsePayAdvisory(raw string) (PayAdvisory, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PayAdvisory{}, fmt.Errorf("empty advisory output")
	}
	if err := validateKeys(trimmed, payAdvisoryKeys, []string{"status", "message"}); err != nil {
		return PayAdvisory{}, err
	}
	var v PayAdvisory
	if err := strictDecode([]byte(trimmed), &v); err != nil {
		return PayAdvisory{}, err
	}
	switch v.Status {
	case domain.ValidationPassed, domain.ValidationWarning, domain.ValidationFailed:
	default:
		return PayAdvisory{}, fmt.Errorf("advisory status %q outside contract", v.Status)
	}
	return v, nil
}

func ParseClaimAdvisory(raw string) (ClaimAdvisory, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ClaimAdvisory{}, fmt.Errorf("empty advisory output")
	}
	if err := validateKeys(trimmed, claimAdvisoryKeys, []string{"decision", "rationale"}); err != nil {
		return ClaimAdvisory{}, err
	}
	var v ClaimAdvisory
	if err := strictDecode([]byte(trimmed), &v); err != nil {
		return ClaimAdvisory{}, err
	}
	switch v.Decision {
	case domain.ClaimStatusApproved, domain.ClaimStatusRejected, domain.ClaimStatusUnderReview:
	default:
		return ClaimAdvisory{}, fmt.Errorf("advisory decision %q outside contract", v.Decision)
	}
	if v.ApprovedAmount < 0 {
		return ClaimAdvisory{}, fmt.Errorf("approved_amount must not be negative")
	}
	return v, nil
}

func ParseComplianceAdvisory(raw string) (ComplianceAdvisory, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ComplianceAdvisory{}, fmt.Errorf("empty advisory output")
	}
	if err := validateKeys(trimmed, complianceAdvisoryKeys, []string{"compliant"}); err != nil {
		return ComplianceAdvisory{}, err
	}
	var v ComplianceAdvisory
	if err := strictDecode([]byte(trimmed), &v); err != nil {
		return ComplianceAdvisory{}, err
	}
	return v, nil
}

func strictDecode(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

func validateKeys(raw string, allowed map[string]struct{}, required []string) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rawMap); err != nil {
		return err
	}
	for k := range rawMap {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("unknown key %q, allowed: %v", k, sortedKeys(allowed))
		}
	}
	for _, req := range required {
		if _, ok := rawMap[req]; !ok {
			return fmt.Errorf("missing required key %q", req)
		}
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
