package policy

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/guardmap/internal/model"
)

// TestResult is the outcome of one policy self-test fixture.
type TestResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected bool   `json:"expected"`
	Actual   bool   `json:"actual"`
	Reason   string `json:"reason,omitempty"`
}

// PolicyTestResults groups fixture results under their policy.
type PolicyTestResults struct {
	PolicyID   string       `json:"policy_id"`
	PolicyName string       `json:"policy_name"`
	Tests      []TestResult `json:"tests"`
}

// TestReport aggregates self-test results across a policy set.
type TestReport struct {
	TotalPolicies int                 `json:"total_policies"`
	TotalTests    int                 `json:"total_tests"`
	Passed        int                 `json:"passed"`
	Failed        int                 `json:"failed"`
	Success       bool                `json:"success"`
	Details       []PolicyTestResults `json:"details"`
}

// RunTests re-evaluates every tests[] fixture against its own policy.
// Cases are independent: each one is a fresh call to Evaluate.
func RunTests(policies []model.Policy) *TestReport {
	report := &TestReport{
		TotalPolicies: len(policies),
		Details:       []PolicyTestResults{},
	}

	for _, p := range policies {
		group := PolicyTestResults{
			PolicyID:   p.ID,
			PolicyName: p.Description,
			Tests:      []TestResult{},
		}
		for _, tc := range p.Tests {
			d := Evaluate(p, tc.Input)
			tr := TestResult{
				Name:     tc.Name,
				Expected: tc.Expect.Allowed,
				Actual:   d.Allowed,
				Reason:   d.Reason,
				Passed:   d.Allowed == tc.Expect.Allowed,
			}
			report.TotalTests++
			if tr.Passed {
				report.Passed++
			}
			group.Tests = append(group.Tests, tr)
		}
		report.Details = append(report.Details, group)
	}

	report.Failed = report.TotalTests - report.Passed
	report.Success = report.Failed == 0
	return report
}

// FormatText renders a self-test report as human-readable text.
func FormatText(r *TestReport) string {
	var b strings.Builder

	header := fmt.Sprintf("Policy self-tests: %d policies, %d tests", r.TotalPolicies, r.TotalTests)
	fmt.Fprintln(&b, header)
	fmt.Fprintln(&b, strings.Repeat("═", len(header)))

	for _, d := range r.Details {
		if len(d.Tests) == 0 {
			fmt.Fprintf(&b, "  %-30s no tests\n", d.PolicyID)
			continue
		}
		passed := 0
		for _, tr := range d.Tests {
			if tr.Passed {
				passed++
			}
		}
		status := "PASS"
		if passed < len(d.Tests) {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %-30s %d/%-4d %s\n", d.PolicyID, passed, len(d.Tests), status)

		for _, tr := range d.Tests {
			if !tr.Passed {
				fmt.Fprintf(&b, "    FAIL  %-28s expected allowed=%t, got %t (%s)\n",
					tr.Name, tr.Expected, tr.Actual, tr.Reason)
			}
		}
	}

	fmt.Fprintln(&b, strings.Repeat("─", len(header)))

	status := "PASS"
	if !r.Success {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "Result: %s (%d/%d)\n", status, r.Passed, r.TotalTests)

	return b.String()
}

// FormatJSON renders a self-test report as JSON.
func FormatJSON(r *TestReport) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal test report: %w", err)
	}
	return string(data), nil
}
