// Package report renders compliance maps, gap analyses and exports as
// text, markdown or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/guardmap/internal/model"
)

// MapText renders a compliance map as human-readable text.
func MapText(cm *model.ComplianceMap) string {
	var b strings.Builder

	header := fmt.Sprintf("Compliance: %s %s", cm.FrameworkName, cm.FrameworkVersion)
	if cm.Project != "" {
		header += " | Project: " + cm.Project
	}
	fmt.Fprintln(&b, header)
	fmt.Fprintln(&b, strings.Repeat("═", len([]rune(header))))

	for _, c := range cm.Controls {
		fmt.Fprintf(&b, "  %-14s %-8s %-9s %s\n", c.ControlID, strings.ToUpper(string(c.Status)), c.AgentRelevance, truncate(c.Title, 44))
		for _, m := range c.MatchedPolicies {
			fmt.Fprintf(&b, "      ↳ %s (%s)\n", m.PolicyID, m.MappingCoverage)
		}
	}

	fmt.Fprintln(&b, strings.Repeat("─", len([]rune(header))))
	s := cm.Summary
	fmt.Fprintf(&b, "Coverage: %d%% (%d covered, %d partial, %d gaps of %d)\n",
		s.CoveragePercentage, s.Covered, s.Partial, s.Gaps, s.TotalControls)

	return b.String()
}

// GapsText renders a gap analysis as human-readable text.
func GapsText(ga *model.GapAnalysis) string {
	var b strings.Builder

	header := fmt.Sprintf("Gap analysis: %s | Risk: %s", ga.Framework, ga.RiskAssessment.OverallRisk)
	fmt.Fprintln(&b, header)
	fmt.Fprintln(&b, strings.Repeat("═", len([]rune(header))))
	fmt.Fprintln(&b, ga.RiskAssessment.Narrative)

	if len(ga.RiskAssessment.ImmediateActions) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Immediate actions:")
		for _, a := range ga.RiskAssessment.ImmediateActions {
			fmt.Fprintf(&b, "  ! %s\n", a)
		}
	}

	if len(ga.RemediationPlan) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "Remediation plan:")
		for _, item := range ga.RemediationPlan {
			fmt.Fprintf(&b, "  %3d. %-14s %-8s %-9s %-11s %s\n",
				item.Priority, item.ControlID, item.Status, item.AgentRelevance, item.EstimatedEffort, truncate(item.Title, 36))
		}
	}

	if len(ga.QuickWins) > 0 {
		ids := make([]string, 0, len(ga.QuickWins))
		for _, q := range ga.QuickWins {
			ids = append(ids, q.ControlID)
		}
		fmt.Fprintf(&b, "\nQuick wins: %s\n", strings.Join(ids, ", "))
	}

	fmt.Fprintln(&b, strings.Repeat("─", len([]rune(header))))
	s := ga.Summary
	fmt.Fprintf(&b, "Items: %d (critical gaps %d, high gaps %d), estimated effort: %s\n",
		s.TotalRemediationItems, s.CriticalGaps, s.HighGaps, s.EstimatedTotalEffort)

	return b.String()
}

// JSON renders v as indented JSON.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
