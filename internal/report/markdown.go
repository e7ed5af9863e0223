package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/model"
	"github.com/ppiankov/guardmap/internal/snapshot"
)

// Section is one framework in an export. Err set means the framework
// could not be loaded; the section is rendered as skipped.
type Section struct {
	FrameworkID string
	Map         *model.ComplianceMap
	Gaps        *model.GapAnalysis
	Err         error
}

// Export is a multi-framework compliance export.
type Export struct {
	Org                string
	GeneratedAt        time.Time
	WindowDays         int
	Sections           []Section
	IncludeRemediation bool
	Evidence           *audit.Evidence
	Trends             []snapshot.Trend
}

// Frameworks returns the requested framework ids in section order.
func (e *Export) Frameworks() []string {
	ids := make([]string, 0, len(e.Sections))
	for _, s := range e.Sections {
		ids = append(ids, s.FrameworkID)
	}
	return ids
}

// MapMarkdown renders one compliance map as markdown.
func MapMarkdown(cm *model.ComplianceMap) string {
	var b strings.Builder
	s := cm.Summary

	fmt.Fprintf(&b, "# %s Compliance Report\n\n", cm.FrameworkName)
	fmt.Fprintf(&b, "**Framework:** %s %s  \n", cm.FrameworkName, cm.FrameworkVersion)
	if cm.Project != "" {
		fmt.Fprintf(&b, "**Project:** %s  \n", cm.Project)
	}
	fmt.Fprintf(&b, "**Generated:** %s\n\n", cm.GeneratedAt.UTC().Format(time.RFC3339))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| Total Controls | %d |\n", s.TotalControls)
	fmt.Fprintf(&b, "| Covered | %d |\n", s.Covered)
	fmt.Fprintf(&b, "| Partial | %d |\n", s.Partial)
	fmt.Fprintf(&b, "| Gaps | %d |\n", s.Gaps)
	fmt.Fprintf(&b, "| Coverage | %d%% |\n\n", s.CoveragePercentage)

	b.WriteString("## Controls\n\n")
	b.WriteString("| Control | Title | Relevance | Status | Policies |\n")
	b.WriteString("|---------|-------|-----------|--------|----------|\n")
	for _, c := range cm.Controls {
		ids := make([]string, 0, len(c.MatchedPolicies))
		for _, m := range c.MatchedPolicies {
			ids = append(ids, m.PolicyID)
		}
		policies := "--"
		if len(ids) > 0 {
			policies = strings.Join(ids, ", ")
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", c.ControlID, cell(c.Title), c.AgentRelevance, c.Status, policies)
	}

	var open []model.ControlMapping
	for _, c := range cm.Controls {
		if c.Status != model.StatusCovered && len(c.GapRecommendations) > 0 {
			open = append(open, c)
		}
	}
	if len(open) > 0 {
		b.WriteString("\n## Recommendations\n\n")
		for _, c := range open {
			fmt.Fprintf(&b, "### %s -- %s\n\n", c.ControlID, c.Title)
			for _, r := range c.GapRecommendations {
				fmt.Fprintf(&b, "- %s\n", r)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// GapsMarkdown renders the risk assessment and remediation priority matrix.
func GapsMarkdown(ga *model.GapAnalysis) string {
	var b strings.Builder

	b.WriteString("## Risk Assessment\n\n")
	fmt.Fprintf(&b, "**Overall Risk:** %s\n\n%s\n\n", ga.RiskAssessment.OverallRisk, ga.RiskAssessment.Narrative)
	if len(ga.RiskAssessment.ImmediateActions) > 0 {
		b.WriteString("**Immediate Actions:**\n\n")
		for _, a := range ga.RiskAssessment.ImmediateActions {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		b.WriteString("\n")
	}

	if len(ga.RemediationPlan) > 0 {
		b.WriteString(RemediationMatrix(ga))
	}
	return b.String()
}

// RemediationMatrix renders the priority table and total effort line.
func RemediationMatrix(ga *model.GapAnalysis) string {
	var b strings.Builder
	b.WriteString("\n## Remediation Priority Matrix\n\n")
	b.WriteString("| Priority | Control | Status | Relevance | Effort |\n")
	b.WriteString("|----------|---------|--------|-----------|--------|\n")
	for _, item := range ga.RemediationPlan {
		fmt.Fprintf(&b, "| %d | %s -- %s | %s | %s | %s |\n",
			item.Priority, item.ControlID, cell(item.Title), item.Status, item.AgentRelevance, item.EstimatedEffort)
	}
	fmt.Fprintf(&b, "\nEstimated Total Effort: %s\n", ga.Summary.EstimatedTotalEffort)
	return b.String()
}

// Markdown renders a full export.
func Markdown(e *Export) string {
	var sections []string

	for _, s := range e.Sections {
		if s.Err != nil || s.Map == nil {
			sections = append(sections, fmt.Sprintf("## %s\n\nFramework not found. Skipping.\n\n", s.FrameworkID))
			continue
		}
		body := MapMarkdown(s.Map)
		if e.IncludeRemediation && s.Gaps != nil && len(s.Gaps.RemediationPlan) > 0 {
			body += RemediationMatrix(s.Gaps)
		}
		sections = append(sections, body)
	}

	if e.Evidence != nil {
		sections = append(sections, EvidenceMarkdown(e.Evidence))
	}
	if len(e.Trends) > 0 {
		sections = append(sections, TrendsMarkdown(e.Trends))
	}

	var b strings.Builder
	b.WriteString("# Compliance Export\n\n")
	fmt.Fprintf(&b, "**Organization:** %s  \n", e.Org)
	fmt.Fprintf(&b, "**Generated:** %s  \n", e.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Frameworks:** %s  \n", strings.Join(e.Frameworks(), ", "))
	fmt.Fprintf(&b, "**Evidence Window:** %d days\n\n---\n\n", e.WindowDays)
	b.WriteString(strings.Join(sections, "\n---\n\n"))
	return b.String()
}

// EvidenceMarkdown renders decision-log evidence.
func EvidenceMarkdown(ev *audit.Evidence) string {
	var b strings.Builder
	b.WriteString("\n# Enforcement Evidence\n\n")
	fmt.Fprintf(&b, "**Window:** %d days  \n", ev.WindowDays)
	fmt.Fprintf(&b, "**Total Guard Decisions:** %d  \n", ev.Total)
	fmt.Fprintf(&b, "**Blocked:** %d\n\n", ev.Blocked)

	if len(ev.Breakdown) > 0 {
		b.WriteString("## Guard Decision Breakdown\n\n")
		b.WriteString("| Tool | Decision | Count |\n")
		b.WriteString("|------|----------|-------|\n")
		for _, row := range ev.Breakdown {
			tool := row.Tool
			if tool == "" {
				tool = "--"
			}
			fmt.Fprintf(&b, "| %s | %s | %d |\n", cell(tool), row.Decision, row.Count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TrendsMarkdown renders per-framework coverage history.
func TrendsMarkdown(trends []snapshot.Trend) string {
	var b strings.Builder
	b.WriteString("\n# Compliance Trends\n\n")

	for _, t := range trends {
		fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(t.Framework))
		b.WriteString("| Date | Coverage | Covered | Partial | Gaps | Risk |\n")
		b.WriteString("|------|----------|---------|---------|------|------|\n")
		for _, s := range t.Snapshots {
			fmt.Fprintf(&b, "| %s | %d%% | %d | %d | %d | %s |\n",
				s.CreatedAt.Format("Jan 2, 2006"), s.CoveragePercentage, s.Covered, s.Partial, s.Gaps, s.RiskLevel)
		}
		b.WriteString("\n")

		if t.HasDirection() {
			sign := ""
			if t.Delta > 0 {
				sign = "+"
			}
			fmt.Fprintf(&b, "**Trend:** %s (%s%d%% since last snapshot)\n\n", t.Direction, sign, t.Delta)
		}
	}
	return b.String()
}

// cell escapes pipes so text fits in a table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
