// Package remediation turns a compliance map into a prioritized,
// effort-estimated remediation plan with an overall risk rating.
package remediation

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/guardmap/internal/model"
)

// Risk band floors on coverage percentage.
const (
	LowRiskFloor    = 80
	MediumRiskFloor = 60
	HighRiskFloor   = 40
)

// DefaultAction is used in immediate actions for controls without
// recommendations.
const DefaultAction = "Review and remediate"

// Analyzer builds gap analyses with a configurable effort table.
type Analyzer struct {
	Effort EffortTable
}

// NewAnalyzer returns an analyzer using the default effort table.
func NewAnalyzer() *Analyzer {
	return &Analyzer{Effort: DefaultEffortTable()}
}

// Analyze derives a GapAnalysis from cm using the default effort table.
func Analyze(cm *model.ComplianceMap, now time.Time) *model.GapAnalysis {
	return NewAnalyzer().Analyze(cm, now)
}

// Analyze derives a GapAnalysis from cm.
func (a *Analyzer) Analyze(cm *model.ComplianceMap, now time.Time) *model.GapAnalysis {
	plan := a.Plan(cm.Controls)

	quickWins := []model.RemediationItem{}
	totalHours := 0
	for _, item := range plan {
		totalHours += a.Effort.Hours(item.EstimatedEffort)
		if a.Effort.IsQuickWin(item.EstimatedEffort) {
			quickWins = append(quickWins, item)
		}
	}

	summary := model.GapSummary{
		Summary:               cm.Summary,
		TotalRemediationItems: len(plan),
		EstimatedTotalEffort:  a.Effort.Total(totalHours),
	}
	for _, c := range cm.Controls {
		if c.Status != model.StatusGap {
			continue
		}
		switch c.AgentRelevance {
		case model.RelevanceCritical:
			summary.CriticalGaps++
		case model.RelevanceHigh:
			summary.HighGaps++
		}
	}

	return &model.GapAnalysis{
		Framework:       cm.Framework,
		AnalysisDate:    now.UTC(),
		Summary:         summary,
		RemediationPlan: plan,
		QuickWins:       quickWins,
		RiskAssessment:  Assess(cm),
	}
}

// Plan orders gap and partial controls into remediation items.
// Gaps precede partials; the combined list is sorted by relevance with
// the concatenation position as the tie-breaker.
func (a *Analyzer) Plan(controls []model.ControlMapping) []model.RemediationItem {
	var gaps, partials []model.ControlMapping
	for _, c := range controls {
		switch c.Status {
		case model.StatusGap:
			gaps = append(gaps, c)
		case model.StatusPartial:
			partials = append(partials, c)
		}
	}

	type ranked struct {
		control  model.ControlMapping
		position int
	}
	items := make([]ranked, 0, len(gaps)+len(partials))
	for _, c := range append(gaps, partials...) {
		items = append(items, ranked{control: c, position: len(items)})
	}

	sort.Slice(items, func(i, j int) bool {
		oi, oj := items[i].control.AgentRelevance.Ordinal(), items[j].control.AgentRelevance.Ordinal()
		if oi != oj {
			return oi < oj
		}
		return items[i].position < items[j].position
	})

	plan := make([]model.RemediationItem, 0, len(items))
	for i, it := range items {
		recs := it.control.GapRecommendations
		if recs == nil {
			recs = []string{}
		}
		plan = append(plan, model.RemediationItem{
			Priority:        i + 1,
			ControlID:       it.control.ControlID,
			Title:           it.control.Title,
			Status:          it.control.Status,
			AgentRelevance:  it.control.AgentRelevance,
			Recommendations: recs,
			EstimatedEffort: a.Effort.Estimate(len(recs)),
		})
	}
	return plan
}

// RiskLevel bands a coverage percentage.
func RiskLevel(coverage int) model.RiskLevel {
	switch {
	case coverage >= LowRiskFloor:
		return model.RiskLow
	case coverage >= MediumRiskFloor:
		return model.RiskMedium
	case coverage >= HighRiskFloor:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// Narrative returns the fixed narrative for a risk level.
func Narrative(level model.RiskLevel, coverage int) string {
	switch level {
	case model.RiskLow:
		return fmt.Sprintf("Strong compliance posture with %d%% coverage. Focus on closing remaining gaps to achieve full compliance.", coverage)
	case model.RiskMedium:
		return fmt.Sprintf("Moderate compliance posture with %d%% coverage. Several controls have gaps that should be addressed before the next audit cycle.", coverage)
	case model.RiskHigh:
		return fmt.Sprintf("Below-target compliance posture with %d%% coverage. Significant gaps exist that pose risk to audit readiness. Prioritize critical and high-relevance controls.", coverage)
	default:
		return fmt.Sprintf("Critical compliance gaps with only %d%% coverage. Immediate remediation required. Agent operations may not meet minimum regulatory requirements.", coverage)
	}
}

// Assess computes the risk rating and immediate actions for cm.
func Assess(cm *model.ComplianceMap) model.RiskAssessment {
	pct := cm.Summary.CoveragePercentage
	level := RiskLevel(pct)

	actions := []string{}
	for _, c := range cm.Controls {
		if c.Status != model.StatusGap || c.AgentRelevance != model.RelevanceCritical {
			continue
		}
		first := DefaultAction
		if len(c.GapRecommendations) > 0 {
			first = c.GapRecommendations[0]
		}
		actions = append(actions, fmt.Sprintf("Address %s (%s): %s", c.ControlID, c.Title, first))
	}

	return model.RiskAssessment{
		OverallRisk:      level,
		Narrative:        Narrative(level, pct),
		ImmediateActions: actions,
	}
}
