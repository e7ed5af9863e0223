package model

import "time"

// RiskLevel is the overall risk rating of a gap analysis.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// GapSummary extends the map summary with remediation totals.
type GapSummary struct {
	Summary               `yaml:",inline"`
	CriticalGaps          int    `json:"critical_gaps" yaml:"critical_gaps"`
	HighGaps              int    `json:"high_gaps" yaml:"high_gaps"`
	TotalRemediationItems int    `json:"total_remediation_items" yaml:"total_remediation_items"`
	EstimatedTotalEffort  string `json:"estimated_total_effort" yaml:"estimated_total_effort"`
}

// RemediationItem is one prioritized entry of a remediation plan.
type RemediationItem struct {
	Priority        int           `json:"priority" yaml:"priority"`
	ControlID       string        `json:"control_id" yaml:"control_id"`
	Title           string        `json:"title" yaml:"title"`
	Status          ControlStatus `json:"status" yaml:"status"`
	AgentRelevance  Relevance     `json:"agent_relevance" yaml:"agent_relevance"`
	Recommendations []string      `json:"recommendations" yaml:"recommendations"`
	EstimatedEffort string        `json:"estimated_effort" yaml:"estimated_effort"`
}

// RiskAssessment is the banded risk rating with its narrative.
type RiskAssessment struct {
	OverallRisk      RiskLevel `json:"overall_risk" yaml:"overall_risk"`
	Narrative        string    `json:"narrative" yaml:"narrative"`
	ImmediateActions []string  `json:"immediate_actions" yaml:"immediate_actions"`
}

// GapAnalysis is a remediation plan and risk rating derived from a ComplianceMap.
type GapAnalysis struct {
	Framework       string            `json:"framework" yaml:"framework"`
	AnalysisDate    time.Time         `json:"analysis_date" yaml:"analysis_date"`
	Summary         GapSummary        `json:"summary" yaml:"summary"`
	RemediationPlan []RemediationItem `json:"remediation_plan" yaml:"remediation_plan"`
	QuickWins       []RemediationItem `json:"quick_wins" yaml:"quick_wins"`
	RiskAssessment  RiskAssessment    `json:"risk_assessment" yaml:"risk_assessment"`
}
