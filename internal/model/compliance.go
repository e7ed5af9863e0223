package model

import "time"

// ControlStatus classifies how well a control is covered.
type ControlStatus string

const (
	StatusCovered ControlStatus = "covered"
	StatusPartial ControlStatus = "partial"
	StatusGap     ControlStatus = "gap"
)

// StatusRank orders statuses from worst to best.
var StatusRank = map[ControlStatus]int{
	StatusGap:     0,
	StatusPartial: 1,
	StatusCovered: 2,
}

// MatchedPolicy records one policy satisfying one control mapping.
type MatchedPolicy struct {
	PolicyID          string   `json:"policy_id" yaml:"policy_id"`
	PolicyDescription string   `json:"policy_description" yaml:"policy_description"`
	MappingCoverage   Coverage `json:"mapping_coverage" yaml:"mapping_coverage"`
	Rationale         string   `json:"rationale" yaml:"rationale"`
}

// ControlMapping is the coverage verdict for one control.
type ControlMapping struct {
	ControlID          string          `json:"control_id" yaml:"control_id"`
	Title              string          `json:"title" yaml:"title"`
	Category           string          `json:"category" yaml:"category"`
	Description        string          `json:"description" yaml:"description"`
	AgentRelevance     Relevance       `json:"agent_relevance" yaml:"agent_relevance"`
	Status             ControlStatus   `json:"status" yaml:"status"`
	MatchedPolicies    []MatchedPolicy `json:"matched_policies" yaml:"matched_policies"`
	GapRecommendations []string        `json:"gap_recommendations" yaml:"gap_recommendations"`
}

// Summary aggregates control statuses across a framework.
type Summary struct {
	TotalControls      int `json:"total_controls" yaml:"total_controls"`
	Covered            int `json:"covered" yaml:"covered"`
	Partial            int `json:"partial" yaml:"partial"`
	Gaps               int `json:"gaps" yaml:"gaps"`
	CoveragePercentage int `json:"coverage_percentage" yaml:"coverage_percentage"`
}

// ComplianceMap is the result of testing a policy set against a framework.
type ComplianceMap struct {
	Framework        string           `json:"framework" yaml:"framework"`
	FrameworkName    string           `json:"framework_name" yaml:"framework_name"`
	FrameworkVersion string           `json:"framework_version" yaml:"framework_version"`
	Project          string           `json:"project,omitempty" yaml:"project,omitempty"`
	GeneratedAt      time.Time        `json:"generated_at" yaml:"generated_at"`
	Summary          Summary          `json:"summary" yaml:"summary"`
	Controls         []ControlMapping `json:"controls" yaml:"controls"`
}

// Control returns the mapping for id, or nil.
func (m *ComplianceMap) Control(id string) *ControlMapping {
	for i := range m.Controls {
		if m.Controls[i].ControlID == id {
			return &m.Controls[i]
		}
	}
	return nil
}
