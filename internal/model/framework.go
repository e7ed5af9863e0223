package model

// Relevance ranks how much a control matters for agent operations.
type Relevance string

const (
	RelevanceCritical Relevance = "critical"
	RelevanceHigh     Relevance = "high"
	RelevanceMedium   Relevance = "medium"
	RelevanceLow      Relevance = "low"
)

// RelevanceRank maps relevance to a comparable ordinal (lower is more urgent).
var RelevanceRank = map[Relevance]int{
	RelevanceCritical: 0,
	RelevanceHigh:     1,
	RelevanceMedium:   2,
	RelevanceLow:      3,
}

// Ordinal returns the rank of r. Unknown values rank with low.
func (r Relevance) Ordinal() int {
	if rank, ok := RelevanceRank[r]; ok {
		return rank
	}
	return RelevanceRank[RelevanceLow]
}

// Valid reports whether r is one of the four known levels.
func (r Relevance) Valid() bool {
	_, ok := RelevanceRank[r]
	return ok
}

// PolicyPattern names the rule shape a control mapping looks for.
type PolicyPattern string

const (
	PatternBlock           PolicyPattern = "block"
	PatternRequireApproval PolicyPattern = "require_approval"
	PatternAllowlist       PolicyPattern = "allowlist"
	PatternRateLimit       PolicyPattern = "rate_limit"
	PatternRiskThreshold   PolicyPattern = "risk_threshold"
	PatternDryRun          PolicyPattern = "dry_run"
	PatternAnyActivePolicy PolicyPattern = "any_active_policy"
)

// KnownPatterns lists every pattern the mapper understands.
var KnownPatterns = []PolicyPattern{
	PatternBlock,
	PatternRequireApproval,
	PatternAllowlist,
	PatternRateLimit,
	PatternRiskThreshold,
	PatternDryRun,
	PatternAnyActivePolicy,
}

// Coverage is how much of a control a matching mapping satisfies.
type Coverage string

const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
)

// PolicyMapping describes which policies satisfy a control.
type PolicyMapping struct {
	PolicyPattern PolicyPattern `json:"policy_pattern" yaml:"policy_pattern"`
	ToolPatterns  []string      `json:"tool_patterns,omitempty" yaml:"tool_patterns,omitempty"`
	Coverage      Coverage      `json:"coverage" yaml:"coverage"`
	Rationale     string        `json:"rationale" yaml:"rationale"`
}

// Control is one requirement inside a framework.
type Control struct {
	ID                 string          `json:"id" yaml:"id"`
	Title              string          `json:"title" yaml:"title"`
	Category           string          `json:"category" yaml:"category"`
	Description        string          `json:"description" yaml:"description"`
	AgentRelevance     Relevance       `json:"agent_relevance" yaml:"agent_relevance"`
	PolicyMappings     []PolicyMapping `json:"policy_mappings" yaml:"policy_mappings"`
	GapRecommendations []string        `json:"gap_recommendations" yaml:"gap_recommendations"`
}

// Framework is a versioned regulatory or audit reference document.
type Framework struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Version     string    `json:"version" yaml:"version"`
	Description string    `json:"description" yaml:"description"`
	Controls    []Control `json:"controls" yaml:"controls"`
}
