// Package compliance maps guardrail policies onto framework controls and
// computes per-control coverage.
package compliance

import (
	"math"
	"time"

	"github.com/ppiankov/guardmap/internal/glob"
	"github.com/ppiankov/guardmap/internal/model"
)

// Map tests every policy against every control mapping of fw.
// now is the generation timestamp; pass a fixed value for reproducible output.
func Map(policies []model.Policy, fw *model.Framework, now time.Time) *model.ComplianceMap {
	cm := &model.ComplianceMap{
		Framework:        fw.ID,
		FrameworkName:    fw.Name,
		FrameworkVersion: fw.Version,
		GeneratedAt:      now.UTC(),
		Summary:          model.Summary{TotalControls: len(fw.Controls)},
		Controls:         make([]model.ControlMapping, 0, len(fw.Controls)),
	}

	for _, control := range fw.Controls {
		m := MapControl(control, policies)
		cm.Controls = append(cm.Controls, m)

		switch m.Status {
		case model.StatusCovered:
			cm.Summary.Covered++
		case model.StatusPartial:
			cm.Summary.Partial++
		default:
			cm.Summary.Gaps++
		}
	}

	cm.Summary.CoveragePercentage = CoveragePercentage(cm.Summary)
	return cm
}

// MapDocument maps a whole policy document and records its project.
func MapDocument(doc *model.PolicyDocument, fw *model.Framework, now time.Time) *model.ComplianceMap {
	cm := Map(doc.Policies, fw, now)
	cm.Project = doc.Project
	return cm
}

// CoveragePercentage is round(((covered + partial*0.5) / total) * 100),
// or 0 for a framework without controls.
func CoveragePercentage(s model.Summary) int {
	if s.TotalControls == 0 {
		return 0
	}
	ratio := (float64(s.Covered) + float64(s.Partial)*0.5) / float64(s.TotalControls)
	return int(math.Round(ratio * 100))
}

// MapControl computes the coverage verdict for one control. Matches are
// collected in mapping-then-policy order.
func MapControl(control model.Control, policies []model.Policy) model.ControlMapping {
	matched := []model.MatchedPolicy{}
	best := model.StatusGap

	for _, mapping := range control.PolicyMappings {
		for _, p := range policies {
			if !MatchesMapping(p, mapping) {
				continue
			}
			matched = append(matched, model.MatchedPolicy{
				PolicyID:          p.ID,
				PolicyDescription: p.Description,
				MappingCoverage:   mapping.Coverage,
				Rationale:         mapping.Rationale,
			})

			switch mapping.Coverage {
			case model.CoverageFull:
				best = model.StatusCovered
			case model.CoveragePartial:
				if best == model.StatusGap {
					best = model.StatusPartial
				}
			}
		}
	}

	status := model.StatusPartial
	switch {
	case len(matched) == 0:
		status = model.StatusGap
	case best == model.StatusCovered:
		status = model.StatusCovered
	}

	recs := []string{}
	if status != model.StatusCovered && control.GapRecommendations != nil {
		recs = append(recs, control.GapRecommendations...)
	}

	return model.ControlMapping{
		ControlID:          control.ID,
		Title:              control.Title,
		Category:           control.Category,
		Description:        control.Description,
		AgentRelevance:     control.AgentRelevance,
		Status:             status,
		MatchedPolicies:    matched,
		GapRecommendations: recs,
	}
}

// MatchesMapping reports whether p satisfies mapping: the rule shape must
// match, and when the mapping names tool patterns, the tools must too.
func MatchesMapping(p model.Policy, mapping model.PolicyMapping) bool {
	if !MatchesPattern(p.Rule, mapping.PolicyPattern) {
		return false
	}
	if len(mapping.ToolPatterns) == 0 {
		return true
	}
	return MatchesTools(p.AppliesTo.Tools, mapping.ToolPatterns)
}

// MatchesPattern reports whether rule has the shape named by pattern.
// Unknown patterns never match.
func MatchesPattern(rule model.Rule, pattern model.PolicyPattern) bool {
	switch pattern {
	case model.PatternBlock:
		return rule.Kind == model.RuleBlock
	case model.PatternRequireApproval:
		return rule.Kind == model.RuleRequireApproval
	case model.PatternAllowlist:
		return rule.HasAllowlist()
	case model.PatternRateLimit:
		return rule.Tag == model.TagRateLimit
	case model.PatternRiskThreshold:
		return rule.Tag == model.TagRiskThreshold
	case model.PatternDryRun:
		return rule.Tag == model.TagDryRun
	case model.PatternAnyActivePolicy:
		return true
	default:
		return false
	}
}

// MatchesTools reports whether any policy tool and mapping pattern meet.
// Matching is bidirectional: a mapping glob may match a policy literal and
// a policy glob may match a mapping literal.
func MatchesTools(policyTools, mappingPatterns []string) bool {
	for _, mp := range mappingPatterns {
		if mp == glob.Wildcard {
			return true
		}
	}

	for _, mp := range mappingPatterns {
		for _, tool := range policyTools {
			if mp == tool {
				return true
			}
			if glob.HasWildcard(mp) && glob.Compile(mp).MatchString(tool) {
				return true
			}
			if glob.HasWildcard(tool) && glob.Compile(tool).MatchString(mp) {
				return true
			}
		}
	}
	return false
}
