package compliance

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/ppiankov/guardmap/internal/model"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func policy(id string, tools []string, rule model.Rule) model.Policy {
	return model.Policy{ID: id, Description: id + " description", AppliesTo: model.AppliesTo{Tools: tools}, Rule: rule}
}

func control(id string, rel model.Relevance, mappings ...model.PolicyMapping) model.Control {
	return model.Control{
		ID:                 id,
		Title:              id + " title",
		Category:           "Access",
		AgentRelevance:     rel,
		PolicyMappings:     mappings,
		GapRecommendations: []string{"Add a policy for " + id},
	}
}

func mapping(pattern model.PolicyPattern, coverage model.Coverage, tools ...string) model.PolicyMapping {
	return model.PolicyMapping{PolicyPattern: pattern, ToolPatterns: tools, Coverage: coverage, Rationale: string(pattern)}
}

// fourControls yields 2 covered, 1 partial, 1 gap for fourControlPolicies.
func fourControls() *model.Framework {
	return &model.Framework{
		ID:      "test",
		Name:    "Test Framework",
		Version: "1.0",
		Controls: []model.Control{
			control("C1", model.RelevanceCritical, mapping(model.PatternBlock, model.CoverageFull, "deploy_*")),
			control("C2", model.RelevanceHigh, mapping(model.PatternRequireApproval, model.CoverageFull)),
			control("C3", model.RelevanceMedium, mapping(model.PatternRateLimit, model.CoveragePartial)),
			control("C4", model.RelevanceLow, mapping(model.PatternDryRun, model.CoverageFull)),
		},
	}
}

func fourControlPolicies() []model.Policy {
	return []model.Policy{
		policy("block_deploy", []string{"deploy_prod"}, model.BlockRule()),
		policy("approve_delete", []string{"delete_data"}, model.ApprovalRule()),
		policy("limits", []string{"*"}, model.CustomRule(model.TagRateLimit, nil)),
	}
}

func TestMapCoveragePercentage(t *testing.T) {
	cm := Map(fourControlPolicies(), fourControls(), fixedNow)

	want := model.Summary{TotalControls: 4, Covered: 2, Partial: 1, Gaps: 1, CoveragePercentage: 63}
	if cm.Summary != want {
		t.Errorf("summary: got %+v, want %+v", cm.Summary, want)
	}

	statuses := []model.ControlStatus{model.StatusCovered, model.StatusCovered, model.StatusPartial, model.StatusGap}
	for i, s := range statuses {
		if cm.Controls[i].Status != s {
			t.Errorf("control %s: got %s, want %s", cm.Controls[i].ControlID, cm.Controls[i].Status, s)
		}
	}

	if len(cm.Controls[0].GapRecommendations) != 0 {
		t.Error("covered control must not carry recommendations")
	}
	if len(cm.Controls[2].GapRecommendations) != 1 || len(cm.Controls[3].GapRecommendations) != 1 {
		t.Error("partial and gap controls must carry recommendations")
	}
	if cm.Framework != "test" || cm.FrameworkName != "Test Framework" || cm.FrameworkVersion != "1.0" {
		t.Errorf("identity: %+v", cm)
	}
}

func TestMapIdempotent(t *testing.T) {
	a, err := json.Marshal(Map(fourControlPolicies(), fourControls(), fixedNow))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(Map(fourControlPolicies(), fourControls(), fixedNow))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("maps differ:\n%s\n%s", a, b)
	}
}

func TestMapEmptyPolicies(t *testing.T) {
	cm := Map(nil, fourControls(), fixedNow)
	if cm.Summary.Gaps != 4 || cm.Summary.CoveragePercentage != 0 {
		t.Errorf("summary: %+v", cm.Summary)
	}
	for _, c := range cm.Controls {
		if c.Status != model.StatusGap {
			t.Errorf("%s: expected gap, got %s", c.ControlID, c.Status)
		}
		if c.MatchedPolicies == nil || len(c.MatchedPolicies) != 0 {
			t.Errorf("%s: matched_policies should be empty and non-nil", c.ControlID)
		}
	}
}

func TestMapZeroControls(t *testing.T) {
	cm := Map(fourControlPolicies(), &model.Framework{ID: "empty"}, fixedNow)
	if cm.Summary.TotalControls != 0 || cm.Summary.CoveragePercentage != 0 {
		t.Errorf("summary: %+v", cm.Summary)
	}
	if cm.Controls == nil {
		t.Error("controls must be non-nil")
	}
}

func TestSummaryConsistency(t *testing.T) {
	policySets := [][]model.Policy{
		nil,
		fourControlPolicies(),
		fourControlPolicies()[:1],
		append(fourControlPolicies(), policy("dry", []string{"*"}, model.CustomRule(model.TagDryRun, nil))),
	}
	for i, ps := range policySets {
		s := Map(ps, fourControls(), fixedNow).Summary
		if s.Covered+s.Partial+s.Gaps != s.TotalControls {
			t.Errorf("set %d: counts do not add up: %+v", i, s)
		}
		want := int(math.Round((float64(s.Covered) + float64(s.Partial)*0.5) / float64(s.TotalControls) * 100))
		if s.CoveragePercentage != want {
			t.Errorf("set %d: coverage %d, want %d", i, s.CoveragePercentage, want)
		}
	}
}

func TestMonotonicCoverage(t *testing.T) {
	c := control("C", model.RelevanceHigh,
		mapping(model.PatternRateLimit, model.CoveragePartial),
		mapping(model.PatternBlock, model.CoverageFull),
	)
	rank := func(s model.ControlStatus) int { return model.StatusRank[s] }

	base := []model.Policy{policy("limits", []string{"*"}, model.CustomRule(model.TagRateLimit, nil))}
	before := MapControl(c, base).Status
	after := MapControl(c, append(base, policy("block", []string{"x"}, model.BlockRule()))).Status

	if rank(after) < rank(before) {
		t.Errorf("status regressed: %s -> %s", before, after)
	}
	if after != model.StatusCovered {
		t.Errorf("expected covered, got %s", after)
	}

	// A later partial match never downgrades a full one.
	c2 := control("C2", model.RelevanceHigh,
		mapping(model.PatternBlock, model.CoverageFull),
		mapping(model.PatternAnyActivePolicy, model.CoveragePartial),
	)
	m := MapControl(c2, []model.Policy{policy("block", []string{"x"}, model.BlockRule())})
	if m.Status != model.StatusCovered {
		t.Errorf("expected covered, got %s", m.Status)
	}
	if len(m.MatchedPolicies) != 2 {
		t.Errorf("expected 2 matches, got %d", len(m.MatchedPolicies))
	}
}

func TestMatchedPoliciesOrder(t *testing.T) {
	c := control("C", model.RelevanceHigh,
		mapping(model.PatternAnyActivePolicy, model.CoveragePartial),
		mapping(model.PatternBlock, model.CoverageFull),
	)
	ps := []model.Policy{
		policy("a", []string{"x"}, model.BlockRule()),
		policy("b", []string{"y"}, model.ApprovalRule()),
	}
	m := MapControl(c, ps)

	want := []struct {
		id       string
		coverage model.Coverage
	}{
		{"a", model.CoveragePartial},
		{"b", model.CoveragePartial},
		{"a", model.CoverageFull},
	}
	if len(m.MatchedPolicies) != len(want) {
		t.Fatalf("matches: %+v", m.MatchedPolicies)
	}
	for i, w := range want {
		got := m.MatchedPolicies[i]
		if got.PolicyID != w.id || got.MappingCoverage != w.coverage {
			t.Errorf("match %d: got %s/%s, want %s/%s", i, got.PolicyID, got.MappingCoverage, w.id, w.coverage)
		}
	}
	if m.MatchedPolicies[0].PolicyDescription != "a description" {
		t.Errorf("description not copied: %+v", m.MatchedPolicies[0])
	}
}

func TestMatchesPattern(t *testing.T) {
	riskBlock := model.BlockRule()
	riskBlock.Tag = model.TagRiskThreshold

	tests := []struct {
		name    string
		rule    model.Rule
		pattern model.PolicyPattern
		want    bool
	}{
		{"block", model.BlockRule(), model.PatternBlock, true},
		{"approval is not block", model.ApprovalRule(), model.PatternBlock, false},
		{"approval", model.ApprovalRule(), model.PatternRequireApproval, true},
		{"allowlist present", model.BlockRule("a"), model.PatternAllowlist, true},
		{"allowlist empty", model.BlockRule(), model.PatternAllowlist, false},
		{"rate limit", model.CustomRule(model.TagRateLimit, nil), model.PatternRateLimit, true},
		{"dry run", model.CustomRule(model.TagDryRun, nil), model.PatternDryRun, true},
		{"risk threshold block as block", riskBlock, model.PatternBlock, true},
		{"risk threshold block as risk", riskBlock, model.PatternRiskThreshold, true},
		{"noop any active", model.Rule{Kind: model.RuleNoop}, model.PatternAnyActivePolicy, true},
		{"unknown pattern", model.BlockRule(), "quantum_lock", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesPattern(tt.rule, tt.pattern); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesTools(t *testing.T) {
	tests := []struct {
		name     string
		tools    []string
		patterns []string
		want     bool
	}{
		{"mapping star", []string{"anything"}, []string{"*"}, true},
		{"mapping star without policy tools", nil, []string{"*"}, true},
		{"exact", []string{"delete_data"}, []string{"delete_data"}, true},
		{"mapping glob vs policy literal", []string{"deploy_prod"}, []string{"deploy_*"}, true},
		{"policy glob vs mapping literal", []string{"notify_*"}, []string{"notify_slack"}, true},
		{"no match", []string{"read_file"}, []string{"deploy_*", "delete_*"}, false},
		{"metachars literal", []string{"a.b"}, []string{"axb"}, false},
		{"no policy tools", nil, []string{"deploy_*"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesTools(tt.tools, tt.patterns); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEmptyToolPatternsSkipCheck(t *testing.T) {
	m := model.PolicyMapping{PolicyPattern: model.PatternBlock, ToolPatterns: []string{}, Coverage: model.CoverageFull}
	if !MatchesMapping(policy("p", []string{"whatever"}, model.BlockRule()), m) {
		t.Error("empty tool_patterns should skip the tool check")
	}
}

func TestMapDocumentProject(t *testing.T) {
	doc := &model.PolicyDocument{Version: 1, Project: "acme", Policies: fourControlPolicies()}
	cm := MapDocument(doc, fourControls(), fixedNow)
	if cm.Project != "acme" {
		t.Errorf("project: %q", cm.Project)
	}
}
