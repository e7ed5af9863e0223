package model

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRuleFromMapKinds(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		kind RuleKind
		tag  string
	}{
		{"nil", nil, RuleNoop, ""},
		{"empty", map[string]any{}, RuleNoop, ""},
		{"block", map[string]any{"block": true}, RuleBlock, ""},
		{"block string ignored", map[string]any{"block": "yes"}, RuleNoop, ""},
		{"block false", map[string]any{"block": false}, RuleNoop, ""},
		{"approval", map[string]any{"require": "approval"}, RuleRequireApproval, ""},
		{"require other", map[string]any{"require": "signature"}, RuleNoop, ""},
		{"custom", map[string]any{"type": "rate_limit"}, RuleCustom, TagRateLimit},
		{"unknown custom", map[string]any{"type": "geo_fence"}, RuleCustom, "geo_fence"},
		{"custom type wrong kind", map[string]any{"type": 7}, RuleNoop, ""},
		{"block wins over require", map[string]any{"block": true, "require": "approval"}, RuleBlock, ""},
		{"block keeps tag", map[string]any{"block": true, "type": "risk_threshold"}, RuleBlock, TagRiskThreshold},
		{"require keeps tag", map[string]any{"require": "approval", "type": "dry_run"}, RuleRequireApproval, TagDryRun},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RuleFromMap(tt.in)
			if r.Kind != tt.kind {
				t.Errorf("kind: got %q, want %q", r.Kind, tt.kind)
			}
			if r.Tag != tt.tag {
				t.Errorf("tag: got %q, want %q", r.Tag, tt.tag)
			}
		})
	}
}

func TestRuleAllowlistDropsNonStrings(t *testing.T) {
	r := RuleFromMap(map[string]any{
		"block":     true,
		"allowlist": []any{"deploy_staging", 3, nil, "deploy_dev"},
	})
	if len(r.Allowlist) != 2 || r.Allowlist[0] != "deploy_staging" || r.Allowlist[1] != "deploy_dev" {
		t.Errorf("unexpected allowlist: %v", r.Allowlist)
	}
	if !r.HasAllowlist() {
		t.Error("expected HasAllowlist")
	}

	r = RuleFromMap(map[string]any{"block": true, "allowlist": "deploy_staging"})
	if r.HasAllowlist() {
		t.Error("string allowlist must be ignored")
	}
}

func TestRuleYAMLDecode(t *testing.T) {
	src := `
version: 1
project: acme
policies:
  - id: prod_deploy
    description: Block production deploys
    applies_to:
      tools: ["deploy_*"]
    rule:
      block: true
      allowlist: [deploy_staging]
  - id: limits
    applies_to:
      tools: ["*"]
    rule:
      type: rate_limit
      params:
        max_actions: 100
        window_minutes: 60
  - id: broken
    applies_to:
      tools: ["x"]
    rule: "not a mapping"
`
	var doc PolicyDocument
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(doc.Policies) != 3 {
		t.Fatalf("expected 3 policies, got %d", len(doc.Policies))
	}

	p := doc.Policies[0]
	if p.Rule.Kind != RuleBlock || len(p.Rule.Allowlist) != 1 {
		t.Errorf("policy 0 rule: %+v", p.Rule)
	}
	if p.AppliesTo.Tools[0] != "deploy_*" {
		t.Errorf("policy 0 tools: %v", p.AppliesTo.Tools)
	}

	p = doc.Policies[1]
	if p.Rule.Kind != RuleCustom || p.Rule.Tag != TagRateLimit {
		t.Errorf("policy 1 rule: %+v", p.Rule)
	}
	if p.Rule.Params["max_actions"] != 100 {
		t.Errorf("policy 1 params: %v", p.Rule.Params)
	}

	if doc.Policies[2].Rule.Kind != RuleNoop {
		t.Errorf("malformed rule should be noop, got %q", doc.Policies[2].Rule.Kind)
	}
}

func TestRuleJSONRoundTrip(t *testing.T) {
	in := Policy{
		ID:        "approve_delete",
		AppliesTo: AppliesTo{Tools: []string{"delete_data"}},
		Rule:      ApprovalRule(),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	rule := raw["rule"].(map[string]any)
	if rule["require"] != "approval" {
		t.Errorf("wire form: %v", rule)
	}

	var out Policy
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Rule.Kind != RuleRequireApproval {
		t.Errorf("kind after round trip: %q", out.Rule.Kind)
	}

	var bad Policy
	if err := json.Unmarshal([]byte(`{"id":"x","rule":[1,2]}`), &bad); err != nil {
		t.Fatalf("malformed rule must not fail decode: %v", err)
	}
	if bad.Rule.Kind != RuleNoop {
		t.Errorf("expected noop, got %q", bad.Rule.Kind)
	}
}

func TestRelevanceOrdinal(t *testing.T) {
	tests := []struct {
		r    Relevance
		want int
	}{
		{RelevanceCritical, 0},
		{RelevanceHigh, 1},
		{RelevanceMedium, 2},
		{RelevanceLow, 3},
		{"urgent", 3},
		{"", 3},
	}
	for _, tt := range tests {
		if got := tt.r.Ordinal(); got != tt.want {
			t.Errorf("Ordinal(%q) = %d, want %d", tt.r, got, tt.want)
		}
	}
	if Relevance("urgent").Valid() {
		t.Error("unknown relevance must not be valid")
	}
}

func TestActionRequestApproval(t *testing.T) {
	if (ActionRequest{Tool: "x"}).HasApproval() {
		t.Error("no approval expected")
	}
	if !(ActionRequest{Approval: true}).HasApproval() {
		t.Error("approval flag ignored")
	}
	if !(ActionRequest{Context: ActionContext{Approved: true}}).HasApproval() {
		t.Error("context approval ignored")
	}
}

func TestComplianceMapControlLookup(t *testing.T) {
	cm := &ComplianceMap{Controls: []ControlMapping{{ControlID: "A"}, {ControlID: "B"}}}
	if c := cm.Control("B"); c == nil || c.ControlID != "B" {
		t.Errorf("lookup B: %+v", c)
	}
	if cm.Control("Z") != nil {
		t.Error("expected nil for missing control")
	}
}
