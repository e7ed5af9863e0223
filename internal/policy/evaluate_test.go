package policy

import (
	"testing"

	"github.com/ppiankov/guardmap/internal/model"
)

func blockDeploys() model.Policy {
	return model.Policy{
		ID:        "prod_deploy",
		AppliesTo: model.AppliesTo{Tools: []string{"deploy_*"}},
		Rule:      model.BlockRule("deploy_staging"),
	}
}

func approveDeletes() model.Policy {
	return model.Policy{
		ID:        "approve_delete",
		AppliesTo: model.AppliesTo{Tools: []string{"delete_data"}},
		Rule:      model.ApprovalRule(),
	}
}

func TestEvaluateBlockWithAllowlist(t *testing.T) {
	p := blockDeploys()

	d := Evaluate(p, model.ActionRequest{Tool: "deploy_staging"})
	if !d.Allowed || d.Reason != ReasonAllowlisted {
		t.Errorf("deploy_staging: got %+v", d)
	}

	d = Evaluate(p, model.ActionRequest{Tool: "deploy_prod"})
	if d.Allowed || d.Reason != ReasonBlocked {
		t.Errorf("deploy_prod: got %+v", d)
	}
	if d.PolicyID != "prod_deploy" {
		t.Errorf("expected policy_id=prod_deploy, got %s", d.PolicyID)
	}
}

func TestEvaluateAllowlistIsExactMatch(t *testing.T) {
	p := model.Policy{
		ID:        "p",
		AppliesTo: model.AppliesTo{Tools: []string{"*"}},
		Rule:      model.BlockRule("deploy_*"),
	}
	d := Evaluate(p, model.ActionRequest{Tool: "deploy_prod"})
	if d.Allowed {
		t.Error("allowlist entries must not be glob-matched")
	}
	d = Evaluate(p, model.ActionRequest{Tool: "deploy_*"})
	if !d.Allowed {
		t.Error("literal allowlist entry should match itself")
	}
}

func TestEvaluateApproval(t *testing.T) {
	p := approveDeletes()

	tests := []struct {
		name    string
		req     model.ActionRequest
		allowed bool
		reason  string
	}{
		{"no approval", model.ActionRequest{Tool: "delete_data"}, false, ReasonApprovalRequired},
		{"approval flag", model.ActionRequest{Tool: "delete_data", Approval: true}, true, ReasonApproved},
		{"context approval", model.ActionRequest{Tool: "delete_data", Context: model.ActionContext{Approved: true}}, true, ReasonApproved},
		{"other tool", model.ActionRequest{Tool: "read_data"}, true, ReasonNotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(p, tt.req)
			if d.Allowed != tt.allowed {
				t.Errorf("allowed: got %v, want %v", d.Allowed, tt.allowed)
			}
			if d.Reason != tt.reason {
				t.Errorf("reason: got %q, want %q", d.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluateCustomAndNoopAllow(t *testing.T) {
	policies := []model.Policy{
		{ID: "rl", AppliesTo: model.AppliesTo{Tools: []string{"*"}}, Rule: model.CustomRule(model.TagRateLimit, nil)},
		{ID: "future", AppliesTo: model.AppliesTo{Tools: []string{"*"}}, Rule: model.CustomRule("geo_fence", nil)},
		{ID: "noop", AppliesTo: model.AppliesTo{Tools: []string{"*"}}, Rule: model.RuleFromMap(map[string]any{"block": "yes"})},
	}
	for _, p := range policies {
		d := Evaluate(p, model.ActionRequest{Tool: "anything"})
		if !d.Allowed {
			t.Errorf("%s: expected allow, got %+v", p.ID, d)
		}
		if d.Reason != "" {
			t.Errorf("%s: expected empty reason, got %q", p.ID, d.Reason)
		}
	}
}

func TestEvaluateWildcardSafety(t *testing.T) {
	p := model.Policy{
		ID:        "meta",
		AppliesTo: model.AppliesTo{Tools: []string{"a.b*"}},
		Rule:      model.BlockRule(),
	}
	tests := []struct {
		tool    string
		blocked bool
	}{
		{"a.b", true},
		{"a.bxyz", true},
		{"axb", false},
		{"xa.b", false},
	}
	for _, tt := range tests {
		d := Evaluate(p, model.ActionRequest{Tool: tt.tool})
		if d.Allowed == tt.blocked {
			t.Errorf("tool %q: blocked=%v, want %v", tt.tool, !d.Allowed, tt.blocked)
		}
	}
}

func TestEvaluateNoToolsNeverApplies(t *testing.T) {
	p := model.Policy{ID: "empty", Rule: model.BlockRule()}
	d := Evaluate(p, model.ActionRequest{Tool: "deploy"})
	if !d.Allowed || d.Reason != ReasonNotApplicable {
		t.Errorf("got %+v", d)
	}
}

func TestEvaluateAllFirstDenialWins(t *testing.T) {
	blockAll := model.Policy{ID: "block_all", AppliesTo: model.AppliesTo{Tools: []string{"*"}}, Rule: model.BlockRule()}
	approve := model.Policy{ID: "approve_all", AppliesTo: model.AppliesTo{Tools: []string{"*"}}, Rule: model.ApprovalRule()}

	d := EvaluateAll([]model.Policy{approve, blockAll}, model.ActionRequest{Tool: "x"})
	if d.Allowed || d.PolicyID != "approve_all" {
		t.Errorf("expected approve_all denial first, got %+v", d)
	}

	d = EvaluateAll([]model.Policy{blockAll, approve}, model.ActionRequest{Tool: "x"})
	if d.PolicyID != "block_all" {
		t.Errorf("expected block_all denial first, got %+v", d)
	}
}

func TestEvaluateAllPasses(t *testing.T) {
	d := EvaluateAll(nil, model.ActionRequest{Tool: "x"})
	if !d.Allowed || d.Reason != ReasonAllPassed {
		t.Errorf("empty list: got %+v", d)
	}

	d = EvaluateAll([]model.Policy{blockDeploys(), approveDeletes()},
		model.ActionRequest{Tool: "delete_data", Approval: true})
	if !d.Allowed || d.Reason != ReasonAllPassed {
		t.Errorf("approved delete: got %+v", d)
	}
}
