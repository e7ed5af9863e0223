package policy

import (
	"github.com/ppiankov/guardmap/internal/glob"
	"github.com/ppiankov/guardmap/internal/model"
)

// Decision reasons.
const (
	ReasonNotApplicable    = "policy does not apply"
	ReasonAllowlisted      = "allowlisted"
	ReasonBlocked          = "blocked by policy"
	ReasonApproved         = "approved"
	ReasonApprovalRequired = "approval required"
	ReasonAllPassed        = "all policies passed"
)

// Evaluate decides whether req is permitted by a single policy.
//
// Evaluation order (must not be changed):
//  1. Tool applicability: exact name or wildcard entry in applies_to.tools
//  2. Block rule: exact-match allowlist exempts, otherwise deny
//  3. Approval rule: approval or context.approved grants, otherwise deny
//  4. Custom and noop rules allow
//
// Malformed rules never deny. They decode to noop upstream.
func Evaluate(p model.Policy, req model.ActionRequest) model.Decision {
	if !Applies(p, req.Tool) {
		return model.Decision{Allowed: true, PolicyID: p.ID, Reason: ReasonNotApplicable}
	}

	switch p.Rule.Kind {
	case model.RuleBlock:
		for _, allowed := range p.Rule.Allowlist {
			if allowed == req.Tool {
				return model.Decision{Allowed: true, PolicyID: p.ID, Reason: ReasonAllowlisted}
			}
		}
		return model.Decision{Allowed: false, PolicyID: p.ID, Reason: ReasonBlocked}

	case model.RuleRequireApproval:
		if req.HasApproval() {
			return model.Decision{Allowed: true, PolicyID: p.ID, Reason: ReasonApproved}
		}
		return model.Decision{Allowed: false, PolicyID: p.ID, Reason: ReasonApprovalRequired}

	default:
		return model.Decision{Allowed: true, PolicyID: p.ID}
	}
}

// EvaluateAll evaluates policies in the given order and returns the first
// denial. Callers control precedence through list order.
func EvaluateAll(policies []model.Policy, req model.ActionRequest) model.Decision {
	for _, p := range policies {
		if d := Evaluate(p, req); !d.Allowed {
			return d
		}
	}
	return model.Decision{Allowed: true, Reason: ReasonAllPassed}
}

// Applies reports whether tool is governed by p.
func Applies(p model.Policy, tool string) bool {
	for _, pattern := range p.AppliesTo.Tools {
		if glob.Match(pattern, tool) {
			return true
		}
	}
	return false
}
