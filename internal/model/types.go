package model

// Decision is the outcome of evaluating one action against one or more policies.
type Decision struct {
	Allowed  bool   `json:"allowed" yaml:"allowed"`
	PolicyID string `json:"policy_id,omitempty" yaml:"policy_id,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ActionContext carries caller-asserted context for an action.
type ActionContext struct {
	Approved bool `json:"approved,omitempty" yaml:"approved,omitempty"`
}

// ActionRequest is one proposed agent tool call.
type ActionRequest struct {
	Tool     string         `json:"tool" yaml:"tool"`
	Args     map[string]any `json:"args,omitempty" yaml:"args,omitempty"`
	Approval bool           `json:"approval,omitempty" yaml:"approval,omitempty"`
	Context  ActionContext  `json:"context,omitempty" yaml:"context,omitempty"`
}

// HasApproval reports whether either approval signal is set.
func (r ActionRequest) HasApproval() bool {
	return r.Approval || r.Context.Approved
}

// AppliesTo lists the tool patterns a policy governs.
type AppliesTo struct {
	Tools []string `json:"tools" yaml:"tools"`
}

// TestExpectation is the expected outcome of a policy self-test.
type TestExpectation struct {
	Allowed bool `json:"allowed" yaml:"allowed"`
}

// PolicyTest is a self-check fixture shipped with a policy.
type PolicyTest struct {
	Name   string          `json:"name" yaml:"name"`
	Input  ActionRequest   `json:"input" yaml:"input"`
	Expect TestExpectation `json:"expect" yaml:"expect"`
}

// Policy is an organization-authored guardrail rule.
type Policy struct {
	ID          string       `json:"id" yaml:"id"`
	Description string       `json:"description" yaml:"description"`
	AppliesTo   AppliesTo    `json:"applies_to" yaml:"applies_to"`
	Rule        Rule         `json:"rule" yaml:"rule"`
	Tests       []PolicyTest `json:"tests,omitempty" yaml:"tests,omitempty"`
}

// PolicyDocument is the on-disk form of an organization's active policies.
type PolicyDocument struct {
	Version  int      `json:"version" yaml:"version"`
	Project  string   `json:"project" yaml:"project"`
	Policies []Policy `json:"policies" yaml:"policies"`
}
