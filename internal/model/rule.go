package model

import (
	"encoding/json"
)

// RuleKind is the discriminator of a policy rule.
type RuleKind string

const (
	RuleNoop            RuleKind = "noop"
	RuleBlock           RuleKind = "block"
	RuleRequireApproval RuleKind = "require_approval"
	RuleCustom          RuleKind = "custom"
)

// Custom rule tags recognized by the compliance mapper. Any other tag is
// carried through untouched.
const (
	TagRateLimit     = "rate_limit"
	TagRiskThreshold = "risk_threshold"
	TagDryRun        = "dry_run"
)

// Rule is the tagged rule of a policy. Kind decides runtime enforcement;
// Tag names a custom rule type and may accompany a block or
// require_approval kind (a risk threshold that blocks is both).
type Rule struct {
	Kind      RuleKind
	Allowlist []string
	Tag       string
	Params    map[string]any
}

// BlockRule returns a block rule with an optional exact-match allowlist.
func BlockRule(allowlist ...string) Rule {
	return Rule{Kind: RuleBlock, Allowlist: allowlist}
}

// ApprovalRule returns a rule that requires approval.
func ApprovalRule() Rule {
	return Rule{Kind: RuleRequireApproval}
}

// CustomRule returns a tagged rule with opaque parameters.
func CustomRule(tag string, params map[string]any) Rule {
	return Rule{Kind: RuleCustom, Tag: tag, Params: params}
}

// RuleFromMap builds a Rule from its loosely typed wire form with
// defensive coercion. Wrong-typed fields are ignored, so a malformed rule
// degrades to noop instead of failing the document.
//
// Precedence: block > require_approval > custom > noop.
func RuleFromMap(m map[string]any) Rule {
	r := Rule{Kind: RuleNoop}
	if m == nil {
		return r
	}

	if list, ok := m["allowlist"].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok {
				r.Allowlist = append(r.Allowlist, s)
			}
		}
	}

	if tag, ok := m["type"].(string); ok {
		r.Tag = tag
	}

	if params, ok := m["params"].(map[string]any); ok {
		r.Params = params
	}

	switch {
	case m["block"] == true:
		r.Kind = RuleBlock
	case m["require"] == "approval":
		r.Kind = RuleRequireApproval
	case r.Tag != "":
		r.Kind = RuleCustom
	}

	return r
}

// ToMap converts the rule to its wire form.
func (r Rule) ToMap() map[string]any {
	m := map[string]any{}
	switch r.Kind {
	case RuleBlock:
		m["block"] = true
	case RuleRequireApproval:
		m["require"] = "approval"
	}
	if len(r.Allowlist) > 0 {
		m["allowlist"] = r.Allowlist
	}
	if r.Tag != "" {
		m["type"] = r.Tag
	}
	if len(r.Params) > 0 {
		m["params"] = r.Params
	}
	return m
}

// HasAllowlist reports whether the rule carries a non-empty allowlist.
func (r Rule) HasAllowlist() bool {
	return len(r.Allowlist) > 0
}

func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = nil
	}
	*r = RuleFromMap(raw)
	return nil
}

func (r Rule) MarshalYAML() (any, error) {
	return r.ToMap(), nil
}

// UnmarshalYAML never fails: a rule that is not a mapping becomes noop.
func (r *Rule) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		raw = nil
	}
	*r = RuleFromMap(raw)
	return nil
}
