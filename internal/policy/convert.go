package policy

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/guardmap/internal/model"
)

// Stored policy types understood by the converter. Other types become
// custom rules tagged with the type name.
const (
	TypeRequireApproval = "require_approval"
	TypeBlockActionType = "block_action_type"
	TypeRiskThreshold   = "risk_threshold"
	TypeRateLimit       = "rate_limit"
	TypeWebhookCheck    = "webhook_check"
)

// StoredPolicy is a policy row as kept by a dashboard or database.
// Rules may be a JSON string or an already decoded object; Active may be
// a bool, a number or absent (absent means active).
type StoredPolicy struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	PolicyType string `json:"policy_type" yaml:"policy_type"`
	Rules      any    `json:"rules" yaml:"rules"`
	Active     any    `json:"active,omitempty" yaml:"active,omitempty"`
}

// IsActive interprets the loosely typed active flag.
func (s StoredPolicy) IsActive() bool {
	switch v := s.Active.(type) {
	case nil:
		return true
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return v != "" && v != "0"
		}
		return b
	default:
		return true
	}
}

// ruleParams decodes the rules field. Unparseable rules yield an empty map.
func (s StoredPolicy) ruleParams() map[string]any {
	switch v := s.Rules.(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err == nil && m != nil {
			return m
		}
	case []byte:
		var m map[string]any
		if err := json.Unmarshal(v, &m); err == nil && m != nil {
			return m
		}
	}
	return map[string]any{}
}

// Convert turns a stored policy row into a guardrail policy.
func Convert(s StoredPolicy) model.Policy {
	params := s.ruleParams()

	p := model.Policy{
		ID:          s.ID,
		Description: s.Name,
		AppliesTo:   model.AppliesTo{Tools: stringList(params["action_types"])},
	}
	if p.ID == "" {
		p.ID = Slug(s.Name)
	}

	switch s.PolicyType {
	case TypeRequireApproval:
		p.Rule = model.ApprovalRule()
	case TypeBlockActionType:
		p.Rule = model.BlockRule()
	case TypeRiskThreshold:
		p.AppliesTo.Tools = []string{"*"}
		p.Rule = model.CustomRule(model.TagRiskThreshold, pick(params, "threshold"))
		if params["action"] == "block" {
			p.Rule.Kind = model.RuleBlock
		}
	case TypeRateLimit:
		p.Rule = model.CustomRule(model.TagRateLimit, pick(params, "max_actions", "window_minutes"))
	case TypeWebhookCheck:
		p.Rule = model.CustomRule(TypeWebhookCheck, pick(params, "url", "timeout_ms"))
	default:
		raw := map[string]any{}
		for k, v := range params {
			if k != "tests" && k != "action_types" {
				raw[k] = v
			}
		}
		p.Rule = model.CustomRule(s.PolicyType, raw)
		if s.PolicyType == "" {
			p.Rule = model.Rule{Kind: model.RuleNoop}
		}
	}

	if p.AppliesTo.Tools == nil {
		p.AppliesTo.Tools = []string{}
	}

	if tests, ok := decodeTests(params["tests"]); ok {
		p.Tests = tests
	} else {
		p.Tests = placeholderTests(p)
	}
	return p
}

// ConvertAll converts active rows into a policy document for project.
func ConvertAll(rows []StoredPolicy, project string) *model.PolicyDocument {
	doc := &model.PolicyDocument{
		Version:  DefaultVersion,
		Project:  project,
		Policies: []model.Policy{},
	}
	for _, row := range rows {
		if !row.IsActive() {
			continue
		}
		doc.Policies = append(doc.Policies, Convert(row))
	}
	return doc
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name and collapses non-alphanumerics to underscores.
func Slug(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "_")
	return strings.Trim(s, "_")
}

func placeholderTests(p model.Policy) []model.PolicyTest {
	if len(p.AppliesTo.Tools) == 0 || p.AppliesTo.Tools[0] == "*" {
		return nil
	}
	tool := p.AppliesTo.Tools[0]

	switch p.Rule.Kind {
	case model.RuleBlock:
		return []model.PolicyTest{{
			Name:   "blocks_action_type",
			Input:  model.ActionRequest{Tool: tool},
			Expect: model.TestExpectation{Allowed: false},
		}}
	case model.RuleRequireApproval:
		return []model.PolicyTest{
			{
				Name:   "requires_approval",
				Input:  model.ActionRequest{Tool: tool},
				Expect: model.TestExpectation{Allowed: false},
			},
			{
				Name:   "allows_when_approved",
				Input:  model.ActionRequest{Tool: tool, Approval: true},
				Expect: model.TestExpectation{Allowed: true},
			},
		}
	}
	return nil
}

// decodeTests re-encodes the loosely typed tests value through JSON.
func decodeTests(v any) ([]model.PolicyTest, bool) {
	if v == nil {
		return nil, false
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var tests []model.PolicyTest
	if err := json.Unmarshal(data, &tests); err != nil {
		return nil, false
	}
	return tests, true
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func pick(params map[string]any, keys ...string) map[string]any {
	out := map[string]any{}
	for _, k := range keys {
		if v, ok := params[k]; ok {
			out[k] = v
		}
	}
	return out
}
