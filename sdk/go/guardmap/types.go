package guardmap

import (
	"fmt"

	"github.com/ppiankov/guardmap/internal/model"
)

type (
	ActionRequest   = model.ActionRequest
	ActionContext   = model.ActionContext
	Decision        = model.Decision
	Policy          = model.Policy
	PolicyDocument  = model.PolicyDocument
	PolicyTest      = model.PolicyTest
	AppliesTo       = model.AppliesTo
	Rule            = model.Rule
	RuleKind        = model.RuleKind
	Framework       = model.Framework
	Control         = model.Control
	ComplianceMap   = model.ComplianceMap
	ControlMapping  = model.ControlMapping
	GapAnalysis     = model.GapAnalysis
	RemediationItem = model.RemediationItem
	RiskLevel       = model.RiskLevel
)

// Rule constructors.
var (
	BlockRule    = model.BlockRule
	ApprovalRule = model.ApprovalRule
	CustomRule   = model.CustomRule
)

// BlockedError is returned by a wrapped tool when policy denies the call.
type BlockedError struct {
	Request  ActionRequest
	PolicyID string
	Reason   string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("guardmap blocked %s (%s): %s", e.Request.Tool, e.PolicyID, e.Reason)
}
