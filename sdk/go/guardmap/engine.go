package guardmap

import (
	"errors"
	"time"

	"github.com/ppiankov/guardmap/internal/compliance"
	"github.com/ppiankov/guardmap/internal/framework"
	"github.com/ppiankov/guardmap/internal/policy"
	"github.com/ppiankov/guardmap/internal/remediation"
)

// Evaluate decides req against a single policy.
func Evaluate(p Policy, req ActionRequest) Decision {
	return policy.Evaluate(p, req)
}

// EvaluateAll decides req against every policy; the first denial wins.
func EvaluateAll(policies []Policy, req ActionRequest) Decision {
	return policy.EvaluateAll(policies, req)
}

// MapPolicies maps policies onto fw.
func MapPolicies(policies []Policy, fw *Framework) *ComplianceMap {
	return compliance.Map(policies, fw, time.Now().UTC())
}

// AnalyzeGaps builds the remediation plan and risk rating for cm.
func AnalyzeGaps(cm *ComplianceMap) *GapAnalysis {
	return remediation.Analyze(cm, time.Now().UTC())
}

// LoadFramework returns a built-in framework by id.
func LoadFramework(id string) (*Framework, error) {
	return framework.Builtin().Load(id)
}

// ListFrameworks returns the built-in framework ids, sorted.
func ListFrameworks() ([]string, error) {
	return framework.Builtin().List()
}

// IsNotFound reports whether err is an unknown framework error.
func IsNotFound(err error) bool {
	return errors.Is(err, framework.ErrNotFound)
}
