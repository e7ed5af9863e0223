// Package guardmap provides in-process guardrail enforcement and compliance
// mapping for Go agent frameworks. It wraps tool functions, evaluates the
// guardrail policy set before each call, and maps the same policies onto
// compliance frameworks to report coverage and gaps.
//
// Usage:
//
//	gm, err := guardmap.New(guardmap.WithPolicyFile("guardrails.yaml"))
//	wrapped := gm.Wrap(myTool)
//	result, err := wrapped(ctx, guardmap.ActionRequest{Tool: "deploy"})
//
//	cm, err := gm.Map(ctx, "soc2")
//
// The SDK links directly against internal packages. External users import
// github.com/ppiankov/guardmap/sdk/go/guardmap.
package guardmap
