package mcp

import (
	"context"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/guardmap/internal/framework"
	"github.com/ppiankov/guardmap/internal/model"
	"github.com/ppiankov/guardmap/internal/policy"
)

// --- Input/Output types ---

// CheckInput defines parameters for the guardmap_check tool.
type CheckInput struct {
	Tool     string         `json:"tool" jsonschema:"name of the tool the agent wants to call"`
	Args     map[string]any `json:"args,omitempty" jsonschema:"tool arguments"`
	Approved bool           `json:"approved,omitempty" jsonschema:"whether a human already approved this action"`
}

// CheckOutput contains the policy decision.
type CheckOutput struct {
	Decision string `json:"decision"`
	Allowed  bool   `json:"allowed"`
	PolicyID string `json:"policy_id,omitempty"`
	Reason   string `json:"reason"`
}

// TestInput is empty; guardmap_test takes no parameters.
type TestInput struct{}

// FrameworkInput selects a framework by id.
type FrameworkInput struct {
	Framework string `json:"framework" jsonschema:"framework id, e.g. soc2"`
}

// MapOutput is a compliance map with a string timestamp.
type MapOutput struct {
	Framework        string                 `json:"framework"`
	FrameworkName    string                 `json:"framework_name"`
	FrameworkVersion string                 `json:"framework_version"`
	Project          string                 `json:"project,omitempty"`
	GeneratedAt      string                 `json:"generated_at"`
	Summary          model.Summary          `json:"summary"`
	Controls         []model.ControlMapping `json:"controls"`
	Error            string                 `json:"error,omitempty"`
}

// GapsOutput is a gap analysis with a string timestamp.
type GapsOutput struct {
	Framework       string                  `json:"framework"`
	AnalysisDate    string                  `json:"analysis_date"`
	Summary         model.GapSummary        `json:"summary"`
	RemediationPlan []model.RemediationItem `json:"remediation_plan"`
	QuickWins       []model.RemediationItem `json:"quick_wins"`
	RiskAssessment  model.RiskAssessment    `json:"risk_assessment"`
	Error           string                  `json:"error,omitempty"`
}

// FrameworksInput is empty; guardmap_frameworks takes no parameters.
type FrameworksInput struct{}

// FrameworksOutput lists the available frameworks.
type FrameworksOutput struct {
	Frameworks []framework.Info `json:"frameworks"`
}

// --- Handlers ---

func errorResult(err error) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		IsError: true,
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
	}
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	set, err := s.loadPolicies()
	if err != nil {
		return nil, CheckOutput{}, err
	}

	d, err := s.engine.Check(ctx, set, model.ActionRequest{
		Tool:     input.Tool,
		Args:     input.Args,
		Approval: input.Approved,
	})
	if err != nil {
		return nil, CheckOutput{}, err
	}

	decision := "allow"
	if !d.Allowed {
		decision = "deny"
	}
	return nil, CheckOutput{
		Decision: decision,
		Allowed:  d.Allowed,
		PolicyID: d.PolicyID,
		Reason:   d.Reason,
	}, nil
}

func (s *Server) handleTest(ctx context.Context, req *mcpsdk.CallToolRequest, _ TestInput) (*mcpsdk.CallToolResult, policy.TestReport, error) {
	set, err := s.loadPolicies()
	if err != nil {
		return nil, policy.TestReport{}, err
	}
	report := policy.RunTests(set.Policies())
	if !report.Success {
		return &mcpsdk.CallToolResult{IsError: true}, *report, nil
	}
	return nil, *report, nil
}

func (s *Server) handleMap(ctx context.Context, req *mcpsdk.CallToolRequest, input FrameworkInput) (*mcpsdk.CallToolResult, MapOutput, error) {
	set, err := s.loadPolicies()
	if err != nil {
		return nil, MapOutput{}, err
	}
	cm, err := s.engine.Map(ctx, set, input.Framework)
	if err != nil {
		return errorResult(err), MapOutput{Framework: input.Framework, Error: err.Error()}, nil
	}
	return nil, toMapOutput(cm), nil
}

func (s *Server) handleGaps(ctx context.Context, req *mcpsdk.CallToolRequest, input FrameworkInput) (*mcpsdk.CallToolResult, GapsOutput, error) {
	set, err := s.loadPolicies()
	if err != nil {
		return nil, GapsOutput{}, err
	}
	cm, err := s.engine.Map(ctx, set, input.Framework)
	if err != nil {
		return errorResult(err), GapsOutput{Framework: input.Framework, Error: err.Error()}, nil
	}
	return nil, toGapsOutput(s.engine.Gaps(ctx, cm)), nil
}

func (s *Server) handleFrameworks(ctx context.Context, req *mcpsdk.CallToolRequest, _ FrameworksInput) (*mcpsdk.CallToolResult, FrameworksOutput, error) {
	infos, err := framework.Describe(s.engine.Frameworks())
	if err != nil {
		return nil, FrameworksOutput{}, err
	}
	return nil, FrameworksOutput{Frameworks: infos}, nil
}

func toMapOutput(cm *model.ComplianceMap) MapOutput {
	return MapOutput{
		Framework:        cm.Framework,
		FrameworkName:    cm.FrameworkName,
		FrameworkVersion: cm.FrameworkVersion,
		Project:          cm.Project,
		GeneratedAt:      cm.GeneratedAt.UTC().Format(time.RFC3339),
		Summary:          cm.Summary,
		Controls:         cm.Controls,
	}
}

func toGapsOutput(ga *model.GapAnalysis) GapsOutput {
	return GapsOutput{
		Framework:       ga.Framework,
		AnalysisDate:    ga.AnalysisDate.UTC().Format(time.RFC3339),
		Summary:         ga.Summary,
		RemediationPlan: ga.RemediationPlan,
		QuickWins:       ga.QuickWins,
		RiskAssessment:  ga.RiskAssessment,
	}
}
