package guardmap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testDocument() PolicyDocument {
	return PolicyDocument{
		Version: 1,
		Project: "demo",
		Policies: []Policy{
			{
				ID:        "no-shell",
				AppliesTo: AppliesTo{Tools: []string{"shell_*"}},
				Rule:      BlockRule(),
			},
			{
				ID:        "approve-deploys",
				AppliesTo: AppliesTo{Tools: []string{"deploy", "http_delete"}},
				Rule:      ApprovalRule(),
			},
		},
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(WithPolicies(testDocument()))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func requireBlocked(t *testing.T, err error) *BlockedError {
	t.Helper()
	if err == nil {
		t.Fatal("expected action to be blocked, got nil error")
	}
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected *BlockedError, got %T: %v", err, err)
	}
	return blocked
}

func TestNewMissingPolicyFile(t *testing.T) {
	c, err := New(WithPolicyFile(filepath.Join(t.TempDir(), "none.yaml")))
	if err != nil {
		t.Fatalf("missing policy file should be an empty set: %v", err)
	}
	if len(c.Policies()) != 0 {
		t.Errorf("policies = %d, want 0", len(c.Policies()))
	}
}

func TestNewBadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("policies: [unclosed"), 0o600)
	if _, err := New(WithPolicyFile(path)); err == nil {
		t.Fatal("expected error for invalid policy file")
	}
}

func TestCheck(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	d, err := c.Check(ctx, ActionRequest{Tool: "shell_exec"})
	if err != nil {
		t.Fatal(err)
	}
	if d.Allowed || d.PolicyID != "no-shell" {
		t.Errorf("decision = %+v", d)
	}

	d, _ = c.Check(ctx, ActionRequest{Tool: "read_file"})
	if !d.Allowed {
		t.Errorf("read_file should be allowed: %+v", d)
	}
}

func TestWrapBlocks(t *testing.T) {
	c := newTestClient(t)
	called := false
	wrapped := c.Wrap(func(ctx context.Context, req ActionRequest) (any, error) {
		called = true
		return "ran", nil
	})

	_, err := wrapped(context.Background(), ActionRequest{Tool: "shell_exec"})
	blocked := requireBlocked(t, err)
	if blocked.PolicyID != "no-shell" {
		t.Errorf("policy = %q", blocked.PolicyID)
	}
	if called {
		t.Error("wrapped function must not run when blocked")
	}
}

func TestWrapApproval(t *testing.T) {
	c := newTestClient(t)
	wrapped := c.Wrap(func(ctx context.Context, req ActionRequest) (any, error) {
		return "deployed", nil
	})
	ctx := context.Background()

	_, err := wrapped(ctx, ActionRequest{Tool: "deploy"})
	requireBlocked(t, err)

	out, err := wrapped(ctx, ActionRequest{Tool: "deploy", Context: ActionContext{Approved: true}})
	if err != nil {
		t.Fatalf("approved deploy should run: %v", err)
	}
	if out != "deployed" {
		t.Errorf("out = %v", out)
	}
}

func TestReloadPicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardrails.yaml")
	os.WriteFile(path, []byte("version: 1\npolicies: []\n"), 0o600)

	c, err := New(WithPolicyFile(path))
	if err != nil {
		t.Fatal(err)
	}
	before := c.PolicyHash()

	os.WriteFile(path, []byte(`version: 1
policies:
  - id: no-shell
    applies_to: {tools: [shell_exec]}
    rule: {block: true}
`), 0o600)
	if err := c.Reload(); err != nil {
		t.Fatal(err)
	}
	if c.PolicyHash() == before {
		t.Error("hash should change after reload")
	}
	d, _ := c.Check(context.Background(), ActionRequest{Tool: "shell_exec"})
	if d.Allowed {
		t.Error("reloaded policy should deny shell_exec")
	}
}

func TestAuditLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	c, err := New(WithPolicies(testDocument()), WithAuditLog(path))
	if err != nil {
		t.Fatal(err)
	}
	c.Check(context.Background(), ActionRequest{Tool: "shell_exec"})
	c.Close()

	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("decision log should have an entry: %v", err)
	}
}

func TestMapAndGaps(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	cm, err := c.Map(ctx, "soc2")
	if err != nil {
		t.Fatal(err)
	}
	if cm.Project != "demo" || cm.Summary.TotalControls == 0 {
		t.Errorf("map = %+v", cm.Summary)
	}

	ga, err := c.Gaps(ctx, "soc2")
	if err != nil {
		t.Fatal(err)
	}
	if ga.RiskAssessment.OverallRisk == "" {
		t.Error("missing risk rating")
	}

	if _, err := c.Gaps(ctx, "hipaa"); !IsNotFound(err) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestPackageFunctions(t *testing.T) {
	ids, err := ListFrameworks()
	if err != nil || len(ids) != 5 {
		t.Fatalf("ListFrameworks = %v, %v", ids, err)
	}
	fw, err := LoadFramework("gdpr")
	if err != nil {
		t.Fatal(err)
	}
	doc := testDocument()
	cm := MapPolicies(doc.Policies, fw)
	if cm.Framework != "gdpr" {
		t.Errorf("framework = %q", cm.Framework)
	}
	ga := AnalyzeGaps(cm)
	if ga.Summary.TotalControls != len(fw.Controls) {
		t.Errorf("total controls = %d, want %d", ga.Summary.TotalControls, len(fw.Controls))
	}

	if d := EvaluateAll(doc.Policies, ActionRequest{Tool: "shell_ls"}); d.Allowed {
		t.Error("shell_ls should be denied")
	}
	if d := Evaluate(doc.Policies[1], ActionRequest{Tool: "shell_ls"}); !d.Allowed {
		t.Error("approval policy does not apply to shell_ls")
	}
}

func TestMiddleware(t *testing.T) {
	c := newTestClient(t)
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		method string
		header map[string]string
		want   int
	}{
		{"get allowed", http.MethodGet, nil, http.StatusOK},
		{"delete needs approval", http.MethodDelete, nil, http.StatusForbidden},
		{"approved delete", http.MethodDelete, map[string]string{"X-Guardmap-Approved": "true"}, http.StatusOK},
		{"tool header", http.MethodGet, map[string]string{ToolHeader: "shell_exec"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/resource", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
