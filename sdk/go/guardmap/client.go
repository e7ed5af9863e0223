package guardmap

import (
	"context"
	"fmt"
	"sync"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/engine"
	"github.com/ppiankov/guardmap/internal/framework"
	"github.com/ppiankov/guardmap/internal/policy"
)

// Client holds a policy set and the engine that enforces and maps it.
// Safe for concurrent tool calls.
type Client struct {
	cfg    clientConfig
	engine *engine.Engine
	audit  *audit.Log

	mu  sync.RWMutex
	set *policy.Set
}

// New creates a Client with the given options. Without WithPolicyFile or
// WithPolicies the default ~/.guardmap/guardrails.yaml is used.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o(&cfg)
	}

	c := &Client{cfg: cfg}
	if err := c.Reload(); err != nil {
		return nil, err
	}

	src := framework.Builtin()
	if cfg.frameworksDir != "" {
		src = framework.Chain(framework.Dir(cfg.frameworksDir), framework.Builtin())
	}

	var engOpts []engine.Option
	if cfg.logger != nil {
		engOpts = append(engOpts, engine.WithLogger(cfg.logger))
	}
	if cfg.auditLogPath != "" {
		log, err := audit.Open(cfg.auditLogPath)
		if err != nil {
			return nil, fmt.Errorf("guardmap: failed to open audit log: %w", err)
		}
		c.audit = log
		engOpts = append(engOpts, engine.WithAudit(log))
	}
	c.engine = engine.New(src, engOpts...)
	return c, nil
}

// Reload re-reads the policy file. In-memory documents are re-hashed.
func (c *Client) Reload() error {
	var set *policy.Set
	if c.cfg.document != nil {
		data, err := policy.Marshal(c.cfg.document)
		if err != nil {
			return fmt.Errorf("guardmap: %w", err)
		}
		set = &policy.Set{Document: *c.cfg.document, Hash: policy.HashBytes(data)}
	} else {
		var err error
		set, err = policy.Load(c.cfg.policyPath)
		if err != nil {
			return fmt.Errorf("guardmap: failed to load policies: %w", err)
		}
	}

	c.mu.Lock()
	c.set = set
	c.mu.Unlock()
	return nil
}

func (c *Client) policies() *policy.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.set
}

// Policies returns the loaded policies in document order.
func (c *Client) Policies() []Policy {
	return c.policies().Policies()
}

// PolicyHash returns the sha256 hash of the loaded policy document.
func (c *Client) PolicyHash() string {
	return c.policies().Hash
}

// Check evaluates req without executing anything.
func (c *Client) Check(ctx context.Context, req ActionRequest) (Decision, error) {
	return c.engine.Check(ctx, c.policies(), req)
}

// Map maps the policy set onto a framework.
func (c *Client) Map(ctx context.Context, frameworkID string) (*ComplianceMap, error) {
	return c.engine.Map(ctx, c.policies(), frameworkID)
}

// Gaps maps the policy set onto a framework and analyzes the gaps.
func (c *Client) Gaps(ctx context.Context, frameworkID string) (*GapAnalysis, error) {
	cm, err := c.Map(ctx, frameworkID)
	if err != nil {
		return nil, err
	}
	return c.engine.Gaps(ctx, cm), nil
}

// Close closes the audit log if configured.
func (c *Client) Close() error {
	if c.audit != nil {
		return c.audit.Close()
	}
	return nil
}
