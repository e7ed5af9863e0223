package guardmap

import (
	"log/slog"

	"github.com/ppiankov/guardmap/internal/model"
)

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath    string
	document      *model.PolicyDocument
	frameworksDir string
	auditLogPath  string
	logger        *slog.Logger
}

// WithPolicyFile sets the path to a policy YAML or JSON file.
func WithPolicyFile(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithPolicies uses an in-memory document instead of a file.
func WithPolicies(doc PolicyDocument) Option {
	return func(c *clientConfig) { c.document = &doc }
}

// WithFrameworksDir adds a directory of framework files ahead of the
// built-in catalog.
func WithFrameworksDir(dir string) Option {
	return func(c *clientConfig) { c.frameworksDir = dir }
}

// WithAuditLog records every decision to a hash-chained log at path.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditLogPath = path }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
