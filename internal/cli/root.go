package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/config"
	"github.com/ppiankov/guardmap/internal/engine"
	"github.com/ppiankov/guardmap/internal/framework"
	"github.com/ppiankov/guardmap/internal/logging"
	"github.com/ppiankov/guardmap/internal/policy"
)

var (
	configPath string
	logLevel   string
	policyPath string

	cfg    *config.Config
	logger *slog.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default ~/.guardmap/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVarP(&policyPath, "policies", "p", "", "Path to guardrail policy YAML or JSON")
}

var rootCmd = &cobra.Command{
	Use:   "guardmap",
	Short: "Guardrail policy evaluation and compliance mapping for AI agents",
	Long: "Decides whether an agent tool call is allowed under guardrail policies,\n" +
		"and maps those policies onto compliance frameworks (SOC 2, ISO 27001,\n" +
		"GDPR, EU AI Act, NIST AI RMF) to find gaps and plan remediation.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if policyPath != "" {
			cfg.Policies = config.ExpandHome(policyPath)
		}
		logger, err = logging.New(cfg.Log, os.Stderr)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// frameworkSource returns the configured directory chained before the
// built-in catalog.
func frameworkSource() framework.Source {
	if cfg.FrameworksDir == "" {
		return framework.Builtin()
	}
	return framework.Chain(framework.Dir(cfg.FrameworksDir), framework.Builtin())
}

func newEngine(opts ...engine.Option) *engine.Engine {
	base := []engine.Option{
		engine.WithLogger(logger),
		engine.WithEffort(cfg.Effort),
	}
	return engine.New(frameworkSource(), append(base, opts...)...)
}

func loadPolicies() (*policy.Set, error) {
	set, err := policy.Load(cfg.Policies)
	if err != nil {
		return nil, err
	}
	logger.Debug("policies loaded", "path", set.Path, "count", len(set.Policies()), "hash", set.Hash)
	return set, nil
}

// frameworkIDs returns the comma-separated flag value, or the configured
// frameworks when empty.
func frameworkIDs(flag string) []string {
	if flag == "" {
		return cfg.Frameworks
	}
	var ids []string
	for _, id := range strings.Split(flag, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func validateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(allowed, "|"))
}
