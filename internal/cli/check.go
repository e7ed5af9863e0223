package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/engine"
	"github.com/ppiankov/guardmap/internal/model"
	"github.com/ppiankov/guardmap/internal/report"
)

var (
	checkTool     string
	checkArgs     string
	checkApproved bool
	checkNoAudit  bool
	checkFmt      string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkTool, "tool", "", "Tool name the agent wants to call (required)")
	checkCmd.Flags().StringVar(&checkArgs, "args", "", "Tool arguments as a JSON object")
	checkCmd.Flags().BoolVar(&checkApproved, "approved", false, "Mark the action as approved by a human")
	checkCmd.Flags().BoolVar(&checkNoAudit, "no-audit", false, "Do not append the decision to the decision log")
	checkCmd.Flags().StringVarP(&checkFmt, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("tool")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate one agent action against the guardrail policies",
	Long: "Evaluates a proposed tool call against every policy in document order.\n" +
		"The first denial wins. Nothing is executed.\n\n" +
		"Exit code 0 if allowed, 1 if denied.",
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := validateFormat(checkFmt, "text", "json"); err != nil {
		return err
	}

	req := model.ActionRequest{Tool: checkTool, Approval: checkApproved}
	if checkArgs != "" {
		if err := json.Unmarshal([]byte(checkArgs), &req.Args); err != nil {
			return fmt.Errorf("invalid --args JSON: %w", err)
		}
	}

	set, err := loadPolicies()
	if err != nil {
		return err
	}

	var opts []engine.Option
	if !checkNoAudit && cfg.AuditLog != "" {
		log, err := audit.Open(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer log.Close()
		opts = append(opts, engine.WithAudit(log))
	}

	d, err := newEngine(opts...).Check(context.Background(), set, req)
	if err != nil {
		return err
	}

	switch checkFmt {
	case "json":
		out, err := report.JSON(d)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		verdict := "ALLOW"
		if !d.Allowed {
			verdict = "DENY"
		}
		fmt.Printf("%s  %s\n", verdict, checkTool)
		if d.PolicyID != "" {
			fmt.Printf("  policy: %s\n", d.PolicyID)
		}
		fmt.Printf("  reason: %s\n", d.Reason)
	}

	if !d.Allowed {
		os.Exit(1)
	}
	return nil
}
