package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/report"
)

var (
	auditWindow int
	auditFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd, auditEvidenceCmd)
	auditEvidenceCmd.Flags().IntVar(&auditWindow, "window", 30, "Window in days")
	auditEvidenceCmd.Flags().StringVarP(&auditFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the decision log",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify [path]",
	Short: "Verify the decision log hash chain",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditVerify,
}

var auditEvidenceCmd = &cobra.Command{
	Use:   "evidence [path]",
	Short: "Summarize enforcement decisions in a time window",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuditEvidence,
}

func auditPath(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return cfg.AuditLog
}

func runAuditVerify(cmd *cobra.Command, args []string) error {
	path := auditPath(args)
	result := audit.Verify(path)
	if result.Valid {
		fmt.Printf("OK: %d entries, hash chain intact\n", result.Lines)
		return nil
	}

	fmt.Fprintf(os.Stderr, "FAIL at line %d: %s\n", result.ErrorLine, result.Error)
	fmt.Fprintf(os.Stderr, "  %d entries verified before failure\n", result.Lines)
	os.Exit(1)
	return nil
}

func runAuditEvidence(cmd *cobra.Command, args []string) error {
	if err := validateFormat(auditFormat, "text", "json"); err != nil {
		return err
	}
	entries, err := audit.ReadEntries(auditPath(args))
	if err != nil {
		return err
	}
	ev := audit.Summarize(entries, auditWindow, time.Now().UTC())

	if auditFormat == "json" {
		out, err := report.JSON(ev)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	fmt.Print(report.EvidenceMarkdown(&ev))
	return nil
}
