package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/report"
)

var (
	gapsFramework string
	gapsFormat    string
)

func init() {
	rootCmd.AddCommand(gapsCmd)
	gapsCmd.Flags().StringVar(&gapsFramework, "framework", "soc2", "Framework id")
	gapsCmd.Flags().StringVarP(&gapsFormat, "format", "f", "text", "Output format (text|json|markdown)")
}

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Analyze compliance gaps and plan remediation",
	Long: "Maps the policy set onto a framework, then prioritizes the uncovered\n" +
		"controls into an effort-estimated remediation plan with quick wins\n" +
		"and an overall risk rating.",
	RunE: runGaps,
}

func runGaps(cmd *cobra.Command, args []string) error {
	if err := validateFormat(gapsFormat, "text", "json", "markdown"); err != nil {
		return err
	}
	set, err := loadPolicies()
	if err != nil {
		return err
	}

	ctx := context.Background()
	eng := newEngine()
	cm, err := eng.Map(ctx, set, gapsFramework)
	if err != nil {
		return err
	}
	ga := eng.Gaps(ctx, cm)

	switch gapsFormat {
	case "json":
		out, err := report.JSON(ga)
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "markdown":
		fmt.Print(report.GapsMarkdown(ga))
	default:
		fmt.Print(report.GapsText(ga))
	}
	return nil
}
