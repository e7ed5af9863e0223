package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/report"
)

var (
	mapFramework string
	mapFormat    string
)

func init() {
	rootCmd.AddCommand(mapCmd)
	mapCmd.Flags().StringVar(&mapFramework, "framework", "soc2", "Framework id")
	mapCmd.Flags().StringVarP(&mapFormat, "format", "f", "text", "Output format (text|json|markdown)")
}

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map guardrail policies onto a compliance framework",
	Long: "Tests every framework control against the policy set and reports\n" +
		"each control as covered, partial or gap, with overall coverage.",
	RunE: runMap,
}

func runMap(cmd *cobra.Command, args []string) error {
	if err := validateFormat(mapFormat, "text", "json", "markdown"); err != nil {
		return err
	}
	set, err := loadPolicies()
	if err != nil {
		return err
	}
	cm, err := newEngine().Map(context.Background(), set, mapFramework)
	if err != nil {
		return err
	}

	switch mapFormat {
	case "json":
		out, err := report.JSON(cm)
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "markdown":
		fmt.Print(report.MapMarkdown(cm))
	default:
		fmt.Print(report.MapText(cm))
	}
	return nil
}
