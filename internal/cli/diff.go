package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/mapdiff"
	"github.com/ppiankov/guardmap/internal/policy"
)

var (
	diffFramework string
	diffFormat    string
	diffFailOn    bool
)

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVar(&diffFramework, "framework", "soc2", "Framework id")
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text|json)")
	diffCmd.Flags().BoolVar(&diffFailOn, "fail-on-regression", false, "Exit 1 if any control regressed")
}

var diffCmd = &cobra.Command{
	Use:   "diff <old-policies> <new-policies>",
	Short: "Compare the compliance coverage of two policy files",
	Long: "Maps both policy files onto the same framework and reports coverage\n" +
		"change, per-control status changes and the summary patch.",
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	if err := validateFormat(diffFormat, "text", "json"); err != nil {
		return err
	}
	oldSet, err := policy.Load(args[0])
	if err != nil {
		return err
	}
	newSet, err := policy.Load(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	eng := newEngine()
	oldMap, err := eng.Map(ctx, oldSet, diffFramework)
	if err != nil {
		return err
	}
	newMap, err := eng.Map(ctx, newSet, diffFramework)
	if err != nil {
		return err
	}

	result, err := mapdiff.Diff(oldMap, newMap)
	if err != nil {
		return err
	}

	switch diffFormat {
	case "json":
		out, err := mapdiff.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(mapdiff.FormatText(result))
	}

	if diffFailOn && len(result.Regressions()) > 0 {
		os.Exit(1)
	}
	return nil
}
