package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/policy"
)

var testFormat string

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringVarP(&testFormat, "format", "f", "text", "Output format (text|json)")
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the test cases embedded in each policy",
	Long: "Re-evaluates every policy's tests[] fixtures against that policy alone\n" +
		"and reports pass/fail.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.",
	RunE: runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	if err := validateFormat(testFormat, "text", "json"); err != nil {
		return err
	}
	set, err := loadPolicies()
	if err != nil {
		return err
	}

	r := policy.RunTests(set.Policies())
	switch testFormat {
	case "json":
		out, err := policy.FormatJSON(r)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(policy.FormatText(r))
	}

	if !r.Success {
		os.Exit(1)
	}
	return nil
}
