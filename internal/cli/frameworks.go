package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/framework"
	"github.com/ppiankov/guardmap/internal/report"
)

var frameworksFormat string

func init() {
	rootCmd.AddCommand(frameworksCmd)
	frameworksCmd.AddCommand(frameworksValidateCmd)
	frameworksCmd.Flags().StringVarP(&frameworksFormat, "format", "f", "text", "Output format (text|json)")
}

var frameworksCmd = &cobra.Command{
	Use:   "frameworks",
	Short: "List available compliance frameworks",
	RunE:  runFrameworks,
}

var frameworksValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a framework definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFrameworksValidate,
}

func runFrameworks(cmd *cobra.Command, args []string) error {
	if err := validateFormat(frameworksFormat, "text", "json"); err != nil {
		return err
	}
	infos, err := framework.Describe(frameworkSource())
	if err != nil {
		return err
	}

	if frameworksFormat == "json" {
		out, err := report.JSON(infos)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}

	fmt.Printf("%-14s %-14s %-10s %s\n", "ID", "NAME", "VERSION", "CONTROLS")
	for _, info := range infos {
		fmt.Printf("%-14s %-14s %-10s %d\n", info.ID, info.Name, info.Version, info.ControlCount)
	}
	return nil
}

func runFrameworksValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read framework: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	fw, err := framework.Decode(data, path, id)
	if err != nil {
		return err
	}
	if err := framework.Validate(fw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("%s: valid (%s, %d controls)\n", path, fw.ID, len(fw.Controls))
	return nil
}
