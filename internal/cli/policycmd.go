package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/guardmap/internal/policy"
)

var (
	importProject string
	importOutput  string
)

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyImportCmd)
	policyImportCmd.Flags().StringVar(&importProject, "project", "", "Project name written to the document")
	policyImportCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Write the document to a file instead of stdout")
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Manage guardrail policy documents",
}

var policyImportCmd = &cobra.Command{
	Use:   "import <rows.json|rows.yaml>",
	Short: "Convert stored policy rows into a guardrail policy document",
	Long: "Reads a list of stored policy rows {id, name, policy_type, rules, active}\n" +
		"and writes the equivalent policy document. Inactive rows are dropped;\n" +
		"block and approval policies without tests get a placeholder test.",
	Args: cobra.ExactArgs(1),
	RunE: runPolicyImport,
}

func runPolicyImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read rows: %w", err)
	}

	var rows []policy.StoredPolicy
	if strings.EqualFold(filepath.Ext(args[0]), ".json") {
		err = json.Unmarshal(data, &rows)
	} else {
		err = yaml.Unmarshal(data, &rows)
	}
	if err != nil {
		return fmt.Errorf("failed to parse rows: %w", err)
	}

	doc := policy.ConvertAll(rows, importProject)
	out, err := policy.Marshal(doc)
	if err != nil {
		return err
	}

	if importOutput == "" {
		fmt.Print(string(out))
		return nil
	}
	if err := os.WriteFile(importOutput, out, 0o644); err != nil {
		return fmt.Errorf("failed to write policies: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Imported %d policies to %s\n", len(doc.Policies), importOutput)
	return nil
}
