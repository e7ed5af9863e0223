package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/report"
	"github.com/ppiankov/guardmap/internal/snapshot"
)

var (
	reportFrameworks  string
	reportOrg         string
	reportWindow      int
	reportRemediation bool
	reportEvidence    bool
	reportTrends      bool
	reportOutput      string
	reportFormat      string
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportFrameworks, "frameworks", "", "Comma-separated framework ids (default from config)")
	reportCmd.Flags().StringVar(&reportOrg, "org", "", "Organization name (default from config)")
	reportCmd.Flags().IntVar(&reportWindow, "window", 30, "Evidence window in days")
	reportCmd.Flags().BoolVar(&reportRemediation, "remediation", true, "Include the remediation priority matrix")
	reportCmd.Flags().BoolVar(&reportEvidence, "evidence", false, "Include decision-log evidence")
	reportCmd.Flags().BoolVar(&reportTrends, "trends", false, "Include coverage trends from saved snapshots")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to a file instead of stdout")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "markdown", "Output format (markdown|json)")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a multi-framework compliance report",
	Long: "Assesses the policy set against several frameworks and renders one\n" +
		"export with per-framework coverage, an optional remediation matrix,\n" +
		"decision-log evidence and snapshot trends. Unknown frameworks are\n" +
		"noted and skipped.",
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	if err := validateFormat(reportFormat, "markdown", "json"); err != nil {
		return err
	}
	set, err := loadPolicies()
	if err != nil {
		return err
	}

	ctx := context.Background()
	now := time.Now().UTC()
	ids := frameworkIDs(reportFrameworks)

	assessments, err := newEngine().Assess(ctx, set, ids)
	if err != nil {
		return err
	}

	org := reportOrg
	if org == "" {
		org = cfg.Org
	}
	export := &report.Export{
		Org:                org,
		GeneratedAt:        now,
		WindowDays:         reportWindow,
		IncludeRemediation: reportRemediation,
	}
	for _, a := range assessments {
		export.Sections = append(export.Sections, report.Section{
			FrameworkID: a.FrameworkID,
			Map:         a.Map,
			Gaps:        a.Gaps,
			Err:         a.Err,
		})
	}

	if reportEvidence {
		entries, err := audit.ReadEntries(cfg.AuditLog)
		if err != nil {
			return err
		}
		ev := audit.Summarize(entries, reportWindow, now)
		export.Evidence = &ev
	}

	if reportTrends {
		store, err := snapshot.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		snaps, err := store.List(ctx, snapshot.ListOptions{Org: org})
		if err != nil {
			return err
		}
		export.Trends = filterTrends(snapshot.Trends(snaps), ids)
	}

	var out string
	if reportFormat == "json" {
		out, err = report.JSON(export)
		if err != nil {
			return err
		}
		out += "\n"
	} else {
		out = report.Markdown(export)
	}

	if reportOutput == "" {
		fmt.Print(out)
		return nil
	}
	if err := os.WriteFile(reportOutput, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Report written to %s\n", reportOutput)
	return nil
}

func filterTrends(trends []snapshot.Trend, ids []string) []snapshot.Trend {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []snapshot.Trend
	for _, t := range trends {
		if want[t.Framework] {
			out = append(out, t)
		}
	}
	return out
}
