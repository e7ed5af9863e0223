package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/guardmap/internal/report"
	"github.com/ppiankov/guardmap/internal/snapshot"
)

var (
	snapshotFrameworks string
	snapshotOrg        string
	snapshotSince      time.Duration
	snapshotLimit      int
	snapshotFormat     string
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotListCmd, snapshotTrendCmd)

	snapshotCmd.PersistentFlags().StringVar(&snapshotFrameworks, "frameworks", "", "Comma-separated framework ids (default from config)")
	snapshotCmd.PersistentFlags().StringVar(&snapshotOrg, "org", "", "Organization (default from config)")
	snapshotCmd.PersistentFlags().StringVarP(&snapshotFormat, "format", "f", "text", "Output format (text|json)")
	snapshotListCmd.Flags().DurationVar(&snapshotSince, "since", 0, "Only snapshots newer than this (e.g. 720h)")
	snapshotListCmd.Flags().IntVar(&snapshotLimit, "limit", 20, "Maximum snapshots to list (0 = all)")
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save and inspect compliance snapshots",
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Assess the configured frameworks and store a snapshot of each",
	RunE:  runSnapshotSave,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	RunE:  runSnapshotList,
}

var snapshotTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show coverage trend per framework",
	RunE:  runSnapshotTrend,
}

func snapshotOrgName() string {
	if snapshotOrg != "" {
		return snapshotOrg
	}
	return cfg.Org
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	if err := validateFormat(snapshotFormat, "text", "json"); err != nil {
		return err
	}
	set, err := loadPolicies()
	if err != nil {
		return err
	}
	store, err := snapshot.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	saved, err := saveSnapshots(context.Background(), newEngine(), store, set, snapshotOrgName(), frameworkIDs(snapshotFrameworks))
	if err != nil {
		return err
	}
	return printSnapshots(saved)
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	if err := validateFormat(snapshotFormat, "text", "json"); err != nil {
		return err
	}
	store, err := snapshot.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := snapshot.ListOptions{Org: snapshotOrgName(), Limit: snapshotLimit}
	if snapshotSince > 0 {
		opts.Since = time.Now().Add(-snapshotSince)
	}
	ids := frameworkIDs(snapshotFrameworks)
	if snapshotFrameworks != "" && len(ids) == 1 {
		opts.Framework = ids[0]
	}

	snaps, err := store.List(context.Background(), opts)
	if err != nil {
		return err
	}
	return printSnapshots(snaps)
}

func runSnapshotTrend(cmd *cobra.Command, args []string) error {
	if err := validateFormat(snapshotFormat, "text", "json"); err != nil {
		return err
	}
	store, err := snapshot.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(context.Background(), snapshot.ListOptions{Org: snapshotOrgName()})
	if err != nil {
		return err
	}
	trends := snapshot.Trends(snaps)
	if snapshotFrameworks != "" {
		trends = filterTrends(trends, frameworkIDs(snapshotFrameworks))
	}

	if snapshotFormat == "json" {
		out, err := report.JSON(trends)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	if len(trends) == 0 {
		fmt.Println("No snapshots.")
		return nil
	}
	fmt.Print(report.TrendsMarkdown(trends))
	return nil
}

func printSnapshots(snaps []snapshot.Snapshot) error {
	if snapshotFormat == "json" {
		out, err := report.JSON(snaps)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots.")
		return nil
	}
	fmt.Printf("%-28s %-12s %-20s %8s %-8s\n", "ID", "FRAMEWORK", "CREATED", "COVERAGE", "RISK")
	for _, s := range snaps {
		fmt.Printf("%-28s %-12s %-20s %7d%% %-8s\n",
			s.ID, s.Framework, s.CreatedAt.Format("2006-01-02 15:04:05"), s.CoveragePercentage, s.RiskLevel)
	}
	return nil
}
