package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/guardmap/internal/engine"
	"github.com/ppiankov/guardmap/internal/mapdiff"
	"github.com/ppiankov/guardmap/internal/metrics"
	"github.com/ppiankov/guardmap/internal/model"
	"github.com/ppiankov/guardmap/internal/policy"
	"github.com/ppiankov/guardmap/internal/scheduler"
	"github.com/ppiankov/guardmap/internal/snapshot"
	"github.com/ppiankov/guardmap/internal/watch"
)

var (
	monitorSchedule    string
	monitorMetricsAddr string
	monitorFrameworks  string
	monitorNoWatch     bool
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVar(&monitorSchedule, "schedule", "", "Cron schedule for assessments (default from config)")
	monitorCmd.Flags().StringVar(&monitorMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	monitorCmd.Flags().StringVar(&monitorFrameworks, "frameworks", "", "Comma-separated framework ids (default from config)")
	monitorCmd.Flags().BoolVar(&monitorNoWatch, "no-watch", false, "Do not re-assess when the policy file changes")
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Continuously assess compliance and record snapshots",
	Long: "Assesses the configured frameworks on a cron schedule and whenever the\n" +
		"policy file changes, stores a snapshot per framework and logs every\n" +
		"control whose status changed since the previous run.",
	RunE: runMonitor,
}

// coverageMonitor runs one assessment cycle and remembers the last map per
// framework to report status changes.
type coverageMonitor struct {
	engine   *engine.Engine
	store    *snapshot.Store
	policies func() (*policy.Set, error)
	org      string
	ids      []string
	logger   *slog.Logger

	mu   sync.Mutex
	last map[string]*model.ComplianceMap
}

func (m *coverageMonitor) run(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, err := m.policies()
	if err != nil {
		return err
	}
	assessments, err := m.engine.Assess(ctx, set, m.ids)
	if err != nil {
		return err
	}

	for _, a := range assessments {
		if a.Map == nil {
			continue
		}
		if prev := m.last[a.FrameworkID]; prev != nil {
			m.report(prev, a.Map)
		}
		m.last[a.FrameworkID] = a.Map
	}

	_, err = storeAssessments(ctx, m.store, m.logger, set, m.org, assessments)
	return err
}

func (m *coverageMonitor) report(prev, cur *model.ComplianceMap) {
	d, err := mapdiff.Diff(prev, cur)
	if err != nil {
		m.logger.Error("compare maps", "framework", cur.Framework, "error", err)
		return
	}
	if !d.HasChanges {
		return
	}
	for _, c := range d.StatusChanges {
		level := slog.LevelInfo
		if c.Direction == mapdiff.Regressed {
			level = slog.LevelWarn
		}
		m.logger.Log(context.Background(), level, "control status changed",
			"framework", d.Framework, "control", c.ControlID,
			"from", c.Old, "to", c.New, "direction", c.Direction)
	}
	m.logger.Info("coverage changed", "framework", d.Framework,
		"old", d.OldCoverage, "new", d.NewCoverage, "delta", d.CoverageDelta)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	schedule := cfg.Monitor.Schedule
	if monitorSchedule != "" {
		schedule = monitorSchedule
	}
	if schedule == "" {
		return errors.New("monitor: no schedule configured")
	}
	addr := cfg.Monitor.MetricsAddr
	if monitorMetricsAddr != "" {
		addr = monitorMetricsAddr
	}

	store, err := snapshot.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New(nil)
	mon := &coverageMonitor{
		engine:   newEngine(engine.WithMetrics(m)),
		store:    store,
		policies: loadPolicies,
		org:      cfg.Org,
		ids:      frameworkIDs(monitorFrameworks),
		logger:   logger.With("component", "monitor"),
		last:     make(map[string]*model.ComplianceMap),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched, err := scheduler.New(schedule, mon.run, logger)
	if err != nil {
		return err
	}
	sched.RunNow(ctx)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()
	if next := sched.NextRun(); next != nil {
		logger.Info("next assessment", "at", next.Format(time.RFC3339))
	}

	g, gctx := errgroup.WithContext(ctx)

	if !monitorNoWatch {
		reloader, err := watch.NewReloader([]string{cfg.Policies}, cfg.Monitor.Debounce, logger, func() error {
			return mon.run(gctx)
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return reloader.Run(gctx) })
	}

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			logger.Info("metrics server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}
