// Package engine wires the pure evaluator, mapper and analyzer to their
// collaborators: framework sources, the decision log, metrics, tracing
// and logging.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/guardmap/internal/audit"
	"github.com/ppiankov/guardmap/internal/compliance"
	"github.com/ppiankov/guardmap/internal/framework"
	"github.com/ppiankov/guardmap/internal/metrics"
	"github.com/ppiankov/guardmap/internal/model"
	"github.com/ppiankov/guardmap/internal/policy"
	"github.com/ppiankov/guardmap/internal/remediation"
)

const tracerName = "github.com/ppiankov/guardmap/internal/engine"

// Engine evaluates actions and assesses policy sets against frameworks.
// It is safe for concurrent use.
type Engine struct {
	frameworks framework.Source
	analyzer   *remediation.Analyzer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	audit      *audit.Log
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracerProvider sets the provider spans are started on.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

// WithAudit records every Check decision to l.
func WithAudit(l *audit.Log) Option {
	return func(e *Engine) { e.audit = l }
}

// WithEffort replaces the default effort table.
func WithEffort(t remediation.EffortTable) Option {
	return func(e *Engine) { e.analyzer = &remediation.Analyzer{Effort: t} }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine reading frameworks from src. A nil src uses the
// built-in catalog.
func New(src framework.Source, opts ...Option) *Engine {
	if src == nil {
		src = framework.Builtin()
	}
	e := &Engine{
		frameworks: src,
		analyzer:   remediation.NewAnalyzer(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:     otel.GetTracerProvider().Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "engine")
	return e
}

// Frameworks returns the engine's framework source.
func (e *Engine) Frameworks() framework.Source {
	return e.frameworks
}

// Check evaluates req against the set. The decision is returned even when
// the decision log cannot be written.
func (e *Engine) Check(ctx context.Context, set *policy.Set, req model.ActionRequest) (model.Decision, error) {
	start := time.Now()
	_, span := e.tracer.Start(ctx, "guardmap.check",
		trace.WithAttributes(attribute.String("guardmap.tool", req.Tool)))
	defer span.End()

	d := policy.EvaluateAll(set.Policies(), req)
	e.metrics.RecordDecision(d.Allowed, d.PolicyID)
	e.metrics.Observe("check", start)

	span.SetAttributes(
		attribute.Bool("guardmap.allowed", d.Allowed),
		attribute.String("guardmap.policy_id", d.PolicyID),
	)
	e.logger.Debug("action evaluated", "tool", req.Tool, "allowed", d.Allowed, "policy_id", d.PolicyID)

	if e.audit != nil {
		if err := e.audit.Record(audit.NewEntry(req, d, set.Hash)); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "audit write failed")
			e.logger.Error("decision log write failed", "error", err)
			return d, fmt.Errorf("record decision: %w", err)
		}
	}
	span.SetStatus(codes.Ok, "")
	return d, nil
}

// Map loads frameworkID and maps the set onto it.
func (e *Engine) Map(ctx context.Context, set *policy.Set, frameworkID string) (*model.ComplianceMap, error) {
	start := time.Now()
	_, span := e.tracer.Start(ctx, "guardmap.map",
		trace.WithAttributes(attribute.String("guardmap.framework", frameworkID)))
	defer span.End()

	fw, err := e.frameworks.Load(frameworkID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "framework load failed")
		return nil, err
	}

	cm := compliance.MapDocument(&set.Document, fw, e.now())
	e.metrics.RecordMap(fw.ID, cm.Summary.CoveragePercentage)
	e.metrics.Observe("map", start)

	span.SetAttributes(attribute.Int("guardmap.coverage", cm.Summary.CoveragePercentage))
	span.SetStatus(codes.Ok, "")
	e.logger.Info("framework mapped", "framework", fw.ID,
		"coverage", cm.Summary.CoveragePercentage, "gaps", cm.Summary.Gaps)
	return cm, nil
}

// Gaps derives the gap analysis for cm.
func (e *Engine) Gaps(ctx context.Context, cm *model.ComplianceMap) *model.GapAnalysis {
	start := time.Now()
	_, span := e.tracer.Start(ctx, "guardmap.gaps",
		trace.WithAttributes(attribute.String("guardmap.framework", cm.Framework)))
	defer span.End()

	ga := e.analyzer.Analyze(cm, e.now())
	e.metrics.RecordGaps(cm.Framework, ga.Summary.TotalRemediationItems)
	e.metrics.Observe("gaps", start)

	span.SetAttributes(attribute.String("guardmap.risk", string(ga.RiskAssessment.OverallRisk)))
	span.SetStatus(codes.Ok, "")
	return ga
}

// Assessment is the map and gap analysis for one framework. Err is set
// when the framework was not found.
type Assessment struct {
	FrameworkID string
	Map         *model.ComplianceMap
	Gaps        *model.GapAnalysis
	Err         error
}

// Assess maps the set against each framework concurrently. Results are
// in request order. A framework that is not found is reported in its
// Assessment; any other failure aborts the whole call.
func (e *Engine) Assess(ctx context.Context, set *policy.Set, frameworkIDs []string) ([]Assessment, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "guardmap.assess",
		trace.WithAttributes(attribute.StringSlice("guardmap.frameworks", frameworkIDs)))
	defer span.End()

	results := make([]Assessment, len(frameworkIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range frameworkIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].FrameworkID = id
			cm, err := e.Map(gctx, set, id)
			if err != nil {
				if errors.Is(err, framework.ErrNotFound) {
					results[i].Err = err
					e.logger.Warn("framework not found", "framework", id)
					return nil
				}
				return fmt.Errorf("assess %s: %w", id, err)
			}
			results[i].Map = cm
			results[i].Gaps = e.Gaps(gctx, cm)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assessment failed")
		return nil, err
	}
	e.metrics.Observe("assess", start)
	span.SetStatus(codes.Ok, "")
	return results, nil
}
