package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/guardmap/internal/engine"
	"github.com/ppiankov/guardmap/internal/policy"
	"github.com/ppiankov/guardmap/internal/snapshot"
)

// saveSnapshots assesses the set against ids and stores one snapshot per
// framework found.
func saveSnapshots(ctx context.Context, eng *engine.Engine, store *snapshot.Store, set *policy.Set, org string, ids []string) ([]snapshot.Snapshot, error) {
	assessments, err := eng.Assess(ctx, set, ids)
	if err != nil {
		return nil, err
	}
	return storeAssessments(ctx, store, logger, set, org, assessments)
}

// storeAssessments saves a snapshot for every successful assessment.
// Unknown frameworks are logged and skipped.
func storeAssessments(ctx context.Context, store *snapshot.Store, log *slog.Logger, set *policy.Set, org string, assessments []engine.Assessment) ([]snapshot.Snapshot, error) {
	saved := make([]snapshot.Snapshot, 0, len(assessments))
	for _, a := range assessments {
		if a.Err != nil {
			log.Warn("skipping framework", "framework", a.FrameworkID, "error", a.Err)
			continue
		}
		snap := snapshot.FromAnalysis(org, a.Map, a.Gaps, set.Hash)
		if err := store.Save(ctx, snap); err != nil {
			return saved, fmt.Errorf("save snapshot for %s: %w", a.FrameworkID, err)
		}
		log.Info("snapshot saved", "id", snap.ID, "framework", snap.Framework,
			"coverage", snap.CoveragePercentage, "risk", snap.RiskLevel)
		saved = append(saved, *snap)
	}
	return saved, nil
}
