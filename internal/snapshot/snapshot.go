// Package snapshot stores point-in-time compliance summaries in SQLite and
// computes coverage trends from them.
package snapshot

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/guardmap/internal/model"
)

// IDPrefix starts every snapshot id.
const IDPrefix = "cs_"

// Snapshot is an immutable copy of a compliance map summary and risk level.
type Snapshot struct {
	ID                 string          `json:"id"`
	Org                string          `json:"org"`
	Framework          string          `json:"framework"`
	TotalControls      int             `json:"total_controls"`
	Covered            int             `json:"covered"`
	Partial            int             `json:"partial"`
	Gaps               int             `json:"gaps"`
	CoveragePercentage int             `json:"coverage_percentage"`
	RiskLevel          model.RiskLevel `json:"risk_level"`
	PolicyHash         string          `json:"policy_hash,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewID returns "cs_" followed by 24 hex characters.
func NewID() string {
	return IDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// FromAnalysis builds a snapshot of cm and ga. CreatedAt is the map's
// generation time.
func FromAnalysis(org string, cm *model.ComplianceMap, ga *model.GapAnalysis, policyHash string) *Snapshot {
	s := &Snapshot{
		ID:                 NewID(),
		Org:                org,
		Framework:          cm.Framework,
		TotalControls:      cm.Summary.TotalControls,
		Covered:            cm.Summary.Covered,
		Partial:            cm.Summary.Partial,
		Gaps:               cm.Summary.Gaps,
		CoveragePercentage: cm.Summary.CoveragePercentage,
		PolicyHash:         policyHash,
		CreatedAt:          cm.GeneratedAt,
	}
	if ga != nil {
		s.RiskLevel = ga.RiskAssessment.OverallRisk
	}
	return s
}
