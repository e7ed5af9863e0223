// Package mapdiff compares two compliance maps of the same framework.
package mapdiff

import (
	"fmt"
	"sort"

	"github.com/wI2L/jsondiff"

	"github.com/ppiankov/guardmap/internal/model"
)

// Direction of a control status change.
type Direction string

const (
	Improved  Direction = "improved"
	Regressed Direction = "regressed"
)

// StatusChange is one control whose status moved between maps.
type StatusChange struct {
	ControlID string              `json:"control_id"`
	Title     string              `json:"title"`
	Old       model.ControlStatus `json:"old"`
	New       model.ControlStatus `json:"new"`
	Direction Direction           `json:"direction"`
}

// Result holds the comparison of two compliance maps.
type Result struct {
	Framework       string         `json:"framework"`
	OldCoverage     int            `json:"old_coverage"`
	NewCoverage     int            `json:"new_coverage"`
	CoverageDelta   int            `json:"coverage_delta"`
	StatusChanges   []StatusChange `json:"status_changes"`
	AddedControls   []string       `json:"added_controls"`
	RemovedControls []string       `json:"removed_controls"`
	SummaryPatch    jsondiff.Patch `json:"summary_patch,omitempty"`
	HasChanges      bool           `json:"has_changes"`
}

// Diff compares old and new. Controls are matched by id; status ranks
// gap < partial < covered decide the direction of each change.
func Diff(old, new *model.ComplianceMap) (*Result, error) {
	if old.Framework != new.Framework {
		return nil, fmt.Errorf("cannot diff %s against %s", old.Framework, new.Framework)
	}

	r := &Result{
		Framework:       new.Framework,
		OldCoverage:     old.Summary.CoveragePercentage,
		NewCoverage:     new.Summary.CoveragePercentage,
		CoverageDelta:   new.Summary.CoveragePercentage - old.Summary.CoveragePercentage,
		StatusChanges:   []StatusChange{},
		AddedControls:   []string{},
		RemovedControls: []string{},
	}

	oldByID := make(map[string]model.ControlMapping, len(old.Controls))
	for _, c := range old.Controls {
		oldByID[c.ControlID] = c
	}
	newIDs := make(map[string]bool, len(new.Controls))

	for _, c := range new.Controls {
		newIDs[c.ControlID] = true
		prev, ok := oldByID[c.ControlID]
		if !ok {
			r.AddedControls = append(r.AddedControls, c.ControlID)
			continue
		}
		if prev.Status == c.Status {
			continue
		}
		dir := Improved
		if model.StatusRank[c.Status] < model.StatusRank[prev.Status] {
			dir = Regressed
		}
		r.StatusChanges = append(r.StatusChanges, StatusChange{
			ControlID: c.ControlID,
			Title:     c.Title,
			Old:       prev.Status,
			New:       c.Status,
			Direction: dir,
		})
	}

	for _, c := range old.Controls {
		if !newIDs[c.ControlID] {
			r.RemovedControls = append(r.RemovedControls, c.ControlID)
		}
	}
	sort.Strings(r.AddedControls)
	sort.Strings(r.RemovedControls)

	patch, err := jsondiff.Compare(old.Summary, new.Summary)
	if err != nil {
		return nil, fmt.Errorf("diff summaries: %w", err)
	}
	r.SummaryPatch = patch

	r.HasChanges = len(r.StatusChanges) > 0 || len(r.AddedControls) > 0 ||
		len(r.RemovedControls) > 0 || len(patch) > 0
	return r, nil
}

// Regressions returns only the status changes that moved toward gap.
func (r *Result) Regressions() []StatusChange {
	var out []StatusChange
	for _, c := range r.StatusChanges {
		if c.Direction == Regressed {
			out = append(out, c)
		}
	}
	return out
}
