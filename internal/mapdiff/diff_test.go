package mapdiff

import (
	"strings"
	"testing"

	"github.com/ppiankov/guardmap/internal/model"
)

func cmap(pct int, controls ...model.ControlMapping) *model.ComplianceMap {
	s := model.Summary{TotalControls: len(controls), CoveragePercentage: pct}
	for _, c := range controls {
		switch c.Status {
		case model.StatusCovered:
			s.Covered++
		case model.StatusPartial:
			s.Partial++
		default:
			s.Gaps++
		}
	}
	return &model.ComplianceMap{Framework: "soc2", Summary: s, Controls: controls}
}

func cm(id string, status model.ControlStatus) model.ControlMapping {
	return model.ControlMapping{ControlID: id, Title: id + " title", Status: status}
}

func TestDiffNoChanges(t *testing.T) {
	a := cmap(50, cm("A", model.StatusCovered), cm("B", model.StatusGap))
	b := cmap(50, cm("A", model.StatusCovered), cm("B", model.StatusGap))

	r, err := Diff(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if r.HasChanges {
		t.Errorf("expected no changes: %+v", r)
	}
	if !strings.Contains(FormatText(r), "No changes detected.") {
		t.Error("text should report no changes")
	}
}

func TestDiffDirections(t *testing.T) {
	old := cmap(50,
		cm("A", model.StatusGap),
		cm("B", model.StatusCovered),
		cm("C", model.StatusPartial),
		cm("D", model.StatusGap),
	)
	new := cmap(63,
		cm("A", model.StatusCovered),
		cm("B", model.StatusPartial),
		cm("C", model.StatusPartial),
		cm("E", model.StatusGap),
	)

	r, err := Diff(old, new)
	if err != nil {
		t.Fatal(err)
	}
	if r.CoverageDelta != 13 {
		t.Errorf("delta: %d", r.CoverageDelta)
	}
	if len(r.StatusChanges) != 2 {
		t.Fatalf("status changes: %+v", r.StatusChanges)
	}
	if c := r.StatusChanges[0]; c.ControlID != "A" || c.Direction != Improved {
		t.Errorf("A: %+v", c)
	}
	if c := r.StatusChanges[1]; c.ControlID != "B" || c.Direction != Regressed {
		t.Errorf("B: %+v", c)
	}
	if len(r.Regressions()) != 1 {
		t.Errorf("regressions: %+v", r.Regressions())
	}
	if len(r.AddedControls) != 1 || r.AddedControls[0] != "E" {
		t.Errorf("added: %v", r.AddedControls)
	}
	if len(r.RemovedControls) != 1 || r.RemovedControls[0] != "D" {
		t.Errorf("removed: %v", r.RemovedControls)
	}
	if !r.HasChanges {
		t.Error("expected changes")
	}

	paths := map[string]bool{}
	for _, op := range r.SummaryPatch {
		paths[op.Path] = true
	}
	if !paths["/coverage_percentage"] {
		t.Errorf("summary patch missing coverage: %+v", r.SummaryPatch)
	}

	text := FormatText(r)
	for _, want := range []string{"+13", "- B", "+ A", "Added controls:   E", "Removed controls: D"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q:\n%s", want, text)
		}
	}
}

func TestDiffFrameworkMismatch(t *testing.T) {
	a := cmap(0)
	b := cmap(0)
	b.Framework = "gdpr"
	if _, err := Diff(a, b); err == nil {
		t.Error("expected error for different frameworks")
	}
}
