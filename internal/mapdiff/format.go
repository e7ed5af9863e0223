package mapdiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders the diff result as human-readable text.
func FormatText(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compliance diff: %s (%d%% → %d%%, %s)\n", r.Framework, r.OldCoverage, r.NewCoverage, signed(r.CoverageDelta))

	if !r.HasChanges {
		b.WriteString("\nNo changes detected.\n")
		return b.String()
	}

	if len(r.StatusChanges) > 0 {
		b.WriteString("\n  Status changes:\n")
		for _, c := range r.StatusChanges {
			marker := "+"
			if c.Direction == Regressed {
				marker = "-"
			}
			fmt.Fprintf(&b, "    %s %-14s %-8s → %-8s %s\n", marker, c.ControlID, c.Old, c.New, c.Title)
		}
	}

	if len(r.AddedControls) > 0 {
		fmt.Fprintf(&b, "\n  Added controls:   %s\n", strings.Join(r.AddedControls, ", "))
	}
	if len(r.RemovedControls) > 0 {
		fmt.Fprintf(&b, "\n  Removed controls: %s\n", strings.Join(r.RemovedControls, ", "))
	}

	if len(r.SummaryPatch) > 0 {
		b.WriteString("\n  Summary:\n")
		for _, op := range r.SummaryPatch {
			fmt.Fprintf(&b, "    %-8s %-22s %v → %v\n", op.Type, op.Path, op.OldValue, op.Value)
		}
	}

	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff: %w", err)
	}
	return string(data), nil
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
