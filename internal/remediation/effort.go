package remediation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// EffortBand maps recommendation counts up to MaxRecommendations to an
// effort estimate.
type EffortBand struct {
	MaxRecommendations int    `yaml:"max_recommendations" json:"max_recommendations"`
	Estimate           string `yaml:"estimate" json:"estimate"`
}

// EffortTable holds the effort heuristics. Bands are checked in order;
// counts above every band use Fallback.
type EffortTable struct {
	Bands            []EffortBand `yaml:"bands" json:"bands"`
	Fallback         string       `yaml:"fallback" json:"fallback"`
	DefaultHours     int          `yaml:"default_hours" json:"default_hours"`
	RollupMultiplier float64      `yaml:"rollup_multiplier" json:"rollup_multiplier"`
	QuickWinMaxHours int          `yaml:"quick_win_max_hours" json:"quick_win_max_hours"`
}

// DefaultEffortTable returns the built-in effort heuristics.
func DefaultEffortTable() EffortTable {
	return EffortTable{
		Bands: []EffortBand{
			{MaxRecommendations: 1, Estimate: "1-2 hours"},
			{MaxRecommendations: 2, Estimate: "2-4 hours"},
			{MaxRecommendations: 3, Estimate: "4-8 hours"},
		},
		Fallback:         "8-16 hours",
		DefaultHours:     4,
		RollupMultiplier: 1.5,
		QuickWinMaxHours: 2,
	}
}

// Estimate returns the effort string for a control with n recommendations.
func (t EffortTable) Estimate(n int) string {
	for _, b := range t.Bands {
		if n <= b.MaxRecommendations {
			return b.Estimate
		}
	}
	return t.Fallback
}

var firstInt = regexp.MustCompile(`\d+`)

// Hours extracts the first integer in an effort string, or DefaultHours.
func (t EffortTable) Hours(effort string) int {
	m := firstInt.FindString(effort)
	if m == "" {
		return t.DefaultHours
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return t.DefaultHours
	}
	return n
}

// Total renders "<sum>-<round(sum*multiplier)> hours".
func (t EffortTable) Total(sum int) string {
	upper := int(math.Round(float64(sum) * t.RollupMultiplier))
	return fmt.Sprintf("%d-%d hours", sum, upper)
}

// IsQuickWin reports whether an effort string fits the quick-win ceiling.
func (t EffortTable) IsQuickWin(effort string) bool {
	return t.Hours(effort) <= t.QuickWinMaxHours
}
