package snapshot

import "sort"

// TrendWindow is how many snapshots per framework a trend keeps.
const TrendWindow = 10

// Direction of coverage between the two newest snapshots.
type Direction string

const (
	Improving Direction = "Improving"
	Declining Direction = "Declining"
	Stable    Direction = "Stable"
)

// Trend is the recent history of one framework.
type Trend struct {
	Framework string     `json:"framework"`
	Snapshots []Snapshot `json:"snapshots"`
	Direction Direction  `json:"direction,omitempty"`
	Delta     int        `json:"delta"`
}

// HasDirection reports whether at least two snapshots exist.
func (t Trend) HasDirection() bool {
	return len(t.Snapshots) >= 2
}

// Trends groups snapshots per framework (newest first, at most
// TrendWindow each) and compares the two newest. Frameworks are ordered by
// first appearance in snaps, which List returns newest first.
func Trends(snaps []Snapshot) []Trend {
	index := make(map[string]int)
	trends := []Trend{}

	sorted := make([]Snapshot, len(snaps))
	copy(sorted, snaps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	for _, s := range sorted {
		i, ok := index[s.Framework]
		if !ok {
			i = len(trends)
			index[s.Framework] = i
			trends = append(trends, Trend{Framework: s.Framework, Snapshots: []Snapshot{}})
		}
		if len(trends[i].Snapshots) < TrendWindow {
			trends[i].Snapshots = append(trends[i].Snapshots, s)
		}
	}

	for i := range trends {
		t := &trends[i]
		if !t.HasDirection() {
			continue
		}
		t.Delta = t.Snapshots[0].CoveragePercentage - t.Snapshots[1].CoveragePercentage
		switch {
		case t.Delta > 0:
			t.Direction = Improving
		case t.Delta < 0:
			t.Direction = Declining
		default:
			t.Direction = Stable
		}
	}
	return trends
}
