package framework

import (
	"errors"
	"fmt"

	"github.com/ppiankov/guardmap/internal/model"
)

// Validate checks that fw is well formed: an id, unique control ids and
// known relevance, pattern and coverage values.
func Validate(fw *model.Framework) error {
	var errs []error

	if fw.ID == "" {
		errs = append(errs, errors.New("framework id is required"))
	}

	seen := make(map[string]bool)
	for i, c := range fw.Controls {
		if c.ID == "" {
			errs = append(errs, fmt.Errorf("control %d: id is required", i))
		} else if seen[c.ID] {
			errs = append(errs, fmt.Errorf("control %s: duplicate id", c.ID))
		}
		seen[c.ID] = true

		if !c.AgentRelevance.Valid() {
			errs = append(errs, fmt.Errorf("control %s: unknown agent_relevance %q", c.ID, c.AgentRelevance))
		}

		for j, m := range c.PolicyMappings {
			if !knownPattern(m.PolicyPattern) {
				errs = append(errs, fmt.Errorf("control %s mapping %d: unknown policy_pattern %q", c.ID, j, m.PolicyPattern))
			}
			if m.Coverage != model.CoverageFull && m.Coverage != model.CoveragePartial {
				errs = append(errs, fmt.Errorf("control %s mapping %d: unknown coverage %q", c.ID, j, m.Coverage))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid framework %q: %w", fw.ID, errors.Join(errs...))
	}
	return nil
}

func knownPattern(p model.PolicyPattern) bool {
	for _, known := range model.KnownPatterns {
		if p == known {
			return true
		}
	}
	return false
}

// Info is the listing view of a framework.
type Info struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	Description  string `json:"description"`
	ControlCount int    `json:"control_count"`
}

// Describe loads every framework in src and returns its listing view.
func Describe(src Source) ([]Info, error) {
	ids, err := src.List()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		fw, err := src.Load(id)
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{
			ID:           id,
			Name:         fw.Name,
			Version:      fw.Version,
			Description:  fw.Description,
			ControlCount: len(fw.Controls),
		})
	}
	return infos, nil
}
