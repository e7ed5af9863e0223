// Package framework loads compliance framework definitions from embedded
// built-ins, a directory of YAML/JSON files, or a chain of both.
package framework

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/guardmap/internal/model"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("framework not found")

// NotFoundError reports an unknown framework id with the ids that exist.
type NotFoundError struct {
	ID        string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("framework not found: %s. Available: %s", e.ID, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Source supplies framework documents by id.
type Source interface {
	Load(id string) (*model.Framework, error)
	List() ([]string, error)
}

// Decode parses a framework document. name selects JSON for .json files
// and YAML otherwise. A missing id falls back to defaultID; a missing name
// falls back to the legacy "framework" field, then to the id.
func Decode(data []byte, name, defaultID string) (*model.Framework, error) {
	var doc struct {
		model.Framework `yaml:",inline"`
		Legacy          string `yaml:"framework" json:"framework"`
	}

	var err error
	if strings.EqualFold(filepath.Ext(name), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse framework %q: %w", name, err)
	}

	fw := doc.Framework
	if fw.ID == "" {
		fw.ID = defaultID
	}
	if fw.Name == "" {
		fw.Name = doc.Legacy
	}
	if fw.Name == "" {
		fw.Name = fw.ID
	}
	if fw.Controls == nil {
		fw.Controls = []model.Control{}
	}
	return &fw, nil
}

type chain []Source

// Chain returns a source that asks each source in order. The first source
// that has the id wins; List is the sorted union.
func Chain(sources ...Source) Source {
	return chain(sources)
}

func (c chain) Load(id string) (*model.Framework, error) {
	for _, s := range c {
		fw, err := s.Load(id)
		if err == nil {
			return fw, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	available, err := c.List()
	if err != nil {
		return nil, err
	}
	return nil, &NotFoundError{ID: id, Available: available}
}

func (c chain) List() ([]string, error) {
	seen := make(map[string]bool)
	for _, s := range c {
		ids, err := s.List()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
