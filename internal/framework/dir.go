package framework

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/guardmap/internal/model"
)

var extensions = []string{".yaml", ".yml", ".json"}

type dir string

// Dir returns a source reading <id>.yaml, <id>.yml or <id>.json from path.
// A missing directory lists no frameworks.
func Dir(path string) Source {
	return dir(path)
}

func (d dir) Load(id string) (*model.Framework, error) {
	if id != "" && !strings.ContainsAny(id, `/\`) && id != "." && id != ".." {
		for _, ext := range extensions {
			p := filepath.Join(string(d), id+ext)
			data, err := os.ReadFile(p)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("read framework %s: %w", p, err)
			}
			return Decode(data, p, id)
		}
	}

	ids, err := d.List()
	if err != nil {
		return nil, err
	}
	return nil, &NotFoundError{ID: id, Available: ids}
}

func (d dir) List() ([]string, error) {
	entries, err := os.ReadDir(string(d))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list frameworks in %s: %w", string(d), err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, known := range extensions {
			if ext == known {
				seen[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = true
			}
		}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
