package framework

import (
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/ppiankov/guardmap/internal/model"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

type builtin struct{}

// Builtin returns the frameworks compiled into the binary.
func Builtin() Source {
	return builtin{}
}

func (builtin) Load(id string) (*model.Framework, error) {
	name := "builtin/" + id + ".yaml"
	data, err := builtinFS.ReadFile(name)
	if err != nil {
		ids, _ := builtin{}.List()
		return nil, &NotFoundError{ID: id, Available: ids}
	}
	return Decode(data, name, id)
}

func (builtin) List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(ids)
	return ids, nil
}
