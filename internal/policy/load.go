package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/guardmap/internal/model"
)

// DefaultVersion is the document version written by guardmap.
const DefaultVersion = 1

// Set is a loaded policy document plus provenance.
type Set struct {
	Document model.PolicyDocument
	Hash     string
	Path     string
}

// Policies returns the policies in document order.
func (s *Set) Policies() []model.Policy {
	if s == nil {
		return nil
	}
	return s.Document.Policies
}

// DefaultPath returns ~/.guardmap/guardrails.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".guardmap", "guardrails.yaml")
}

// Load reads a YAML or JSON policy document.
// Empty path falls back to ~/.guardmap/guardrails.yaml.
// Missing file returns an empty document. Invalid content returns an error.
// The hash is computed over the raw bytes on disk; with no file it is the
// SHA-256 of empty input.
func Load(path string) (*Set, error) {
	if path == "" {
		path = DefaultPath()
	}

	set := &Set{
		Document: model.PolicyDocument{Version: DefaultVersion, Policies: []model.Policy{}},
		Hash:     HashBytes(nil),
		Path:     path,
	}
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return set, nil
		}
		return nil, fmt.Errorf("failed to read policy document: %w", err)
	}

	doc, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	set.Document = *doc
	set.Hash = HashBytes(data)
	return set, nil
}

// Parse decodes a policy document. Files ending in .json are decoded as
// JSON, everything else as YAML.
func Parse(data []byte, name string) (*model.PolicyDocument, error) {
	doc := &model.PolicyDocument{Version: DefaultVersion}

	if strings.EqualFold(filepath.Ext(name), ".json") {
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("failed to parse policy document: %w", err)
		}
	} else if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to parse policy document: %w", err)
	}

	if doc.Policies == nil {
		doc.Policies = []model.Policy{}
	}
	return doc, nil
}

// Marshal renders doc as YAML.
func Marshal(doc *model.PolicyDocument) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return data, nil
}

// HashBytes returns the "sha256:<hex>" digest of data.
func HashBytes(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}
