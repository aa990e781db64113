// Package merges reads user-confirmed entity merges. Confirmed groups take
// precedence over heuristic grouping when a ranking is built.
package merges

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/iwvelando/finance-dashboard/pkg/entity"
	"gopkg.in/yaml.v3"
)

// Store supplies confirmed merge groups.
type Store interface {
	Load() ([]entity.ConfirmedGroup, error)
}

type document struct {
	Groups []entity.ConfirmedGroup `yaml:"groups"`
}

// FileStore reads confirmed merges from a YAML file of the form
//
//	groups:
//	  - name: Al Noor Group
//	    members: [Al Noor Trading, Alnoor Trading LLC]
//
// A missing file yields no groups.
type FileStore struct {
	Path string
}

// NewFileStore returns a store reading path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads and validates the merge file.
func (s *FileStore) Load() ([]entity.ConfirmedGroup, error) {
	if s.Path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read merges file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a merge document and drops blank member names. A group left
// without members is an error.
func Parse(data []byte) ([]entity.ConfirmedGroup, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse merges file: %w", err)
	}

	groups := make([]entity.ConfirmedGroup, 0, len(doc.Groups))
	for i, g := range doc.Groups {
		var members []string
		for _, m := range g.Members {
			if m = strings.TrimSpace(m); m != "" {
				members = append(members, m)
			}
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("merge group %d (%q) has no members", i, g.Name)
		}
		groups = append(groups, entity.ConfirmedGroup{Name: strings.TrimSpace(g.Name), Members: members})
	}
	return groups, nil
}

// MemoryStore serves a fixed list of groups.
type MemoryStore struct {
	Groups []entity.ConfirmedGroup
}

// Load returns a copy of the stored groups.
func (s MemoryStore) Load() ([]entity.ConfirmedGroup, error) {
	return append([]entity.ConfirmedGroup(nil), s.Groups...), nil
}
