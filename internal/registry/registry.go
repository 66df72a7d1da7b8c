// Package registry keeps parsed water right records in memory and serves
// lookups, filtered searches and aggregations over them.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wisdom-oss/nlwkn-go/internal/waterright"
)

// reportsFileSuffix marks the parser result files the registry loads.
const reportsFileSuffix = ".reports.json"

// Registry is an in-memory collection of parsed water rights.
type Registry struct {
	rights  map[waterright.WaterRightNo]*waterright.WaterRight
	sources []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{rights: make(map[waterright.WaterRightNo]*waterright.WaterRight)}
}

// Load reads every *.reports.json file under dir into one registry. Files
// are read in lexical order, so with dated file names a right present in
// several parse runs keeps its newest record.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading records directory: %w", err)
	}

	registry := New()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), reportsFileSuffix) {
			continue
		}
		if err := registry.LoadFile(filepath.Join(dir, entry.Name())); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadFile merges one parser result file into the registry. Rights already
// present are replaced.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading records file: %w", err)
	}

	var rights []*waterright.WaterRight
	if err := json.Unmarshal(data, &rights); err != nil {
		return fmt.Errorf("parsing records file %q: %w", path, err)
	}

	r.Add(rights...)
	r.sources = append(r.sources, path)
	return nil
}

// Add merges rights into the registry, replacing records with the same
// number.
func (r *Registry) Add(rights ...*waterright.WaterRight) {
	for _, right := range rights {
		r.rights[right.No] = right
	}
}

// Len returns the number of distinct water rights.
func (r *Registry) Len() int {
	return len(r.rights)
}

// Sources lists the loaded record files in load order.
func (r *Registry) Sources() []string {
	return r.sources
}

// Get looks up a water right by number.
func (r *Registry) Get(no waterright.WaterRightNo) (*waterright.WaterRight, bool) {
	right, ok := r.rights[no]
	return right, ok
}

// All returns the rights ordered by water right number.
func (r *Registry) All() []*waterright.WaterRight {
	nos := make([]waterright.WaterRightNo, 0, len(r.rights))
	for no := range r.rights {
		nos = append(nos, no)
	}
	slices.Sort(nos)

	rights := make([]*waterright.WaterRight, len(nos))
	for i, no := range nos {
		rights[i] = r.rights[no]
	}
	return rights
}
