// pkg/registry/registry.go
package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"mock-response-service/internal/common/validation"

	"gopkg.in/yaml.v3"
)

// LoadCatalog reads every *.yaml / *.yml file in dir. A file either holds one
// service (its id is the file name without extension) or a top-level
// "services" map.
func LoadCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	cat := &Catalog{Services: make(map[string]Service)}
	for _, e := range entries {
		if e.IsDir() || !isCatalogFile(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := mergeFile(cat, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func isCatalogFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func mergeFile(cat *Catalog, defaultID string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var multi Catalog
	if err := decodeStrict(data, &multi); err == nil && len(multi.Services) > 0 {
		for id, svc := range multi.Services {
			if _, dup := cat.Services[id]; dup {
				return fmt.Errorf("service %q defined twice", id)
			}
			cat.Services[id] = svc
		}
		return nil
	}

	var svc Service
	if err := decodeStrict(data, &svc); err != nil {
		return err
	}
	if _, dup := cat.Services[defaultID]; dup {
		return fmt.Errorf("service %q defined twice", defaultID)
	}
	cat.Services[defaultID] = svc
	return nil
}

func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Validate checks ids, flavor uniqueness and that defaultResponse names a flavor.
func (c *Catalog) Validate() error {
	var problems []string
	for _, id := range c.ServiceIDs() {
		svc := c.Services[id]
		if !validation.ValidateIdentifier(id) {
			problems = append(problems, fmt.Sprintf("service %q: invalid id", id))
		}
		if len(svc.Responses) == 0 {
			problems = append(problems, fmt.Sprintf("service %q: no responses", id))
		}
		seen := make(map[string]bool, len(svc.Responses))
		for i, f := range svc.Responses {
			switch {
			case f.ID == "":
				problems = append(problems, fmt.Sprintf("service %q: responses[%d] has no id", id, i))
			case !validation.ValidateIdentifier(f.ID):
				problems = append(problems, fmt.Sprintf("service %q: invalid flavor id %q", id, f.ID))
			case seen[f.ID]:
				problems = append(problems, fmt.Sprintf("service %q: duplicate flavor %q", id, f.ID))
			}
			seen[f.ID] = true
		}
		if svc.DefaultResponse != "" && !seen[svc.DefaultResponse] {
			problems = append(problems, fmt.Sprintf("service %q: defaultResponse %q is not a flavor", id, svc.DefaultResponse))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ServiceIDs returns the sorted service ids.
func (c *Catalog) ServiceIDs() []string {
	ids := make([]string, 0, len(c.Services))
	for id := range c.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Registry holds the current catalog and swaps it atomically on reload.
type Registry struct {
	dir     string
	current atomic.Pointer[Catalog]
}

// NewRegistry loads dir once. The returned registry serves that catalog until Reload succeeds.
func NewRegistry(dir string) (*Registry, error) {
	r := &Registry{dir: dir}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewStaticRegistry serves a fixed catalog. Reload is a no-op.
func NewStaticRegistry(cat *Catalog) *Registry {
	r := &Registry{}
	if cat == nil {
		cat = &Catalog{Services: map[string]Service{}}
	}
	r.current.Store(cat)
	return r
}

// Reload re-reads the directory; on error the previous catalog stays active.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return nil
	}
	cat, err := LoadCatalog(r.dir)
	if err != nil {
		return err
	}
	r.current.Store(cat)
	return nil
}

func (r *Registry) Catalog() *Catalog {
	return r.current.Load()
}

func (r *Registry) Dir() string {
	return r.dir
}
