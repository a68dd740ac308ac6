package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is an ordered list of imports to run in one go.
type Plan struct {
	Imports []Import `yaml:"imports"`
}

// Import names one statement source: a file or a directory of exports
// belonging to a single service.
type Import struct {
	Service string `yaml:"service"`
	Path    string `yaml:"path"`
}

func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if len(p.Imports) == 0 {
		return nil, fmt.Errorf("plan has no imports")
	}
	for i, imp := range p.Imports {
		if imp.Service == "" {
			return nil, fmt.Errorf("plan import %d has no service", i+1)
		}
		if imp.Path == "" {
			return nil, fmt.Errorf("plan import %d has no path", i+1)
		}
	}
	return &p, nil
}

func (p *Plan) Print() {
	for i, imp := range p.Imports {
		fmt.Printf("[%d] service=%s path=%s\n", i+1, imp.Service, imp.Path)
	}
}
