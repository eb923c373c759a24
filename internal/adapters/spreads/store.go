// Package spreads loads the spread topology registry from an embedded YAML
// document.
package spreads

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/randomtoy/arcana-go/internal/domain"
)

//go:embed spreads.yaml
var spreadsYAML []byte

type spreadFile struct {
	Spreads []domain.SpreadDefinition `yaml:"spreads"`
}

// Registry resolves spread keys to their definitions.
type Registry struct {
	once sync.Once
	defs map[string]domain.SpreadDefinition
	keys []string
	err  error
}

// NewRegistry returns the registry over the embedded topology document.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) init() {
	var sf spreadFile
	if err := yaml.Unmarshal(spreadsYAML, &sf); err != nil {
		r.err = fmt.Errorf("parse embedded spreads: %w", err)
		return
	}
	r.defs = make(map[string]domain.SpreadDefinition, len(sf.Spreads))
	for _, def := range sf.Spreads {
		if err := def.Validate(); err != nil {
			r.err = fmt.Errorf("embedded spread: %w", err)
			return
		}
		r.defs[def.Key] = def
		r.keys = append(r.keys, def.Key)
	}
}

// Get returns the definition for a spread key.
func (r *Registry) Get(key string) (domain.SpreadDefinition, error) {
	r.once.Do(r.init)
	if r.err != nil {
		return domain.SpreadDefinition{}, r.err
	}
	def, ok := r.defs[key]
	if !ok {
		return domain.SpreadDefinition{}, fmt.Errorf("%w: %s", domain.ErrUnknownSpread, key)
	}
	return def, nil
}

// All returns every registered definition in document order.
func (r *Registry) All() ([]domain.SpreadDefinition, error) {
	r.once.Do(r.init)
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.SpreadDefinition, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.defs[k])
	}
	return out, nil
}
