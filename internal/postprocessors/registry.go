package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
)

// BuilderFunc makes a processor from its settings table. cfg may be nil.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps the processor names used in ingest settings to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register adds builder under name. Names are unique and non-empty.
func (r *Registry) Register(name string, builder BuilderFunc) error {
	switch {
	case name == "" || builder == nil:
		return fmt.Errorf("register processor %q: %w", name, domain.ErrInvalidInput)
	case r.Has(name):
		return fmt.Errorf("processor %q already registered: %w", name, domain.ErrInvalidInput)
	}
	r.builders[name] = builder
	return nil
}

// Build creates the named processor. Unknown names wrap
// domain.ErrUnsupportedType and list what is available.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("processor %q (have %s): %w",
			name, strings.Join(r.Names(), ", "), domain.ErrUnsupportedType)
	}
	processor, err := builder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build processor %s: %w", name, err)
	}
	return processor, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}

// BuildPipeline builds names, in order, into a pipeline. cfg holds each
// processor's settings table by name. A name may appear once.
func (r *Registry) BuildPipeline(names []string, cfg map[string]map[string]any) (*Pipeline, error) {
	p := NewPipeline()
	for i, name := range names {
		if slices.Contains(names[:i], name) {
			return nil, fmt.Errorf("processor %q listed twice: %w", name, domain.ErrInvalidInput)
		}
		processor, err := r.Build(name, cfg[name])
		if err != nil {
			return nil, err
		}
		p.Add(processor)
	}
	return p, nil
}
