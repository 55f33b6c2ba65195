// Package postprocessors prepares imported documents for indexing. Steps
// are named in the ingest settings, built from a Registry and run in a
// Pipeline.
package postprocessors

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/scholar/internal/core/domain"
	"github.com/custodia-labs/scholar/internal/core/ports/driven"
	"github.com/custodia-labs/scholar/internal/logger"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs its steps in order, feeding each the previous output. The
// zero value runs nothing.
type Pipeline struct {
	steps []driven.PostProcessor
}

func NewPipeline(steps ...driven.PostProcessor) *Pipeline {
	return &Pipeline{steps: steps}
}

// Process stops at the first failing step or when ctx is done.
func (p *Pipeline) Process(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start, in := time.Now(), len(docs)

		var err error
		if docs, err = step.Process(ctx, docs); err != nil {
			return nil, fmt.Errorf("processor %s: %w", step.Name(), err)
		}
		logger.Debug("%s: %d documents in, %d out (%s)", step.Name(), in, len(docs), time.Since(start).Round(time.Microsecond))
	}
	return docs, nil
}

func (p *Pipeline) Add(step driven.PostProcessor) { p.steps = append(p.steps, step) }
func (p *Pipeline) Len() int                      { return len(p.steps) }

// Names lists the steps in the order they run.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
