package analysis

import (
	"context"

	"github.com/sourcegraph/conc/pool"
)

// runGraph executes the analyzer stage as a dependency graph: every analyzer
// depends only on the resume match, which has already run, so they are all
// started together, bounded by MaxParallel. Each writes a disjoint slot.
func (o *Orchestrator) runGraph(runCtx context.Context, st *State, publish func(context.Context)) {
	p := pool.New().WithMaxGoroutines(o.opts.MaxParallel)
	publishCtx := context.WithoutCancel(runCtx)
	for _, step := range o.analyzers {
		p.Go(func() {
			o.runAnalyzer(runCtx, st, step)
			publish(publishCtx)
		})
	}
	p.Wait()
}
