package gateway

import (
	"context"
	"time"
)

// pipelineState is the shared state advanced by each stage.
type pipelineState struct {
	req *Request

	clientID   string
	sanitized  string
	sourceLang string
	targetLang string
	warnings   []string
	promptText string
	rawOutput  string
	output     string
}

// stage is one named pipeline unit. A stage either advances the state or
// returns a *Rejection (or internal error) that short-circuits the run.
type stage struct {
	name string
	run  func(ctx context.Context, st *pipelineState) error
}

// stages returns the pipeline in its fixed order. Quota precedes validation
// so anonymous flooding is rejected before CPU-bound checks run.
func (g *Gateway) stages() []stage {
	return []stage{
		{name: "resolve_client", run: g.resolveClient},
		{name: "check_quota", run: g.checkQuota},
		{name: "validate_input", run: g.validateInput},
		{name: "build_prompt", run: g.buildPrompt},
		{name: "call_model", run: g.callModel},
		{name: "validate_output", run: g.validateOutput},
	}
}

// runPipeline executes the stages in order, timing each, and stops at the
// first error.
func (g *Gateway) runPipeline(ctx context.Context, st *pipelineState) error {
	for _, s := range g.stages() {
		start := time.Now()
		err := s.run(ctx, st)
		if g.metrics != nil {
			g.metrics.RecordStageDuration(s.name, time.Since(start).Seconds())
		}
		if err != nil {
			return err
		}
	}
	return nil
}
