package engine

import (
	"context"

	"github.com/idleworks/tycoon/internal/events"
)

// Stage names, in execution order.
const (
	StageRequests  = "requests"
	StageRecompute = "recompute"
	StageProgress  = "progress"
	StageCooldown  = "cooldown"
	StageRealize   = "realize"
	StageEmit      = "emit"
	StageSave      = "save"
)

// TickContext carries the per-tick state handed from stage to stage.
type TickContext struct {
	Ctx   context.Context
	Delta float64
	Tick  int64

	Batch     events.Batch
	Completed []int
	Emitted   []events.MoneyUpdateRequest
	Saved     bool
	SaveErr   error
}

// Stage is one named step of the tick.
type Stage struct {
	Name string
	Run  func(tc *TickContext)
}

// Pipeline is the ordered list of stages run once per tick. The order is
// fixed at construction.
type Pipeline struct {
	stages []Stage
}

// NewPipeline creates a pipeline running stages in the given order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage once.
func (p *Pipeline) Run(tc *TickContext) {
	for _, s := range p.stages {
		s.Run(tc)
	}
}
