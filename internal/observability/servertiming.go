package observability

import (
	"context"

	servertiming "github.com/mitchellh/go-server-timing"
)

// timingDescriptions label Server-Timing metrics of compile stages and request phases.
var timingDescriptions = map[string]string{
	TimingCompile:       "CQL compile",
	TimingEncode:        "response encoding",
	StageParse:          "parse",
	StageFlatten:        "flatten",
	StageExtractNested:  "nested query extraction",
	StageExtractFilters: "filter query extraction",
	StageRender:         "render",
}

// Request phases reported in Server-Timing headers, next to the compile stages.
const (
	TimingCompile = "compile"
	TimingEncode  = "encode"
)

// Timing is a running Server-Timing metric. The zero value does nothing.
type Timing struct {
	metric *servertiming.Metric
}

// Stop records the metric's duration.
func (t Timing) Stop() {
	if t.metric != nil {
		t.metric.Stop()
	}
}

// StartTiming starts a Server-Timing metric for a compile stage or request phase.
// Without a timing header in ctx, i.e. outside ServerTimingMiddleware, it does nothing.
func StartTiming(ctx context.Context, name string) Timing {
	h := servertiming.FromContext(ctx)
	if h == nil {
		return Timing{}
	}
	m := h.NewMetric(name)
	if desc, ok := timingDescriptions[name]; ok {
		m = m.WithDesc(desc)
	}
	return Timing{metric: m.Start()}
}
