// Package telemetrytest provides a telemetry client that records metrics in
// memory.
package telemetrytest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/luizaranda/go-rest/pkg/telemetry"
)

// Metric is a recorded statsd call.
type Metric struct {
	Kind  string
	Name  string
	Value float64
	Tags  []string
}

// HasTag reports whether tag is among the metric tags.
func (m Metric) HasTag(tag string) bool { return slices.Contains(m.Tags, tag) }

// Recorder is a statsd client keeping every increment and timing it receives.
type Recorder struct {
	statsd.NoOpClient

	mu      sync.Mutex
	metrics []Metric
}

// NewContext returns a recorder and a context whose telemetry client sends
// metrics to it.
func NewContext(ctx context.Context) (context.Context, *Recorder) {
	r := &Recorder{}
	return telemetry.Context(ctx, telemetry.NewStatsdClient(r)), r
}

func (r *Recorder) record(m Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
	return nil
}

func (r *Recorder) Incr(name string, tags []string, _ float64) error {
	return r.record(Metric{Kind: "count", Name: name, Value: 1, Tags: tags})
}

func (r *Recorder) Timing(name string, value time.Duration, tags []string, _ float64) error {
	return r.record(Metric{Kind: "timing", Name: name, Value: float64(value.Milliseconds()), Tags: tags})
}

// Named returns the recorded metrics called name.
func (r *Recorder) Named(name string) []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Metric
	for _, m := range r.metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
