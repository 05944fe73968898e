package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Smilefounder/services-core/internal/infrastructure/observability/prometrics"
	"github.com/Smilefounder/services-core/internal/observability"
)

// Options assembles the telemetry of one worker process. Nil members fall
// back to no-ops.
type Options struct {
	Tracer   observability.Tracer
	Logger   observability.Logger
	Registry *prometrics.Registry
	// PushgatewayURL receives the registry on Flush; empty disables pushing.
	PushgatewayURL string
	Job            string
	Grouping       map[string]string
}

// Provider implements observability.Observability and observability.Flusher.
type Provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
	opts    Options
}

var (
	_ observability.Observability = (*Provider)(nil)
	_ observability.Flusher       = (*Provider)(nil)
)

func New(opts Options) *Provider {
	p := &Provider{
		tracer:  opts.Tracer,
		logger:  opts.Logger,
		metrics: observability.NopMetrics(),
		opts:    opts,
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	if opts.Registry != nil {
		p.metrics = register(opts.Registry, observability.Instruments)
	}
	return p
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.metrics }

// Flush pushes everything recorded so far to the Pushgateway, if one is set.
func (p *Provider) Flush(ctx context.Context) error {
	if p.opts.Registry == nil {
		return nil
	}
	return p.opts.Registry.Push(ctx, p.opts.PushgatewayURL, p.opts.Job, p.opts.Grouping)
}

type instrumentSet struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func register(reg *prometrics.Registry, specs []observability.Instrument) *instrumentSet {
	set := &instrumentSet{
		counters:   make(map[observability.MetricKey]observability.Counter),
		histograms: make(map[observability.MetricKey]observability.Histogram),
	}
	for _, in := range specs {
		switch in.Kind {
		case observability.KindCounter:
			set.counters[in.Key] = reg.Counter(string(in.Key), in.Help, in.Labels...)
		case observability.KindHistogram:
			set.histograms[in.Key] = reg.Histogram(string(in.Key), in.Help, prometheus.DefBuckets, in.Labels...)
		}
	}
	return set
}

func (s *instrumentSet) Counter(key observability.MetricKey) observability.Counter {
	if c, ok := s.counters[key]; ok {
		return c
	}
	return observability.NopCounter()
}

func (s *instrumentSet) Histogram(key observability.MetricKey) observability.Histogram {
	if h, ok := s.histograms[key]; ok {
		return h
	}
	return observability.NopHistogram()
}
