package permutation

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dd0wney/cluso-topology/pkg/logging"
	"github.com/dd0wney/cluso-topology/pkg/metrics"
)

const instrumentationName = "github.com/dd0wney/cluso-topology/pkg/permutation"

type config struct {
	logger         logging.Logger
	metrics        *metrics.Registry
	tracerProvider trace.TracerProvider
}

// Option configures a Checker or Generator.
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = logging.OrNop(l) }
}

// WithMetrics records check and generation counts in r.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *config) { c.metrics = r }
}

// WithTracerProvider sets the provider spans are created from. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) { c.tracerProvider = tp }
}

func newConfig(opts []Option) config {
	c := config{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.tracerProvider == nil {
		c.tracerProvider = otel.GetTracerProvider()
	}
	return c
}
