package resolvers

import (
	"time"

	"github.com/carlosbarrancotena/practica5/internal/clients"
	"github.com/carlosbarrancotena/practica5/pkg/logging"
	"github.com/carlosbarrancotena/practica5/pkg/monitoring"

	"github.com/prometheus/client_golang/prometheus"
)

// GraphQLMetrics holds all Prometheus metrics for GraphQL operations
type GraphQLMetrics struct {
	Operations       *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	FanOutInFlight   *prometheus.GaugeVec
}

// NewGraphQLMetrics registers the resolver metrics on mc
func NewGraphQLMetrics(mc *monitoring.MetricsCollector) *GraphQLMetrics {
	return &GraphQLMetrics{
		Operations:       mc.NewCounter("graphql_operations_total", "Total GraphQL field resolutions", []string{"operation", "status"}),
		Duration:         mc.NewHistogram("graphql_operation_duration_seconds", "GraphQL field resolution duration", []string{"operation"}, nil),
		UpstreamRequests: mc.NewCounter("upstream_requests_total", "Requests sent to PokeAPI", []string{"resource", "status"}),
		UpstreamDuration: mc.NewHistogram("upstream_request_duration_seconds", "PokeAPI request duration", []string{"resource"}, nil),
		FanOutInFlight:   mc.NewGauge("graphql_fanout_in_flight", "Nested fetches currently running", []string{"field"}),
	}
}

// ObserveUpstream records one finished PokeAPI request. It has the shape of
// pokeapi.RequestObserver.
func (m *GraphQLMetrics) ObserveUpstream(resource, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(resource, status).Inc()
	m.UpstreamDuration.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// Resolver carries the dependencies shared by all field resolvers. It holds
// no per-request state.
type Resolver struct {
	Clients *clients.ServiceClients
	Logger  logging.Logger
	Metrics *GraphQLMetrics

	// FanOutLimit caps concurrent fetches within one nested field; 0 means
	// one goroutine per item.
	FanOutLimit int
}

// NewResolver creates a new GraphQL resolver
func NewResolver(serviceClients *clients.ServiceClients, logger logging.Logger, metrics *GraphQLMetrics) *Resolver {
	return &Resolver{
		Clients: serviceClients,
		Logger:  logger,
		Metrics: metrics,
	}
}

func (r *Resolver) track(operation string, start time.Time, err error) {
	if r.Metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.Metrics.Operations.WithLabelValues(operation, status).Inc()
	r.Metrics.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// inFlight marks one nested fetch for field as running until the returned
// func is called.
func (r *Resolver) inFlight(field string) func() {
	if r.Metrics == nil {
		return func() {}
	}
	g := r.Metrics.FanOutInFlight.WithLabelValues(field)
	g.Inc()
	return g.Dec
}
