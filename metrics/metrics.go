package metrics

import (
	"io"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// labels definition
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"

	// tool outcomes
	OutcomeUnknownTool = "unknown_tool"
	OutcomeInvalidArgs = "invalid_args"
)

var (
	modelRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_model_requests_total",
			Help: "Total number of chat model requests",
		}, []string{"provider", "outcome"},
	)

	modelLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "promptlab_model_request_duration_seconds",
			Help:    "Duration of chat model requests in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"provider"},
	)

	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promptlab_tool_invocations_total",
			Help: "Total number of tool invocations",
		}, []string{"tool", "outcome"},
	)

	// model calls made per relay or agent run
	relayRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "promptlab_relay_rounds",
			Help:    "Model round trips per tool relay run",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)
)

func init() {
	prometheus.MustRegister(modelRequests)
	prometheus.MustRegister(modelLatency)
	prometheus.MustRegister(toolInvocations)
	prometheus.MustRegister(relayRounds)
}

// RecordModelRequest counts one model call and its latency.
func RecordModelRequest(provider string, err error, duration time.Duration) {
	modelRequests.WithLabelValues(provider, outcome(err)).Inc()
	modelLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordToolInvocation counts one tool dispatch.
func RecordToolInvocation(tool, outcome string) {
	toolInvocations.WithLabelValues(tool, outcome).Inc()
}

// RecordRelayRounds observes the number of model calls one run needed.
func RecordRelayRounds(rounds int) {
	relayRounds.Observe(float64(rounds))
}

// Outcome maps an error to its outcome label.
func Outcome(err error) string { return outcome(err) }

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}

// WriteText renders every registered metric in the Prometheus text format.
func WriteText(w io.Writer) error {
	return writeText(w, prometheus.DefaultGatherer)
}

func writeText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !wanted(mf) {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// wanted drops the Go runtime and process collectors from demo output
func wanted(mf *dto.MetricFamily) bool {
	name := mf.GetName()
	return strings.HasPrefix(name, "promptlab_")
}
