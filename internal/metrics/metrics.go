// Package metrics records Prometheus metrics for language model calls and
// interview progress.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/interview-agent/internal/ai"
	"github.com/spigell/interview-agent/internal/interview"
)

const namespace = "interview_agent"

// Recorder owns a registry and every collector of the service.
type Recorder struct {
	registry *prometheus.Registry

	llmRequests     *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	sessionsStarted *prometheus.CounterVec
	steps           *prometheus.CounterVec
	feedback        *prometheus.CounterVec
}

// NewRecorder registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total number of LLM requests by provider, model, agent and status",
			},
			[]string{"provider", "model", "agent", "status", "error_type"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Duration of LLM requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider", "model", "agent"},
		),
		sessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Total number of interview sessions started by role",
			},
			[]string{"role"},
		),
		steps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Total number of answers processed by outcome",
			},
			[]string{"outcome"},
		),
		feedback: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feedback_total",
				Help:      "Total number of feedback requests by result",
			},
			[]string{"result"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest records one completed LLM request.
func (r *Recorder) ObserveRequest(provider, model, agent string, err error, duration time.Duration) {
	status := "success"
	errorType := ""
	if err != nil {
		status = "error"
		errorType = string(ai.KindOf(err))
	}

	r.llmRequests.WithLabelValues(provider, model, agent, status, errorType).Inc()
	r.llmDuration.WithLabelValues(provider, model, agent).Observe(duration.Seconds())
}

func (r *Recorder) SessionStarted(role string) {
	r.sessionsStarted.WithLabelValues(role).Inc()
}

func (r *Recorder) StepCompleted(outcome interview.Outcome) {
	r.steps.WithLabelValues(string(outcome)).Inc()
}

func (r *Recorder) FeedbackGenerated(cached bool, err error) {
	result := "generated"
	switch {
	case err != nil:
		result = "error"
	case cached:
		result = "cached"
	}
	r.feedback.WithLabelValues(result).Inc()
}

// Completer records every call made through the wrapped ai.Completer.
type Completer struct {
	next     ai.Completer
	recorder *Recorder
	now      func() time.Time
}

func Instrument(next ai.Completer, recorder *Recorder) *Completer {
	return &Completer{next: next, recorder: recorder, now: time.Now}
}

func (c *Completer) Complete(ctx context.Context, req ai.Request) (string, error) {
	start := c.now()
	out, err := c.next.Complete(ctx, req)
	c.recorder.ObserveRequest(c.next.Provider(), c.next.Model(), ai.AgentFrom(ctx), err, c.now().Sub(start))
	return out, err
}

func (c *Completer) Provider() string { return c.next.Provider() }

func (c *Completer) Model() string { return c.next.Model() }
