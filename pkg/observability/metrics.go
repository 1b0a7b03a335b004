package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/formflow/pkg/domain"
)

const namespace = "formflow"

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	submissions    *prometheus.CounterVec
	answers        *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registerer uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "submissions_total",
				Help:      "Submission lifecycle transitions by form and event.",
			},
			[]string{"form_id", "event"},
		),
		answers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "answers_total",
				Help:      "Answers received by form, data type and outcome.",
			},
			[]string{"form_id", "data_type", "outcome"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Post-completion actions by type and outcome.",
			},
			[]string{"action_type", "outcome"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of post-completion actions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action_type"},
		),
	}
	for _, c := range []prometheus.Collector{m.submissions, m.answers, m.actions, m.actionDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	submission := func(event string) func(context.Context, *domain.SubmissionEvent) {
		return func(_ context.Context, e *domain.SubmissionEvent) {
			m.submissions.WithLabelValues(e.FormID, event).Inc()
		}
	}
	answer := func(outcome string) func(context.Context, *domain.AnswerEvent) {
		return func(_ context.Context, e *domain.AnswerEvent) {
			dt := string(e.DataType)
			if dt == "" {
				dt = "none"
			}
			m.answers.WithLabelValues(e.FormID, dt, outcome).Inc()
		}
	}
	return domain.LifecycleHooks{
		OnSubmissionStart:    submission("started"),
		OnSubmissionComplete: submission("completed"),
		OnSubmissionAbandon:  submission("abandoned"),
		OnAnswerAccepted:     answer("accepted"),
		OnAnswerRejected:     answer("rejected"),
		OnActionResult: func(_ context.Context, e *domain.ActionEvent) {
			outcome := "success"
			if e.IsError {
				outcome = "error"
			}
			m.actions.WithLabelValues(string(e.ActionType), outcome).Inc()
			m.actionDuration.WithLabelValues(string(e.ActionType)).Observe(e.Duration.Seconds())
		},
	}
}
