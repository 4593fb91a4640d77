package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the engine's counters. Workflows increment through the
// bootstrap-injected instance; a nil *Registry is a no-op so pure test wiring
// stays metrics-free.
type Registry struct {
	registry *prometheus.Registry

	Finalizations *prometheus.CounterVec
	PointAwards   prometheus.Counter
	VotesCast     *prometheus.CounterVec
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{
		registry: reg,
		Finalizations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "concord_finalizations_total",
				Help: "Terminal governance transitions by subject kind and outcome",
			},
			[]string{"subject_kind", "outcome"},
		),
		PointAwards: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "concord_point_awards_total",
				Help: "Point awards applied to member balances",
			},
		),
		VotesCast: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "concord_votes_cast_total",
				Help: "Votes recorded by subject kind",
			},
			[]string{"subject_kind"},
		),
	}
}

func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) CountFinalization(subjectKind, outcome string) {
	if r == nil {
		return
	}
	r.Finalizations.WithLabelValues(subjectKind, outcome).Inc()
}

func (r *Registry) CountPointAward() {
	if r == nil {
		return
	}
	r.PointAwards.Inc()
}

func (r *Registry) CountVote(subjectKind string) {
	if r == nil {
		return
	}
	r.VotesCast.WithLabelValues(subjectKind).Inc()
}
