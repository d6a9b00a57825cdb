package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts committed deployment transitions by operation
	// (create, upgrade, switch, retire, cascade_switch, cascade_retire).
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "versioning",
		Subsystem: "deployments",
		Name:      "transitions_total",
		Help:      "Committed deployment transitions by operation.",
	}, []string{"operation"})

	// SupersessionRetries counts transitions that lost the guarded
	// deactivate race and were retried against re-read state.
	SupersessionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "versioning",
		Subsystem: "deployments",
		Name:      "supersession_retries_total",
		Help:      "Transitions retried after losing the supersession race.",
	})

	// ResolutionFailuresTotal counts best-effort download-URI resolutions
	// that were swallowed into an absent response field.
	ResolutionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "versioning",
		Subsystem: "artifactory",
		Name:      "resolution_failures_total",
		Help:      "Failed best-effort artifact download URI resolutions.",
	})
)
