// Package metrics defines and registers all custom Prometheus metrics for the
// volunteer dashboard. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the /metrics route.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "volunteer"

// ── Authorization metrics ─────────────────────────────────────────────────────

// AuthDecisionsTotal counts route guard decisions.
// Labels:
//   - mode: "any" or "all"
//   - state: the resolved guard state (e.g. "authorized", "unauthorized")
var AuthDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_decisions_total",
		Help:      "Total number of route guard decisions, by requirement mode and resulting state.",
	},
	[]string{"mode", "state"},
)

// SessionRefreshTotal counts session middleware outcomes.
// Label:
//   - result: "valid", "refreshed", "rejected", "missing" or "public"
var SessionRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_refresh_total",
		Help:      "Total number of session validations performed by the session middleware.",
	},
	[]string{"result"},
)

// IdentityLookupsTotal counts identity-provider and profile lookups that
// actually reached a backend (memoized hits are not counted).
// Label:
//   - kind: "session", "profile" or "roles"
var IdentityLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "identity_lookups_total",
		Help:      "Total number of identity, profile and role lookups issued per request.",
	},
	[]string{"kind"},
)

// ── Query cache metrics ───────────────────────────────────────────────────────

// QueryCacheLookupsTotal counts query cache reads.
// Labels:
//   - query: cached query name (e.g. "dashboard_stats")
//   - result: "hit" or "miss"
var QueryCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_lookups_total",
		Help:      "Total number of query cache lookups, labelled by query and result (hit/miss).",
	},
	[]string{"query", "result"},
)

// QueryCacheInvalidationsTotal counts tag invalidations.
// Label:
//   - tag: invalidation tag (e.g. "stats")
var QueryCacheInvalidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_invalidations_total",
		Help:      "Total number of query cache tag invalidations.",
	},
	[]string{"tag"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the current number of audit entries waiting in each
// dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit entries pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// Recorder adapts the package metrics to the observer hooks of the query
// cache and the audit dispatcher.
type Recorder struct{}

func (Recorder) ObserveLookup(query, result string) {
	QueryCacheLookupsTotal.WithLabelValues(query, result).Inc()
}

func (Recorder) ObserveInvalidation(tag string) {
	QueryCacheInvalidationsTotal.WithLabelValues(tag).Inc()
}

func (Recorder) ObserveQueueDepth(workerID, depth int) {
	AuditQueueDepth.WithLabelValues(strconv.Itoa(workerID)).Set(float64(depth))
}
