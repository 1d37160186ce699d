// Package metrics defines and registers all custom Prometheus metrics for the
// storefront gateway. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register themselves with the default registry via promauto at
// package load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Cart metrics ──────────────────────────────────────────────────────────────

// CartMutationsTotal counts cart mutations applied to local state.
// Label:
//   - op: "add", "update_quantity", "remove", "clear"
var CartMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Total number of cart mutations applied, by operation.",
	},
	[]string{"op"},
)

// CartSyncsTotal counts background remote-cart sync outcomes.
// Label:
//   - result: "ok", "auth_rejected", "error"
var CartSyncsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_syncs_total",
		Help:      "Total number of best-effort remote cart syncs, by result.",
	},
	[]string{"result"},
)

// CartHydrationsTotal counts store hydrations by the source that won.
// Label:
//   - source: "remote" (authenticated fetch succeeded), "local" (anonymous or
//     fetch failed non-auth), "empty" (auth rejected, cart reset)
var CartHydrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_hydrations_total",
		Help:      "Total number of cart store hydrations, by winning source.",
	},
	[]string{"source"},
)

// ── Upstream metrics ──────────────────────────────────────────────────────────

// UpstreamRequestDuration measures the latency of calls to the marketplace
// API, labelled by the logical route and response class ("2xx", "4xx", …).
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of requests to the upstream marketplace API.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"route", "class"},
)
