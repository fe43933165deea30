// Package metrics exports session and verification lifecycle counters to
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lborres/docauth/core"
)

// Collector records lifecycle events as Prometheus counters.
type Collector struct {
	sessionsCreated      prometheus.Counter
	sessionsRenewed      prometheus.Counter
	sessionsExpired      prometheus.Counter
	sessionsDeleted      prometheus.Counter
	verificationsCreated prometheus.Counter
	deliveryFailures     prometheus.Counter
	verificationsExpired prometheus.Counter
	purgeFailures        *prometheus.CounterVec
	swept                *prometheus.CounterVec
}

var _ core.Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its counters with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_sessions_created_total",
			Help: "Sessions created.",
		}),
		sessionsRenewed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_sessions_renewed_total",
			Help: "Sessions whose expiry was pushed forward.",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_sessions_expired_total",
			Help: "Expired sessions found on read.",
		}),
		sessionsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_sessions_deleted_total",
			Help: "Sessions deleted by sign-out.",
		}),
		verificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_verification_requests_created_total",
			Help: "Verification requests persisted.",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_verification_delivery_failures_total",
			Help: "Verification messages the sender failed to deliver.",
		}),
		verificationsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docauth_verification_requests_expired_total",
			Help: "Expired verification requests found on read or use.",
		}),
		purgeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_expired_purge_failures_total",
			Help: "Failed deletes of expired records, by record kind.",
		}, []string{"kind"}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_swept_records_total",
			Help: "Expired records removed by the background sweep, by collection.",
		}, []string{"collection"}),
	}

	reg.MustRegister(
		c.sessionsCreated,
		c.sessionsRenewed,
		c.sessionsExpired,
		c.sessionsDeleted,
		c.verificationsCreated,
		c.deliveryFailures,
		c.verificationsExpired,
		c.purgeFailures,
		c.swept,
	)

	return c
}

func (c *Collector) SessionCreated()             { c.sessionsCreated.Inc() }
func (c *Collector) SessionRenewed()             { c.sessionsRenewed.Inc() }
func (c *Collector) SessionExpired()             { c.sessionsExpired.Inc() }
func (c *Collector) SessionDeleted()             { c.sessionsDeleted.Inc() }
func (c *Collector) VerificationCreated()        { c.verificationsCreated.Inc() }
func (c *Collector) VerificationDeliveryFailed() { c.deliveryFailures.Inc() }
func (c *Collector) VerificationExpired()        { c.verificationsExpired.Inc() }

func (c *Collector) ExpiredPurgeFailed(kind string) {
	c.purgeFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) Swept(collection string, n int64) {
	c.swept.WithLabelValues(collection).Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
