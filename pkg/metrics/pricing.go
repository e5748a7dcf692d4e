package metrics

import "github.com/prometheus/client_golang/prometheus"

// PricingMetrics counts tier resolutions and their failure reasons.
type PricingMetrics struct {
	resolutions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tier_resolutions_total",
		Help: "Tier resolutions performed, labeled by active pricing model.",
	}, []string{"model"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tier_resolution_failures_total",
		Help: "Tier resolutions that fell back to zero discount, labeled by reason.",
	}, []string{"reason"})
	reg.MustRegister(resolutions, failures)
	return &PricingMetrics{
		resolutions: resolutions,
		failures:    failures,
	}
}

// IncResolution increments the resolution counter for the given model.
func (p *PricingMetrics) IncResolution(model string) {
	if p == nil || p.resolutions == nil {
		return
	}
	p.resolutions.WithLabelValues(normalizeLabel(model)).Inc()
}

// IncFailure increments the failure counter for the given reason.
func (p *PricingMetrics) IncFailure(reason string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}
