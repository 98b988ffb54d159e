package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Campaign outcomes recorded per run.
const (
	CampaignProcessed = "processed"
	CampaignSkipped   = "skipped"
)

// BiddingMetrics counts what each bidding run did.
type BiddingMetrics struct {
	adjustments *prometheus.CounterVec
	campaigns   *prometheus.CounterVec
	sheets      prometheus.Counter
	modifiers   *prometheus.HistogramVec
}

// NewBiddingMetrics registers the bidding metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewBiddingMetrics(reg prometheus.Registerer) *BiddingMetrics {
	if reg == nil {
		return &BiddingMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hourbid_adjustments_total",
		Help: "Ad schedule bid modifiers written, by rule.",
	}, []string{"rule"})
	campaigns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hourbid_campaigns_total",
		Help: "Campaigns visited by bidding runs, by outcome.",
	}, []string{"outcome"})
	sheets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hourbid_sheets_created_total",
		Help: "Reporting sheets cloned from the template.",
	})
	modifiers := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hourbid_bid_modifier",
		Help:    "Distribution of written bid modifiers.",
		Buckets: []float64{0.5, 0.75, 0.85, 0.95, 1, 1.05, 1.15, 1.3, 1.5, 2},
	}, []string{"rule"})
	reg.MustRegister(adjustments, campaigns, sheets, modifiers)
	return &BiddingMetrics{
		adjustments: adjustments,
		campaigns:   campaigns,
		sheets:      sheets,
		modifiers:   modifiers,
	}
}

// ObserveAdjustment records one written modifier.
func (b *BiddingMetrics) ObserveAdjustment(rule string, modifier float64) {
	if b == nil || b.adjustments == nil {
		return
	}
	label := normalizeLabel(rule)
	b.adjustments.WithLabelValues(label).Inc()
	b.modifiers.WithLabelValues(label).Observe(modifier)
}

// IncCampaign records a campaign outcome.
func (b *BiddingMetrics) IncCampaign(outcome string) {
	if b == nil || b.campaigns == nil {
		return
	}
	b.campaigns.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (b *BiddingMetrics) IncSheetCreated() {
	if b == nil || b.sheets == nil {
		return
	}
	b.sheets.Inc()
}
