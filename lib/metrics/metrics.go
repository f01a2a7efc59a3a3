// Package metrics exposes replay activity as Prometheus series.
package metrics

import (
	"github.com/dcernahoschi/mojitoswap-pool/lib/fixed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Swaps           *prometheus.CounterVec
	TicksCrossed    prometheus.Counter
	PositionsOpened prometheus.Counter
	PositionsClosed prometheus.Counter
	// FeesCollected is a float approximation, for display only.
	FeesCollected   *prometheus.CounterVec
	ActiveLiquidity prometheus.Gauge
	CurrentTick     prometheus.Gauge
}

// New registers the pool series with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Swaps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mojito",
				Name:      "swaps_total",
				Help:      "Total settled swaps",
			},
			[]string{"direction"},
		),
		TicksCrossed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mojito",
			Name:      "ticks_crossed_total",
			Help:      "Total initialized ticks crossed by swaps",
		}),
		PositionsOpened: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mojito",
			Name:      "positions_opened_total",
			Help:      "Total positions opened",
		}),
		PositionsClosed: f.NewCounter(prometheus.CounterOpts{
			Namespace: "mojito",
			Name:      "positions_closed_total",
			Help:      "Total positions removed",
		}),
		FeesCollected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mojito",
				Name:      "fees_collected_total",
				Help:      "Fees paid out to positions",
			},
			[]string{"asset"},
		),
		ActiveLiquidity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mojito",
			Name:      "active_liquidity",
			Help:      "Liquidity active at the current price",
		}),
		CurrentTick: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mojito",
			Name:      "current_tick",
			Help:      "Tick of the current price",
		}),
	}
}

func (m *Metrics) ObserveSwap(aToB bool, ticksCrossed int) {
	direction := "b_to_a"
	if aToB {
		direction = "a_to_b"
	}
	m.Swaps.WithLabelValues(direction).Inc()
	m.TicksCrossed.Add(float64(ticksCrossed))
}

func (m *Metrics) ObserveFees(asset string, amount fixed.Decimal) {
	if amount.IsPositive() {
		m.FeesCollected.WithLabelValues(asset).Add(amount.Float64())
	}
}

func (m *Metrics) SetPoolState(liquidity fixed.Decimal, tick int) {
	m.ActiveLiquidity.Set(liquidity.Float64())
	m.CurrentTick.Set(float64(tick))
}
