package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	metricCycles      = prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_cycles_total", Help: "Decision cycles completed"})
	metricAssetErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_asset_errors_total", Help: "Per-asset evaluation failures (cycle continued)"})
	metricPanicSkips  = prometheus.NewCounter(prometheus.CounterOpts{Name: "engine_panic_skips_total", Help: "Entries skipped because the regime was panic"})

	metricEntries    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "engine_entries_total", Help: "Trades opened"}, []string{"direction"})
	metricRejections = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "engine_entries_rejected_total", Help: "Entries blocked by a risk gate"}, []string{"gate"})
	metricLegCloses  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "engine_leg_closes_total", Help: "Exit legs closed"}, []string{"kind"})

	metricTotalBalance = prometheus.NewGauge(prometheus.GaugeOpts{Name: "engine_total_balance", Help: "Free cash plus unrealized P&L at last snapshot"})
	metricFreeCash     = prometheus.NewGauge(prometheus.GaugeOpts{Name: "engine_free_cash", Help: "Modeled free cash at last snapshot"})
	metricOpenTrades   = prometheus.NewGauge(prometheus.GaugeOpts{Name: "engine_open_trades", Help: "Trades with at least one open leg"})
)

func init() {
	prometheus.MustRegister(
		metricCycles, metricAssetErrors, metricPanicSkips,
		metricEntries, metricRejections, metricLegCloses,
		metricTotalBalance, metricFreeCash, metricOpenTrades,
	)
}
