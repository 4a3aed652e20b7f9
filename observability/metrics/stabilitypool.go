package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StabilityPoolMetrics tracks the counters and gauges an operator dashboards
// against: deposit flow, offset activity, and the P/epoch/scale accumulator
// state that liquidation accounting rests on.
type StabilityPoolMetrics struct {
	deposits         *prometheus.CounterVec
	withdrawals      *prometheus.CounterVec
	offsetsApplied   prometheus.Counter
	offsetDebt       prometheus.Counter
	offsetCollateral prometheus.Counter
	epochAdvances    prometheus.Counter
	scaleAdvances    prometheus.Counter
	productValue     prometheus.Gauge
	totalDeposits    prometheus.Gauge
	furfiBalance     prometheus.Gauge
	loanIssued       prometheus.Counter
	frontEndsTotal   prometheus.Gauge
	lossErrorOffset  prometheus.Gauge
	collateralClaims *prometheus.CounterVec
}

var (
	stabilityPoolOnce     sync.Once
	stabilityPoolRegistry *StabilityPoolMetrics
)

// StabilityPool returns the process-wide singleton, registering every
// collector with the default Prometheus registry on first call.
func StabilityPool() *StabilityPoolMetrics {
	stabilityPoolOnce.Do(func() {
		stabilityPoolRegistry = &StabilityPoolMetrics{
			deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stabilitypool_deposits_total",
				Help: "Count of provideToStabilityPool calls by front end tag.",
			}, []string{"front_end"}),
			withdrawals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stabilitypool_withdrawals_total",
				Help: "Count of withdrawFromStabilityPool calls, zero-amount gain-only withdrawals included.",
			}, []string{"gain_only"}),
			offsetsApplied: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stabilitypool_offsets_applied_total",
				Help: "Count of debt offsets absorbed by the pool.",
			}),
			offsetDebt: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stabilitypool_offset_debt_total",
				Help: "Cumulative FURUSD debt absorbed across all offsets, in base units.",
			}),
			offsetCollateral: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stabilitypool_offset_collateral_total",
				Help: "Cumulative FURFI collateral received across all offsets, in base units.",
			}),
			epochAdvances: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stabilitypool_epoch_advances_total",
				Help: "Count of offsets that fully depleted the pool and advanced the epoch.",
			}),
			scaleAdvances: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stabilitypool_scale_advances_total",
				Help: "Count of offsets that crossed a scale boundary without depleting the pool.",
			}),
			productValue: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stabilitypool_product_p",
				Help: "Current value of the running product P, in 1e18 fixed-point units.",
			}),
			totalDeposits: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stabilitypool_total_deposits",
				Help: "Current total FURUSD held by the pool, in base units.",
			}),
			furfiBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stabilitypool_furfi_balance",
				Help: "Current FURFI balance awaiting depositor claims, in base units.",
			}),
			loanIssued: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stabilitypool_loan_issued_total",
				Help: "Cumulative LOAN issued to the pool for depositor and front end rewards, in base units.",
			}),
			frontEndsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stabilitypool_front_ends_registered",
				Help: "Number of distinct front ends registered.",
			}),
			lossErrorOffset: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stabilitypool_loss_error_offset",
				Help: "Residual FURUSD loss-per-unit rounding error carried into the next offset.",
			}),
			collateralClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stabilitypool_collateral_claims_total",
				Help: "Count of collateral gain claims by destination.",
			}, []string{"destination"}),
		}
		prometheus.MustRegister(
			stabilityPoolRegistry.deposits,
			stabilityPoolRegistry.withdrawals,
			stabilityPoolRegistry.offsetsApplied,
			stabilityPoolRegistry.offsetDebt,
			stabilityPoolRegistry.offsetCollateral,
			stabilityPoolRegistry.epochAdvances,
			stabilityPoolRegistry.scaleAdvances,
			stabilityPoolRegistry.productValue,
			stabilityPoolRegistry.totalDeposits,
			stabilityPoolRegistry.furfiBalance,
			stabilityPoolRegistry.loanIssued,
			stabilityPoolRegistry.frontEndsTotal,
			stabilityPoolRegistry.lossErrorOffset,
			stabilityPoolRegistry.collateralClaims,
		)
	})
	return stabilityPoolRegistry
}

func (m *StabilityPoolMetrics) ObserveDeposit(frontEnd string) {
	if m == nil {
		return
	}
	m.deposits.WithLabelValues(normaliseLabel(frontEnd)).Inc()
}

func (m *StabilityPoolMetrics) ObserveWithdrawal(gainOnly bool) {
	if m == nil {
		return
	}
	label := "false"
	if gainOnly {
		label = "true"
	}
	m.withdrawals.WithLabelValues(label).Inc()
}

func (m *StabilityPoolMetrics) ObserveOffset(debt, collateral float64, epochAdvanced, scaleAdvanced bool) {
	if m == nil {
		return
	}
	m.offsetsApplied.Inc()
	m.offsetDebt.Add(debt)
	m.offsetCollateral.Add(collateral)
	if epochAdvanced {
		m.epochAdvances.Inc()
	}
	if scaleAdvanced {
		m.scaleAdvances.Inc()
	}
}

func (m *StabilityPoolMetrics) SetProduct(p float64) {
	if m == nil {
		return
	}
	m.productValue.Set(p)
}

func (m *StabilityPoolMetrics) SetTotalDeposits(total float64) {
	if m == nil {
		return
	}
	m.totalDeposits.Set(total)
}

func (m *StabilityPoolMetrics) SetFURFIBalance(balance float64) {
	if m == nil {
		return
	}
	m.furfiBalance.Set(balance)
}

func (m *StabilityPoolMetrics) ObserveLOANIssued(amount float64) {
	if m == nil {
		return
	}
	m.loanIssued.Add(amount)
}

func (m *StabilityPoolMetrics) SetFrontEndsRegistered(count float64) {
	if m == nil {
		return
	}
	m.frontEndsTotal.Set(count)
}

func (m *StabilityPoolMetrics) SetLossErrorOffset(residue float64) {
	if m == nil {
		return
	}
	m.lossErrorOffset.Set(residue)
}

func (m *StabilityPoolMetrics) IncCollateralClaim(destination string) {
	if m == nil {
		return
	}
	m.collateralClaims.WithLabelValues(normaliseLabel(destination)).Inc()
}

func normaliseLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "none"
	}
	return strings.ToLower(trimmed)
}
