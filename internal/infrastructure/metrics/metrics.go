package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "kioskhub_"

	heartbeatResultOK       = "ok"
	heartbeatResultNotFound = "not_found"
	heartbeatResultError    = "error"
)

var (
	registerOnce sync.Once

	heartbeatsTotal    *prometheus.CounterVec
	commandsDelivered  *prometheus.CounterVec
	commandsEnqueued   *prometheus.CounterVec
	commandResults     *prometheus.CounterVec
	sessionTransitions *prometheus.CounterVec
	balanceCredits     *prometheus.CounterVec
	balanceCreditSum   *prometheus.CounterVec
)

// Init registers the dispatch and session metrics with the default registry.
// Recording functions are no-ops until Init has run.
func Init() {
	registerOnce.Do(func() {
		heartbeatsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "heartbeats_total",
				Help: "Total controller heartbeats by result",
			},
			[]string{"result"},
		)
		commandsDelivered = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_delivered_total",
				Help: "Commands handed to polling controllers by type",
			},
			[]string{"command_type"},
		)
		commandsEnqueued = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "commands_enqueued_total",
				Help: "Total enqueued commands by type",
			},
			[]string{"command_type"},
		)
		commandResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_results_total",
				Help: "Total command terminal transitions by status",
			},
			[]string{"status"},
		)
		sessionTransitions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "session_transitions_total",
				Help: "Wash session transitions by target status",
			},
			[]string{"status"},
		)
		balanceCredits = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "balance_credits_total",
				Help: "Kiosk balance credits by source",
			},
			[]string{"source"},
		)
		balanceCreditSum = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "balance_credited_amount_total",
				Help: "Sum of credited amounts by source",
			},
			[]string{"source"},
		)

		prometheus.MustRegister(
			heartbeatsTotal,
			commandsDelivered,
			commandsEnqueued,
			commandResults,
			sessionTransitions,
			balanceCredits,
			balanceCreditSum,
		)
	})
}

// IncHeartbeat increments the heartbeat counter.
func IncHeartbeat(result string) {
	if result == "" {
		result = heartbeatResultOK
	}
	if heartbeatsTotal != nil {
		heartbeatsTotal.WithLabelValues(result).Inc()
	}
}

func IncCommandDelivered(commandType string) {
	if commandsDelivered != nil {
		commandsDelivered.WithLabelValues(commandType).Inc()
	}
}

func IncCommandEnqueued(commandType string) {
	if commandType == "" {
		commandType = "unknown"
	}
	if commandsEnqueued != nil {
		commandsEnqueued.WithLabelValues(commandType).Inc()
	}
}

// AddCommandResults increments the terminal transition counter by count.
func AddCommandResults(status string, count int) {
	if count <= 0 {
		return
	}
	if commandResults != nil {
		commandResults.WithLabelValues(status).Add(float64(count))
	}
}

func IncSessionTransition(status string) {
	if sessionTransitions != nil {
		sessionTransitions.WithLabelValues(status).Inc()
	}
}

// ObserveBalanceCredit records one credit of amount from source.
func ObserveBalanceCredit(source string, amount float64) {
	if balanceCredits != nil {
		balanceCredits.WithLabelValues(source).Inc()
	}
	if balanceCreditSum != nil && amount > 0 {
		balanceCreditSum.WithLabelValues(source).Add(amount)
	}
}

// Exported constants for callers.
const (
	HeartbeatOK       = heartbeatResultOK
	HeartbeatNotFound = heartbeatResultNotFound
	HeartbeatError    = heartbeatResultError

	CommandResultCancelled = "cancelled"

	CreditSourceSession = "session"
	CreditSourceAdmin   = "admin_topup"
	CreditSourceDevice  = "device_payment"
)
