package observability

import (
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"swaplock/native/htlc"
)

type escrowMetrics struct {
	operations   *prometheus.CounterVec
	failures     *prometheus.CounterVec
	settledValue *prometheus.CounterVec
	rpcRequests  *prometheus.CounterVec
}

var (
	escrowMetricsOnce sync.Once
	escrowRegistry    *escrowMetrics
)

// EscrowMetrics returns the lazily-initialised metrics registry tracking
// escrow engine activity.
func EscrowMetrics() *escrowMetrics {
	escrowMetricsOnce.Do(func() {
		escrowRegistry = &escrowMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swaplock",
				Subsystem: "escrow",
				Name:      "operations_total",
				Help:      "Count of escrow operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swaplock",
				Subsystem: "escrow",
				Name:      "failures_total",
				Help:      "Count of escrow operation failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
			settledValue: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "swaplock",
				Subsystem: "escrow",
				Name:      "settled_value_total",
				Help:      "Total value leaving custody, segmented by settling operation and asset.",
			}, []string{"operation", "asset"}),
		}
		escrowRegistry.rpcRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swaplock",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total JSON-RPC requests segmented by method.",
		}, []string{"method"})
		prometheus.MustRegister(
			escrowRegistry.operations,
			escrowRegistry.failures,
			escrowRegistry.settledValue,
			escrowRegistry.rpcRequests,
		)
	})
	return escrowRegistry
}

// CountRPCRequest increments the request counter for a JSON-RPC method.
func CountRPCRequest(method string) {
	m := EscrowMetrics()
	if method == "" {
		method = "unknown"
	}
	m.rpcRequests.WithLabelValues(method).Inc()
}

// ObserveEscrowOp records the outcome of one escrow operation. Failure
// reasons are mapped onto the protocol's sentinel errors so cardinality stays
// bounded.
func ObserveEscrowOp(operation string, err error) {
	m := EscrowMetrics()
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.failures.WithLabelValues(op, failureReason(err)).Inc()
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

// ObserveSettledValue adds the amount a settling operation (redeem, uncommit,
// unlock) moved out of custody. Precision loss in the float conversion is
// acceptable for a monitoring counter.
func ObserveSettledValue(operation, asset string, amount *big.Int) {
	m := EscrowMetrics()
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	if asset == "" {
		asset = "unknown"
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.settledValue.WithLabelValues(operation, asset).Add(value)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, htlc.ErrNotFound):
		return "not_found"
	case errors.Is(err, htlc.ErrNotFutureTimelock):
		return "timelock_not_future"
	case errors.Is(err, htlc.ErrNotPastTimelock):
		return "timelock_not_past"
	case errors.Is(err, htlc.ErrFundsNotSent):
		return "funds_not_sent"
	case errors.Is(err, htlc.ErrIDInUse):
		return "id_in_use"
	case errors.Is(err, htlc.ErrAlreadyRedeemed):
		return "already_redeemed"
	case errors.Is(err, htlc.ErrAlreadyUnlocked):
		return "already_unlocked"
	case errors.Is(err, htlc.ErrAlreadyLocked):
		return "already_locked"
	case errors.Is(err, htlc.ErrAlreadyUncommitted):
		return "already_uncommitted"
	case errors.Is(err, htlc.ErrHashlockNoMatch):
		return "hashlock_no_match"
	case errors.Is(err, htlc.ErrHashlockNotSet):
		return "hashlock_not_set"
	case errors.Is(err, htlc.ErrHashlockAlreadySet):
		return "hashlock_already_set"
	case errors.Is(err, htlc.ErrNotSender):
		return "not_sender"
	case errors.Is(err, htlc.ErrNotReceiver):
		return "not_receiver"
	case errors.Is(err, htlc.ErrUnauthorizedAccess):
		return "unauthorized"
	case errors.Is(err, htlc.ErrInvalidAsset):
		return "invalid_asset"
	case errors.Is(err, htlc.ErrInsufficientFunds):
		return "insufficient_funds"
	default:
		return "internal"
	}
}
