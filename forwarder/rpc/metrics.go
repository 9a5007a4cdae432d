package rpc

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/host"
)

const meterName = "github.com/Cogwheel-Validator/spectra-forwarder/forwarder/rpc"

// Swap outcomes recorded by forwarderMetrics
const (
	outcomeRejected      = "rejected"
	outcomeSwapped       = "swapped"
	outcomeSwapFailed    = "swap_failed"
	outcomeForwarded     = "forwarded"
	outcomeForwardFailed = "forward_failed"
)

// forwarderMetrics counts swap outcomes through the global meter and exposes chain state
// as prometheus gauges on a registry owned by the server
type forwarderMetrics struct {
	outcomes metric.Int64Counter
	registry *prometheus.Registry
}

func newForwarderMetrics(chain *host.Chain) (*forwarderMetrics, error) {
	outcomes, err := otel.Meter(meterName).Int64Counter(
		"forwarder.swap.outcomes",
		metric.WithDescription("Swap-and-forward stages by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "forwarder",
			Name:      "queued_submessages",
			Help:      "Sub-messages waiting for manual delivery",
		}, func() float64 { return float64(chain.Queued()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "forwarder",
			Name:      "swap_pending",
			Help:      "1 while a swap is outstanding",
		}, func() float64 {
			if op, err := chain.PendingSwap(); err == nil && op != nil {
				return 1
			}
			return 0
		}),
	)
	return &forwarderMetrics{outcomes: outcomes, registry: registry}, nil
}

func (m *forwarderMetrics) record(ctx context.Context, outcome string) {
	m.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// observe records the outcome of every forwarder reply in a transaction
func (m *forwarderMetrics) observe(ctx context.Context, res *host.TxResult) {
	for _, receipt := range res.Receipts {
		switch receipt.ReplyID {
		case contract.SwapReplyID:
			if receipt.Error != "" {
				m.record(ctx, outcomeSwapFailed)
			} else {
				m.record(ctx, outcomeSwapped)
			}
		case contract.ForwardReplyID:
			if receipt.Error != "" {
				m.record(ctx, outcomeForwardFailed)
			} else {
				m.record(ctx, outcomeForwarded)
			}
		}
	}
}
