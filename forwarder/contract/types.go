package contract

import (
	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/packet"
)

// PendingSwap marks an asynchronous swap as outstanding. At most one exists at a time.
type PendingSwap struct {
	ForwardAddress string `json:"forward_address"`
	// RefundAddress is informational, nothing refunds automatically
	RefundAddress  string        `json:"refund_address"`
	ForwardPayload []byte        `json:"forward_payload,omitempty"`
	Venue          Venue         `json:"venue"`
	Strategy       ReplyStrategy `json:"strategy"`
	SourceAsset    asset.Asset   `json:"source_asset"`
	// SourceAmount is the full deposit handed to the venue
	SourceAmount     math.Int    `json:"source_amount"`
	DestinationAsset asset.Asset `json:"destination_asset"`
	// Correlation is the lineage of a relayed trigger, nil for direct triggers
	Correlation *packet.Context `json:"correlation,omitempty"`
}

// RouterConfig is the router a venue swaps through
type RouterConfig struct {
	// Address may be a bech32 address or a registered path
	Address  string        `json:"address"`
	Strategy ReplyStrategy `json:"strategy,omitempty"`
}

// Config is the persisted contract configuration
type Config struct {
	Owner         string                  `json:"owner"`
	KernelAddress string                  `json:"kernel_address"`
	Routers       map[string]RouterConfig `json:"routers"`
}

// strategyFor returns the configured strategy or the venue default
func (c Config) strategyFor(v Venue) ReplyStrategy {
	if r, ok := c.Routers[v.String()]; ok && r.Strategy != "" {
		return r.Strategy
	}
	return v.DefaultStrategy()
}

// SwapOutcome is the canonical result of interpreting a swap completion
type SwapOutcome struct {
	Received math.Int
	// Spread is set only by venues that report it
	Spread *math.Int
}
