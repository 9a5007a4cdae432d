// Package osmosis provides the Osmosis swaprouter wire format used by the forwarder.
// The router only swaps native denominations; pools are addressed by id.
package osmosis

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
)

const (
	// VenueName is the venue tag accepted in trigger messages
	VenueName = "osmosis"

	// EventNamespace is the event type the swaprouter writes its attributes under
	EventNamespace = "wasm"
	// TokenOutAmountKey carries the amount received from the swap
	TokenOutAmountKey = "token_out_amount"
)

// ExecuteMsg is the swaprouter execute message
type ExecuteMsg struct {
	Swap *SwapMsg `json:"swap,omitempty"`
}

// SwapMsg swaps the whole input coin into OutputDenom
type SwapMsg struct {
	InputCoin   asset.Coin  `json:"input_coin"`
	OutputDenom string      `json:"output_denom"`
	Slippage    Slippage    `json:"slippage"`
	Route       []SwapRoute `json:"route,omitempty"`
}

// Slippage is a union of a TWAP based tolerance and a fixed minimum output
type Slippage struct {
	Twap            *Twap     `json:"twap,omitempty"`
	MinOutputAmount *math.Int `json:"min_output_amount,omitempty"`
}

// Twap bounds the output by a time weighted price.
// SlippagePercentage is a percentage, "5" means 5%.
type Twap struct {
	WindowSeconds      *uint64         `json:"window_seconds,omitempty"`
	SlippagePercentage decimal.Decimal `json:"slippage_percentage"`
}

// SwapRoute is a single pool hop
type SwapRoute struct {
	PoolID        uint64 `json:"pool_id"`
	TokenOutDenom string `json:"token_out_denom"`
}

// NewTwapSlippage creates a TWAP slippage tolerance
func NewTwapSlippage(percentage decimal.Decimal, windowSeconds *uint64) Slippage {
	return Slippage{
		Twap: &Twap{
			WindowSeconds:      windowSeconds,
			SlippagePercentage: percentage,
		},
	}
}

// NewMinOutputSlippage creates a fixed minimum output tolerance
func NewMinOutputSlippage(minOutput math.Int) Slippage {
	return Slippage{MinOutputAmount: &minOutput}
}

// Validate checks that exactly one tolerance is set and that it is sane
func (s Slippage) Validate() error {
	switch {
	case s.Twap != nil && s.MinOutputAmount != nil:
		return fmt.Errorf("slippage must set only one of twap or min_output_amount")
	case s.Twap != nil:
		pct := s.Twap.SlippagePercentage
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("slippage percentage must be between 0 and 100, got %s", pct)
		}
	case s.MinOutputAmount != nil:
		if s.MinOutputAmount.IsNil() || s.MinOutputAmount.IsNegative() {
			return fmt.Errorf("min output amount must not be negative")
		}
	default:
		return fmt.Errorf("slippage is required")
	}
	return nil
}

// BuildSwapMsg builds the swaprouter message for swapping the full deposit
func BuildSwapMsg(from asset.Asset, amount math.Int, to asset.Asset, slippage Slippage, route []SwapRoute) ([]byte, []asset.Coin, error) {
	if !from.IsNative() || !to.IsNative() {
		return nil, nil, fmt.Errorf("osmosis swaprouter supports native denominations only")
	}
	if err := slippage.Validate(); err != nil {
		return nil, nil, err
	}
	if len(route) > 0 && route[len(route)-1].TokenOutDenom != to.Denom() {
		return nil, nil, fmt.Errorf("route ends in %s, expected %s", route[len(route)-1].TokenOutDenom, to.Denom())
	}

	input := asset.Coin{Denom: from.Denom(), Amount: amount}
	msg := ExecuteMsg{
		Swap: &SwapMsg{
			InputCoin:   input,
			OutputDenom: to.Denom(),
			Slippage:    slippage,
			Route:       route,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode osmosis swap: %w", err)
	}
	return data, []asset.Coin{input}, nil
}

// ParseExecuteMsg decodes a swaprouter execute message
func ParseExecuteMsg(data []byte) (*SwapMsg, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode osmosis message: %w", err)
	}
	if msg.Swap == nil {
		return nil, fmt.Errorf("unsupported osmosis message")
	}
	return msg.Swap, nil
}
