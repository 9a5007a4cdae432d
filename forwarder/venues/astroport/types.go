// Package astroport provides the Astroport router wire format used by the forwarder.
//
// Native deposits are sent to the router with funds attached. Token deposits are sent to the
// token contract as a `send` whose hook message is the router's swap instruction.
package astroport

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
)

const (
	VenueName = "astroport"

	EventNamespace = "wasm"
	// ReturnAmountKey carries the amount received from the swap
	ReturnAmountKey = "return_amount"
	// SpreadAmountKey carries the amount lost to spread
	SpreadAmountKey = "spread_amount"
)

// AssetInfo identifies an asset on the Astroport router
type AssetInfo struct {
	Token       *TokenInfo  `json:"token,omitempty"`
	NativeToken *NativeInfo `json:"native_token,omitempty"`
}

type TokenInfo struct {
	ContractAddr string `json:"contract_addr"`
}

type NativeInfo struct {
	Denom string `json:"denom"`
}

// NewAssetInfo converts a forwarder asset into router asset info
func NewAssetInfo(a asset.Asset) AssetInfo {
	if a.IsToken() {
		return AssetInfo{Token: &TokenInfo{ContractAddr: a.ContractAddress()}}
	}
	return AssetInfo{NativeToken: &NativeInfo{Denom: a.Denom()}}
}

// ToAsset converts router asset info back into a forwarder asset
func (i AssetInfo) ToAsset() (asset.Asset, error) {
	switch {
	case i.Token != nil && i.NativeToken == nil:
		return asset.TokenAsset(i.Token.ContractAddr), nil
	case i.NativeToken != nil && i.Token == nil:
		return asset.NativeAsset(i.NativeToken.Denom), nil
	default:
		return asset.Asset{}, fmt.Errorf("asset info must set exactly one of token or native_token")
	}
}

// SwapOperation is a single router hop
type SwapOperation struct {
	AstroSwap *AstroSwap `json:"astro_swap,omitempty"`
}

type AstroSwap struct {
	OfferAssetInfo AssetInfo `json:"offer_asset_info"`
	AskAssetInfo   AssetInfo `json:"ask_asset_info"`
}

// ExecuteSwapOperations is shared by the router execute message and the token hook message
type ExecuteSwapOperations struct {
	Operations     []SwapOperation  `json:"operations"`
	To             *string          `json:"to,omitempty"`
	MaxSpread      *decimal.Decimal `json:"max_spread,omitempty"`
	MinimumReceive *math.Int        `json:"minimum_receive,omitempty"`
}

// ExecuteMsg is the router execute message, also used as the token hook payload
type ExecuteMsg struct {
	ExecuteSwapOperations *ExecuteSwapOperations `json:"execute_swap_operations,omitempty"`
}

// Params are the caller supplied swap bounds
type Params struct {
	// MaxSpread equals slippage tolerance / 100
	MaxSpread      *decimal.Decimal `json:"max_spread,omitempty"`
	MinimumReceive *math.Int        `json:"minimum_receive,omitempty"`
}

// Validate checks the bounds
func (p Params) Validate() error {
	if p.MaxSpread != nil && (p.MaxSpread.IsNegative() || p.MaxSpread.GreaterThan(decimal.NewFromInt(1))) {
		return fmt.Errorf("max spread must be between 0 and 1, got %s", p.MaxSpread)
	}
	if p.MinimumReceive != nil && (p.MinimumReceive.IsNil() || p.MinimumReceive.IsNegative()) {
		return fmt.Errorf("minimum receive must not be negative")
	}
	return nil
}

// Request is the outbound message the forwarder dispatches
type Request struct {
	// Contract is the contract the message is executed on: the router for native
	// deposits, the token contract for token deposits
	Contract string
	Msg      []byte
	Funds    []asset.Coin
}

// BuildSwapRequest builds the router request for swapping the full deposit
func BuildSwapRequest(router string, from asset.Asset, amount math.Int, to asset.Asset, params Params) (*Request, error) {
	if router == "" {
		return nil, fmt.Errorf("astroport router address not configured")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	swap := &ExecuteSwapOperations{
		Operations: []SwapOperation{{
			AstroSwap: &AstroSwap{
				OfferAssetInfo: NewAssetInfo(from),
				AskAssetInfo:   NewAssetInfo(to),
			},
		}},
		MaxSpread:      params.MaxSpread,
		MinimumReceive: params.MinimumReceive,
	}
	swapMsg, err := json.Marshal(ExecuteMsg{ExecuteSwapOperations: swap})
	if err != nil {
		return nil, fmt.Errorf("failed to encode astroport swap: %w", err)
	}

	if from.IsNative() {
		return &Request{
			Contract: router,
			Msg:      swapMsg,
			Funds:    []asset.Coin{{Denom: from.Denom(), Amount: amount}},
		}, nil
	}

	send, err := token.NewSend(router, amount, swapMsg)
	if err != nil {
		return nil, err
	}
	return &Request{
		Contract: from.ContractAddress(),
		Msg:      send,
	}, nil
}

// ParseExecuteMsg decodes a router execute or hook message
func ParseExecuteMsg(data []byte) (*ExecuteSwapOperations, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode astroport message: %w", err)
	}
	if msg.ExecuteSwapOperations == nil || len(msg.ExecuteSwapOperations.Operations) == 0 {
		return nil, fmt.Errorf("astroport message has no swap operations")
	}
	return msg.ExecuteSwapOperations, nil
}
