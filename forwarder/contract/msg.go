package contract

import (
	"encoding/json"
	"time"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/packet"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/astroport"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/osmosis"
)

// Env describes the block and the contract an entry point runs in
type Env struct {
	ContractAddress string    `json:"contract_address"`
	BlockHeight     int64     `json:"block_height"`
	BlockTime       time.Time `json:"block_time"`
}

// MessageInfo is the direct caller of an execute entry point and the native funds it attached
type MessageInfo struct {
	Sender string       `json:"sender"`
	Funds  []asset.Coin `json:"funds"`
}

// InstantiateMsg configures a new contract instance
type InstantiateMsg struct {
	Owner         string                  `json:"owner,omitempty"`
	KernelAddress string                  `json:"kernel_address"`
	Routers       map[string]RouterConfig `json:"routers"`
}

// ExecuteMsg is the union of all execute messages. Exactly one field is set.
type ExecuteMsg struct {
	SwapAndForward   *SwapAndForwardMsg   `json:"swap_and_forward,omitempty"`
	Receive          *TokenReceiveMsg     `json:"receive,omitempty"`
	AMPReceive       *packet.Packet       `json:"amp_receive,omitempty"`
	UpdateSwapRouter *UpdateSwapRouterMsg `json:"update_swap_router,omitempty"`
}

// SwapAndForwardMsg swaps the attached deposit into ToAsset and forwards the output
type SwapAndForwardMsg struct {
	// Dex is the venue tag, "osmosis" or "astroport"
	Dex     string      `json:"dex"`
	ToAsset asset.Asset `json:"to_asset"`
	// ForwardAddr receives the output, defaults to the depositor
	ForwardAddr string `json:"forward_addr,omitempty"`
	// ForwardMsg is delivered alongside the output
	ForwardMsg  []byte       `json:"forward_msg,omitempty"`
	VenueParams *VenueParams `json:"venue_params,omitempty"`
}

// VenueParams carries the venue specific swap bounds, only the field of the chosen venue is read
type VenueParams struct {
	Osmosis   *OsmosisParams    `json:"osmosis,omitempty"`
	Astroport *astroport.Params `json:"astroport,omitempty"`
}

type OsmosisParams struct {
	Slippage osmosis.Slippage    `json:"slippage"`
	Route    []osmosis.SwapRoute `json:"route,omitempty"`
}

// TokenReceiveMsg is the receive hook of a token send. The hook payload must decode to
// TokenHookMsg.
type TokenReceiveMsg struct {
	Sender string          `json:"sender"`
	Amount math.Int        `json:"amount"`
	Msg    json.RawMessage `json:"msg"`
}

// TokenHookMsg is the payload of a token send to this contract
type TokenHookMsg struct {
	SwapAndForward *SwapAndForwardMsg `json:"swap_and_forward,omitempty"`
}

// UpdateSwapRouterMsg changes the router of one venue
type UpdateSwapRouterMsg struct {
	Dex    string       `json:"dex"`
	Router RouterConfig `json:"router"`
}
