package rpc

import (
	"encoding/json"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
)

// ExecuteRequest runs Msg on Contract, the forwarder when Contract is empty
type ExecuteRequest struct {
	Sender   string          `json:"sender"`
	Contract string          `json:"contract,omitempty"`
	Funds    []asset.Coin    `json:"funds,omitempty"`
	Msg      json.RawMessage `json:"msg"`
}

// MintRequest credits an account, Asset uses the "native:" or "cw20:" form
type MintRequest struct {
	Address string   `json:"address"`
	Asset   string   `json:"asset"`
	Amount  math.Int `json:"amount"`
}

type PendingResponse struct {
	Pending *contract.PendingSwap `json:"pending"`
	Queued  int                   `json:"queued"`
}

type BalancesResponse struct {
	Address  string         `json:"address"`
	Balances []asset.Amount `json:"balances"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
