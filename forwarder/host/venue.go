package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/astroport"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/osmosis"
)

// VenueMode controls how a simulated router answers swaps
type VenueMode int

const (
	// VenueNormal swaps at the configured rate
	VenueNormal VenueMode = iota
	// VenueFail rejects every swap
	VenueFail
	// VenueNoOutput reports success but pays nothing
	VenueNoOutput
	// VenueSilent pays normally but emits no swap events
	VenueSilent
)

// VenueSim is a fixed-rate DEX router speaking the wire format of one venue.
// Output is paid from the router's own balance, so it has to be funded.
type VenueSim struct {
	mu      sync.RWMutex
	kind    contract.Venue
	address string
	rates   map[string]decimal.Decimal
	// spread is the fraction of the ideal output withheld, reported by astroport only
	spread decimal.Decimal
	mode   VenueMode
}

// NewVenueSim creates a router simulator at addr
func NewVenueSim(kind contract.Venue, addr string) *VenueSim {
	return &VenueSim{
		kind:    kind,
		address: addr,
		rates:   make(map[string]decimal.Decimal),
		spread:  decimal.Zero,
	}
}

func (v *VenueSim) Kind() contract.Venue { return v.kind }

func (v *VenueSim) Address() string { return v.address }

// SetRate sets how many units of to one unit of from buys
func (v *VenueSim) SetRate(from, to asset.Asset, rate decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rates[pairKey(from, to)] = rate
}

// SetSpread sets the fraction of the output withheld as spread
func (v *VenueSim) SetSpread(spread decimal.Decimal) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spread = spread
}

func (v *VenueSim) SetMode(mode VenueMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = mode
}

// Quote returns the output and spread for swapping amount of from into to
func (v *VenueSim) Quote(from, to asset.Asset, amount math.Int) (math.Int, math.Int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	rate, ok := v.rates[pairKey(from, to)]
	if !ok {
		return math.Int{}, math.Int{}, fmt.Errorf("no pool for %s -> %s", from, to)
	}
	ideal := decimal.NewFromBigInt(amount.BigInt(), 0).Mul(rate).Floor()
	spread := ideal.Mul(v.spread).Floor()
	out := ideal.Sub(spread)
	return math.NewIntFromBigInt(out.BigInt()), math.NewIntFromBigInt(spread.BigInt()), nil
}

// swapRequest is a decoded swap in venue neutral form
type swapRequest struct {
	from      asset.Asset
	to        asset.Asset
	amount    math.Int
	recipient string
	minOut    *math.Int
	maxSpread *decimal.Decimal
}

func (v *VenueSim) execute(_ context.Context, c *Chain, sender string, funds []asset.Coin, msg []byte) ([]contract.Event, error) {
	v.mu.RLock()
	mode := v.mode
	v.mu.RUnlock()

	if mode == VenueFail {
		return nil, fmt.Errorf("%s router: swap rejected", v.kind)
	}

	var req *swapRequest
	var err error
	switch v.kind {
	case contract.VenueOsmosis:
		req, err = decodeOsmosisSwap(sender, funds, msg)
	case contract.VenueAstroport:
		req, err = decodeAstroportSwap(sender, funds, msg)
	default:
		err = fmt.Errorf("unknown venue %s", v.kind)
	}
	if err != nil {
		return nil, err
	}

	out, spread, err := v.Quote(req.from, req.to, req.amount)
	if err != nil {
		return nil, err
	}
	if req.minOut != nil && out.LT(*req.minOut) {
		return nil, fmt.Errorf("slippage tolerance exceeded: %s < %s", out, req.minOut)
	}
	if req.maxSpread != nil && out.Add(spread).IsPositive() {
		ratio := decimal.NewFromBigInt(spread.BigInt(), 0).Div(decimal.NewFromBigInt(out.Add(spread).BigInt(), 0))
		if ratio.GreaterThan(*req.maxSpread) {
			return nil, fmt.Errorf("operation exceeds max spread limit")
		}
	}

	if mode == VenueNoOutput {
		out, spread = math.ZeroInt(), math.ZeroInt()
	} else if err := c.bank.Send(v.address, req.recipient, req.to, out); err != nil {
		return nil, fmt.Errorf("insufficient liquidity: %w", err)
	}

	log.Debug().
		Str("venue", v.kind.String()).
		Str("from", req.from.String()).
		Str("to", req.to.String()).
		Str("in", req.amount.String()).
		Str("out", out.String()).
		Msg("Swap executed")

	if mode == VenueSilent {
		return nil, nil
	}
	return []contract.Event{v.swapEvent(req, out, spread)}, nil
}

func (v *VenueSim) swapEvent(req *swapRequest, out, spread math.Int) contract.Event {
	if v.kind == contract.VenueOsmosis {
		return contract.NewEvent(osmosis.EventNamespace,
			"_contract_address", v.address,
			"token_in", req.amount.String()+req.from.Value(),
			osmosis.TokenOutAmountKey, out.String(),
		)
	}
	return contract.NewEvent(astroport.EventNamespace,
		"_contract_address", v.address,
		"action", "swap",
		"offer_asset", req.from.Value(),
		"ask_asset", req.to.Value(),
		"offer_amount", req.amount.String(),
		astroport.ReturnAmountKey, out.String(),
		astroport.SpreadAmountKey, spread.String(),
	)
}

func decodeOsmosisSwap(sender string, funds []asset.Coin, msg []byte) (*swapRequest, error) {
	swap, err := osmosis.ParseExecuteMsg(msg)
	if err != nil {
		return nil, err
	}
	if len(funds) != 1 || funds[0].Denom != swap.InputCoin.Denom || !funds[0].Amount.Equal(swap.InputCoin.Amount) {
		return nil, fmt.Errorf("funds do not match input coin %s", swap.InputCoin)
	}
	if err := swap.Slippage.Validate(); err != nil {
		return nil, err
	}
	return &swapRequest{
		from:      asset.NativeAsset(swap.InputCoin.Denom),
		to:        asset.NativeAsset(swap.OutputDenom),
		amount:    swap.InputCoin.Amount,
		recipient: sender,
		minOut:    swap.Slippage.MinOutputAmount,
	}, nil
}

// decodeAstroportSwap accepts a native swap or a token receive hook wrapping one
func decodeAstroportSwap(sender string, funds []asset.Coin, msg []byte) (*swapRequest, error) {
	var hook token.HookMsg
	if err := json.Unmarshal(msg, &hook); err == nil && hook.Receive != nil {
		if len(funds) > 0 {
			return nil, fmt.Errorf("native funds attached to token swap")
		}
		ops, err := astroport.ParseExecuteMsg(hook.Receive.Msg)
		if err != nil {
			return nil, err
		}
		req, err := astroportRequest(ops, hook.Receive.Sender)
		if err != nil {
			return nil, err
		}
		if !req.from.Equal(asset.TokenAsset(sender)) {
			return nil, fmt.Errorf("offer asset %s does not match sent token %s", req.from, sender)
		}
		req.amount = hook.Receive.Amount
		return req, nil
	}

	ops, err := astroport.ParseExecuteMsg(msg)
	if err != nil {
		return nil, err
	}
	req, err := astroportRequest(ops, sender)
	if err != nil {
		return nil, err
	}
	if len(funds) != 1 || !req.from.IsNative() || funds[0].Denom != req.from.Denom() {
		return nil, fmt.Errorf("funds do not match offer asset %s", req.from)
	}
	req.amount = funds[0].Amount
	return req, nil
}

func astroportRequest(ops *astroport.ExecuteSwapOperations, sender string) (*swapRequest, error) {
	first, last := ops.Operations[0].AstroSwap, ops.Operations[len(ops.Operations)-1].AstroSwap
	if first == nil || last == nil {
		return nil, fmt.Errorf("only astro_swap operations are supported")
	}
	from, err := first.OfferAssetInfo.ToAsset()
	if err != nil {
		return nil, err
	}
	to, err := last.AskAssetInfo.ToAsset()
	if err != nil {
		return nil, err
	}
	recipient := sender
	if ops.To != nil && *ops.To != "" {
		recipient = *ops.To
	}
	return &swapRequest{
		from:      from,
		to:        to,
		recipient: recipient,
		minOut:    ops.MinimumReceive,
		maxSpread: ops.MaxSpread,
	}, nil
}

func pairKey(from, to asset.Asset) string {
	return from.Key() + ">" + to.Key()
}
