package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/packet"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/astroport"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/venues/osmosis"
)

// swapTrigger is a validated deposit plus the request that came with it
type swapTrigger struct {
	// sender is the depositor, or the packet origin for relayed triggers
	sender      string
	deposit     asset.Amount
	msg         SwapAndForwardMsg
	correlation *packet.Context
}

// executeAMPReceive handles a trigger relayed through the kernel. The packet lineage is kept
// so the forward is attributed to the original requester.
func (c *Contract) executeAMPReceive(ctx context.Context, env Env, info MessageInfo, msg ExecuteMsg) (*Response, error) {
	pkt := msg.AMPReceive
	cfg, err := configItem.Load(c.storage)
	if err != nil {
		return nil, err
	}
	kernel, err := c.resolver.Resolve(ctx, cfg.KernelAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid kernel address: %w", err)
	}
	if info.Sender != kernel {
		return nil, fmt.Errorf("%w: relayed messages must come from the kernel", ErrUnauthorized)
	}
	if err := pkt.Validate(); err != nil {
		return nil, err
	}

	var ours []packet.Message
	for _, m := range pkt.Messages {
		if m.Recipient == env.ContractAddress {
			ours = append(ours, m)
		}
	}
	switch len(ours) {
	case 0:
		return nil, fmt.Errorf("packet has no message for %s", env.ContractAddress)
	case 1:
	default:
		return nil, fmt.Errorf("%w: packet carries %d swaps, only one may be pending", ErrUnauthorized, len(ours))
	}

	var inner ExecuteMsg
	if err := json.Unmarshal(ours[0].Message, &inner); err != nil {
		return nil, fmt.Errorf("failed to decode relayed message: %w", err)
	}
	if inner.SwapAndForward == nil {
		return nil, fmt.Errorf("relayed message is not swap_and_forward")
	}
	deposit, err := oneCoin(ours[0].Funds)
	if err != nil {
		return nil, err
	}

	lineage := pkt.Context
	return c.initiateSwap(ctx, env, swapTrigger{
		sender:      lineage.Origin,
		deposit:     deposit,
		msg:         *inner.SwapAndForward,
		correlation: &lineage,
	})
}

// initiateSwap validates the trigger, arms the guard and emits the swap sub-operation.
// Everything that can fail is done before the guard is written.
func (c *Contract) initiateSwap(ctx context.Context, env Env, t swapTrigger) (*Response, error) {
	if t.deposit.Amount.IsNil() || !t.deposit.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: invalid or missing coin", ErrInvalidAsset)
	}
	venue, err := ParseVenue(t.msg.Dex)
	if err != nil {
		return nil, err
	}
	if t.msg.ToAsset.IsZero() {
		return nil, fmt.Errorf("%w: destination asset is required", ErrInvalidAsset)
	}
	if t.deposit.Asset.Equal(t.msg.ToAsset) {
		return nil, fmt.Errorf("%w: cannot swap %s into itself", ErrDuplicateTokens, t.deposit.Asset)
	}
	if c.guard.Active() {
		return nil, fmt.Errorf("%w: a swap is already pending", ErrUnauthorized)
	}

	cfg, err := configItem.Load(c.storage)
	if err != nil {
		return nil, err
	}
	routerCfg, ok := cfg.Routers[venue.String()]
	if !ok {
		return nil, fmt.Errorf("%w: no router configured for %s", ErrUnsupportedVenue, venue)
	}
	router, err := c.resolver.Resolve(ctx, routerCfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid router address for %s: %w", venue, err)
	}

	forwardAddr := t.msg.ForwardAddr
	if forwardAddr == "" {
		forwardAddr = t.sender
	}
	if _, err := c.resolver.Resolve(ctx, forwardAddr); err != nil {
		return nil, fmt.Errorf("invalid forward address: %w", err)
	}

	swapMsg, err := buildVenueRequest(venue, router, t)
	if err != nil {
		return nil, err
	}

	strategy := cfg.strategyFor(venue)
	var preSwap *math.Int
	if strategy == StrategyBalanceDiff {
		balance, err := c.querier.QueryBalance(ctx, env.ContractAddress, t.msg.ToAsset)
		if err != nil {
			return nil, fmt.Errorf("failed to query pre-swap balance: %w", err)
		}
		preSwap = &balance
	}

	op := PendingSwap{
		ForwardAddress:   forwardAddr,
		RefundAddress:    t.sender,
		ForwardPayload:   t.msg.ForwardMsg,
		Venue:            venue,
		Strategy:         strategy,
		SourceAsset:      t.deposit.Asset,
		SourceAmount:     t.deposit.Amount,
		DestinationAsset: t.msg.ToAsset,
		Correlation:      t.correlation,
	}
	if err := c.guard.Begin(op); err != nil {
		return nil, err
	}
	if preSwap != nil {
		if err := snapshotBalance(c.storage, *preSwap); err != nil {
			c.guard.End()
			return nil, err
		}
	}

	log.Info().
		Str("dex", venue.String()).
		Str("from", t.deposit.Asset.String()).
		Str("amount", t.deposit.Amount.String()).
		Str("to", t.msg.ToAsset.String()).
		Str("forward_addr", forwardAddr).
		Bool("relayed", t.correlation != nil).
		Msg("Swap dispatched")

	resp := &Response{}
	resp.AddSubMessage(NewReplyAlways(CosmosMsg{Wasm: swapMsg}, SwapReplyID))
	return resp, nil
}

// buildVenueRequest builds the venue specific swap instruction carrying the full deposit
func buildVenueRequest(venue Venue, router string, t swapTrigger) (*WasmExecuteMsg, error) {
	var params VenueParams
	if t.msg.VenueParams != nil {
		params = *t.msg.VenueParams
	}

	switch venue {
	case VenueOsmosis:
		if !t.deposit.Asset.IsNative() || !t.msg.ToAsset.IsNative() {
			return nil, fmt.Errorf("%w: osmosis swaps native denominations only", ErrInvalidAsset)
		}
		if params.Osmosis == nil {
			return nil, fmt.Errorf("%w: osmosis slippage is required", ErrInvalidVenueParams)
		}
		data, funds, err := osmosis.BuildSwapMsg(t.deposit.Asset, t.deposit.Amount, t.msg.ToAsset, params.Osmosis.Slippage, params.Osmosis.Route)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVenueParams, err)
		}
		return &WasmExecuteMsg{ContractAddr: router, Msg: data, Funds: funds}, nil
	case VenueAstroport:
		var p astroport.Params
		if params.Astroport != nil {
			p = *params.Astroport
		}
		req, err := astroport.BuildSwapRequest(router, t.deposit.Asset, t.deposit.Amount, t.msg.ToAsset, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVenueParams, err)
		}
		return &WasmExecuteMsg{ContractAddr: req.Contract, Msg: req.Msg, Funds: req.Funds}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVenue, venue)
	}
}
