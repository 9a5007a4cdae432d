package contract

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/packet"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
)

// dispatchForward sends exactly the received amount to the forward address through the
// kernel and queues the completion under ForwardReplyID.
func (c *Contract) dispatchForward(ctx context.Context, env Env, op PendingSwap, outcome SwapOutcome) (*Response, error) {
	cfg, err := configItem.Load(c.storage)
	if err != nil {
		return nil, err
	}
	kernel, err := c.resolver.Resolve(ctx, cfg.KernelAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid kernel address: %w", err)
	}

	// Relayed triggers keep their lineage, direct ones originate here
	origin, previous := env.ContractAddress, env.ContractAddress
	if op.Correlation != nil {
		origin, previous = op.Correlation.Origin, op.Correlation.PreviousSender
	}

	var msg *WasmExecuteMsg
	dest := op.DestinationAsset
	if dest.IsNative() {
		funds := []asset.Coin{{Denom: dest.Denom(), Amount: outcome.Received}}
		pkt := packet.NewPacket(origin, previous, packet.NewMessage(op.ForwardAddress, op.ForwardPayload, funds))
		data, err := pkt.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode forward packet: %w", err)
		}
		msg = &WasmExecuteMsg{ContractAddr: kernel, Msg: data, Funds: funds}
	} else {
		pkt := packet.NewPacket(origin, previous, packet.NewMessage(op.ForwardAddress, op.ForwardPayload, nil))
		hook, err := pkt.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode forward packet: %w", err)
		}
		data, err := token.NewSend(kernel, outcome.Received, hook)
		if err != nil {
			return nil, err
		}
		msg = &WasmExecuteMsg{ContractAddr: dest.ContractAddress(), Msg: data}
	}

	resp := &Response{}
	resp.AddSubMessage(NewReplyAlways(CosmosMsg{Wasm: msg}, ForwardReplyID))
	resp.AddAttribute("action", "swap_and_forward").
		AddAttribute("dex", op.Venue.String())
	if dest.IsNative() {
		resp.AddAttribute("to_denom", dest.Denom())
	} else {
		resp.AddAttribute("to_asset", dest.ContractAddress())
	}
	resp.AddAttribute("to_amount", outcome.Received.String())
	if outcome.Spread != nil {
		resp.AddAttribute("spread_amount", outcome.Spread.String())
	}
	resp.AddAttribute("forward_addr", op.ForwardAddress).
		AddAttribute("refund_addr", op.RefundAddress).
		AddAttribute("kernel_address", kernel)

	log.Info().
		Str("dex", op.Venue.String()).
		Str("to", dest.String()).
		Str("amount", outcome.Received.String()).
		Str("forward_addr", op.ForwardAddress).
		Str("refund_addr", op.RefundAddress).
		Str("origin", origin).
		Msg("Forward dispatched")

	return resp, nil
}
