package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/packet"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
)

// Kernel routes AMP packets. Funds of each message are paid to its recipient; recipients
// that are contracts on the chain also get the message relayed as amp_receive.
type Kernel struct {
	mu      sync.RWMutex
	address string
	failure string
}

func NewKernel(addr string) *Kernel {
	return &Kernel{address: addr}
}

func (k *Kernel) Address() string { return k.address }

// FailWith makes every packet fail with reason, an empty reason restores delivery
func (k *Kernel) FailWith(reason string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.failure = reason
}

func (k *Kernel) execute(ctx context.Context, c *Chain, sender string, funds []asset.Coin, msg []byte) ([]contract.Event, error) {
	k.mu.RLock()
	failure := k.failure
	k.mu.RUnlock()
	if failure != "" {
		return nil, fmt.Errorf("kernel: %s", failure)
	}

	var hook token.HookMsg
	if err := json.Unmarshal(msg, &hook); err == nil && hook.Receive != nil {
		return k.routeTokens(ctx, c, sender, hook.Receive)
	}

	pkt, err := packet.ParseKernelMsg(msg)
	if err != nil {
		return nil, err
	}
	if err := pkt.Validate(); err != nil {
		return nil, err
	}
	if err := coversFunds(funds, pkt.TotalFunds()); err != nil {
		return nil, err
	}

	var events []contract.Event
	for _, m := range pkt.Messages {
		ev, err := k.deliver(ctx, c, sender, pkt.Context, m)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
	}
	return events, nil
}

// deliver pays or relays a single message with the lineage updated to the relaying sender.
// Recipients given as registered paths are resolved first.
func (k *Kernel) deliver(ctx context.Context, c *Chain, sender string, lineage packet.Context, m packet.Message) ([]contract.Event, error) {
	recipient, err := c.resolver.Resolve(ctx, m.Recipient)
	if err != nil {
		return nil, fmt.Errorf("kernel: invalid recipient: %w", err)
	}
	m.Recipient = recipient

	events := []contract.Event{contract.NewEvent("wasm",
		"_contract_address", k.address,
		"action", "handle_amp_packet",
		"origin", lineage.Origin,
		"recipient", m.Recipient,
		"funds", coinsString(m.Funds),
	)}

	if !c.isContract(m.Recipient) {
		if err := c.bank.SendCoins(k.address, m.Recipient, m.Funds); err != nil {
			return nil, err
		}
		return events, nil
	}

	relayed := packet.NewPacket(lineage.Origin, sender, m)
	relayed.Context.ID = lineage.ID
	data, err := relayed.ToJSON()
	if err != nil {
		return nil, err
	}
	nested, err := c.executeContract(ctx, k.address, m.Recipient, m.Funds, data)
	if err != nil {
		return nil, err
	}
	return append(events, nested...), nil
}

// routeTokens pays a token deposit to the recipient of the single message of the packet
func (k *Kernel) routeTokens(ctx context.Context, c *Chain, tokenAddr string, recv *token.ReceiveMsg) ([]contract.Event, error) {
	pkt, err := packet.ParseKernelMsg(recv.Msg)
	if err != nil {
		return nil, err
	}
	if err := pkt.Validate(); err != nil {
		return nil, err
	}
	if len(pkt.Messages) != 1 {
		return nil, fmt.Errorf("token packets must carry exactly one message")
	}
	recipient, err := c.resolver.Resolve(ctx, pkt.Messages[0].Recipient)
	if err != nil {
		return nil, fmt.Errorf("kernel: invalid recipient: %w", err)
	}
	if err := c.bank.Send(k.address, recipient, asset.TokenAsset(tokenAddr), recv.Amount); err != nil {
		return nil, err
	}
	return []contract.Event{contract.NewEvent("wasm",
		"_contract_address", k.address,
		"action", "handle_amp_packet",
		"origin", pkt.Context.Origin,
		"recipient", recipient,
		"funds", recv.Amount.String()+tokenAddr,
	)}, nil
}

func coversFunds(attached []asset.Coin, needed map[string]asset.Coin) error {
	if err := ValidateCoins(attached); err != nil {
		return err
	}
	have := make(map[string]math.Int, len(attached))
	for _, coin := range attached {
		if prev, ok := have[coin.Denom]; ok {
			have[coin.Denom] = prev.Add(coin.Amount)
			continue
		}
		have[coin.Denom] = coin.Amount
	}
	for denom, coin := range needed {
		got, ok := have[denom]
		if !ok || got.LT(coin.Amount) {
			return fmt.Errorf("packet requires %s, not attached", coin)
		}
	}
	return nil
}

func coinsString(coins []asset.Coin) string {
	out := ""
	for i, coin := range coins {
		if i > 0 {
			out += ","
		}
		out += coin.String()
	}
	return out
}
