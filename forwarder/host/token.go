package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/token"
)

// TokenContract is a cw20 style token whose ledger lives in the chain bank
type TokenContract struct {
	address string
}

func NewTokenContract(addr string) *TokenContract {
	return &TokenContract{address: addr}
}

func (t *TokenContract) Address() string { return t.address }

// Asset returns the asset reference of this token
func (t *TokenContract) Asset() asset.Asset { return asset.TokenAsset(t.address) }

func (t *TokenContract) execute(ctx context.Context, c *Chain, sender string, funds []asset.Coin, msg []byte) ([]contract.Event, error) {
	if len(funds) > 0 {
		return nil, fmt.Errorf("token contract does not accept native funds")
	}
	exec, err := token.ParseExecuteMsg(msg)
	if err != nil {
		return nil, err
	}

	switch {
	case exec.Transfer != nil:
		if err := c.bank.Send(sender, exec.Transfer.Recipient, t.Asset(), exec.Transfer.Amount); err != nil {
			return nil, err
		}
		return []contract.Event{contract.NewEvent("wasm",
			"_contract_address", t.address,
			"action", "transfer",
			"from", sender,
			"to", exec.Transfer.Recipient,
			"amount", exec.Transfer.Amount.String(),
		)}, nil
	default:
		send := exec.Send
		if err := c.bank.Send(sender, send.Contract, t.Asset(), send.Amount); err != nil {
			return nil, err
		}
		hook, err := json.Marshal(token.HookMsg{Receive: &token.ReceiveMsg{
			Sender: sender,
			Amount: send.Amount,
			Msg:    send.Msg,
		}})
		if err != nil {
			return nil, fmt.Errorf("failed to encode receive hook: %w", err)
		}
		events := []contract.Event{contract.NewEvent("wasm",
			"_contract_address", t.address,
			"action", "send",
			"from", sender,
			"to", send.Contract,
			"amount", send.Amount.String(),
		)}
		nested, err := c.executeContract(ctx, t.address, send.Contract, nil, hook)
		if err != nil {
			return nil, err
		}
		return append(events, nested...), nil
	}
}
