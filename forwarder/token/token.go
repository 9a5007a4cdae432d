// Package token holds the subset of the cw20 token contract interface the forwarder speaks:
// plain transfers, send-with-hook, and the receive hook envelope delivered to contracts.
package token

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"
)

// ExecuteMsg is a token contract execute message
type ExecuteMsg struct {
	Send     *Send     `json:"send,omitempty"`
	Transfer *Transfer `json:"transfer,omitempty"`
}

// Send moves tokens to a contract and invokes its receive hook with Msg
type Send struct {
	Contract string          `json:"contract"`
	Amount   math.Int        `json:"amount"`
	Msg      json.RawMessage `json:"msg"`
}

// Transfer moves tokens to an account without a hook
type Transfer struct {
	Recipient string   `json:"recipient"`
	Amount    math.Int `json:"amount"`
}

// ReceiveMsg is what a contract gets when tokens are sent to it.
// Sender is the account that called send, the token contract is the message sender.
type ReceiveMsg struct {
	Sender string          `json:"sender"`
	Amount math.Int        `json:"amount"`
	Msg    json.RawMessage `json:"msg"`
}

// HookMsg wraps ReceiveMsg the way it is delivered to the receiving contract
type HookMsg struct {
	Receive *ReceiveMsg `json:"receive"`
}

// NewSend encodes a send-with-hook message
func NewSend(contract string, amount math.Int, hook []byte) ([]byte, error) {
	data, err := json.Marshal(ExecuteMsg{
		Send: &Send{
			Contract: contract,
			Amount:   amount,
			Msg:      hook,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token send: %w", err)
	}
	return data, nil
}

// NewTransfer encodes a plain transfer message
func NewTransfer(recipient string, amount math.Int) ([]byte, error) {
	data, err := json.Marshal(ExecuteMsg{
		Transfer: &Transfer{
			Recipient: recipient,
			Amount:    amount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token transfer: %w", err)
	}
	return data, nil
}

// ParseExecuteMsg decodes a token contract execute message
func ParseExecuteMsg(data []byte) (*ExecuteMsg, error) {
	var msg ExecuteMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode token message: %w", err)
	}
	if msg.Send == nil && msg.Transfer == nil {
		return nil, fmt.Errorf("unsupported token message")
	}
	return &msg, nil
}
