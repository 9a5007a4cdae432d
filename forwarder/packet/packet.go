// Package packet builds the AMP envelopes the forwarder hands to the kernel.
//
// The kernel routes every message of a packet to its recipient and keeps the lineage of the
// packet (who originated it, who relayed it last) so downstream contracts can attribute funds
// to the original requester. Only the parts the forwarder produces or consumes are modelled.
package packet

import (
	"encoding/json"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
)

// Context is the lineage carried by a packet
type Context struct {
	// Origin is the account that started the chain of messages
	Origin string `json:"origin"`
	// PreviousSender is the last contract or account that relayed the packet
	PreviousSender string `json:"previous_sender"`
	ID             uint64 `json:"id"`
}

// Message is a single routed message inside a packet
type Message struct {
	Recipient string         `json:"recipient"`
	Message   []byte         `json:"message"`
	Funds     []asset.Coin   `json:"funds"`
	Config    *MessageConfig `json:"config,omitempty"`
}

// MessageConfig holds the per message routing flags
type MessageConfig struct {
	ExitAtError bool `json:"exit_at_error"`
}

// Packet is a list of messages routed together under one lineage
type Packet struct {
	Messages []Message `json:"messages"`
	Context  Context   `json:"ctx"`
}

// NewContext creates a lineage context
func NewContext(origin, previousSender string, id uint64) Context {
	return Context{
		Origin:         origin,
		PreviousSender: previousSender,
		ID:             id,
	}
}

// NewPacket creates a packet with the given lineage
func NewPacket(origin, previousSender string, messages ...Message) *Packet {
	return &Packet{
		Messages: messages,
		Context:  NewContext(origin, previousSender, 0),
	}
}

// NewMessage creates a message. A nil payload is encoded as an empty message.
func NewMessage(recipient string, payload []byte, funds []asset.Coin) Message {
	if payload == nil {
		payload = []byte{}
	}
	return Message{
		Recipient: recipient,
		Message:   payload,
		Funds:     funds,
	}
}

// AddMessage appends a message and returns the packet for chaining
func (p *Packet) AddMessage(msg Message) *Packet {
	p.Messages = append(p.Messages, msg)
	return p
}

// Validate checks the packet is routable
func (p *Packet) Validate() error {
	if len(p.Messages) == 0 {
		return fmt.Errorf("packet has no messages")
	}
	if p.Context.Origin == "" {
		return fmt.Errorf("packet origin is required")
	}
	for i, msg := range p.Messages {
		if msg.Recipient == "" {
			return fmt.Errorf("message %d has no recipient", i)
		}
		for _, coin := range msg.Funds {
			if coin.Denom == "" || coin.Amount.IsNil() || !coin.Amount.IsPositive() {
				return fmt.Errorf("message %d carries invalid funds %q", i, coin.Denom)
			}
		}
	}
	return nil
}

// TotalFunds sums the funds of all messages per denom
func (p *Packet) TotalFunds() map[string]asset.Coin {
	total := make(map[string]asset.Coin)
	for _, msg := range p.Messages {
		for _, c := range msg.Funds {
			if prev, ok := total[c.Denom]; ok {
				total[c.Denom] = asset.Coin{Denom: c.Denom, Amount: prev.Amount.Add(c.Amount)}
				continue
			}
			total[c.Denom] = c
		}
	}
	return total
}

// KernelMsg is the execute message understood by the kernel contract
type KernelMsg struct {
	AMPReceive *Packet `json:"amp_receive"`
}

// ToJSON marshals the packet wrapped as a kernel amp_receive message
func (p *Packet) ToJSON() ([]byte, error) {
	return json.Marshal(&KernelMsg{AMPReceive: p})
}

// ParseKernelMsg decodes an amp_receive message
func ParseKernelMsg(data []byte) (*Packet, error) {
	var msg KernelMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode kernel message: %w", err)
	}
	if msg.AMPReceive == nil {
		return nil, fmt.Errorf("kernel message is not amp_receive")
	}
	return msg.AMPReceive, nil
}
