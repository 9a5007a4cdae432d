package contract

import (
	"encoding/json"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
)

// ReplyID correlates an asynchronous completion with the sub-operation that caused it
type ReplyID uint64

const (
	SwapReplyID    ReplyID = 1
	ForwardReplyID ReplyID = 2
)

// ReplyOn selects when the host reports a sub-operation back to the contract
type ReplyOn string

const (
	ReplyAlways  ReplyOn = "always"
	ReplySuccess ReplyOn = "success"
	ReplyError   ReplyOn = "error"
	ReplyNever   ReplyOn = "never"
)

// WasmExecuteMsg executes Msg on ContractAddr with Funds attached
type WasmExecuteMsg struct {
	ContractAddr string          `json:"contract_addr"`
	Msg          json.RawMessage `json:"msg"`
	Funds        []asset.Coin    `json:"funds"`
}

// CosmosMsg is a message the host executes on behalf of the contract
type CosmosMsg struct {
	Wasm *WasmExecuteMsg `json:"wasm,omitempty"`
}

// SubMsg is a CosmosMsg whose outcome is reported back through Reply
type SubMsg struct {
	ID      ReplyID   `json:"id"`
	Msg     CosmosMsg `json:"msg"`
	ReplyOn ReplyOn   `json:"reply_on"`
}

// NewReplyAlways wraps msg so the host replies on success and on failure
func NewReplyAlways(msg CosmosMsg, id ReplyID) SubMsg {
	return SubMsg{ID: id, Msg: msg, ReplyOn: ReplyAlways}
}

// Attribute is an indexed key/value pair
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a typed list of attributes emitted by a contract or module
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// NewEvent creates an event from key/value pairs
func NewEvent(typ string, kv ...string) Event {
	ev := Event{Type: typ}
	for i := 0; i+1 < len(kv); i += 2 {
		ev.Attributes = append(ev.Attributes, Attribute{Key: kv[i], Value: kv[i+1]})
	}
	return ev
}

// SubMsgResult is the outcome of a sub-operation. Err is empty on success.
type SubMsgResult struct {
	Events []Event `json:"events,omitempty"`
	Err    string  `json:"error,omitempty"`
}

// IsOk reports whether the sub-operation succeeded
func (r SubMsgResult) IsOk() bool {
	return r.Err == ""
}

// Reply is the completion of a sub-operation delivered in a later invocation
type Reply struct {
	ID     ReplyID      `json:"id"`
	Result SubMsgResult `json:"result"`
}

// Response is what an entry point hands back to the host
type Response struct {
	Messages   []SubMsg    `json:"messages,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// AddSubMessage queues a sub-operation
func (r *Response) AddSubMessage(msg SubMsg) *Response {
	r.Messages = append(r.Messages, msg)
	return r
}

// AddAttribute appends one attribute
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})
	return r
}

// Attribute returns the last value of key and whether it was present
func (r *Response) Attribute(key string) (string, bool) {
	value, found := "", false
	for _, attr := range r.Attributes {
		if attr.Key == key {
			value, found = attr.Value, true
		}
	}
	return value, found
}
