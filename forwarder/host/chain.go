// Package host simulates the chain a forwarder contract runs on.
//
// The Chain owns the bank, the contract instance and every collaborator the contract talks
// to: venue routers, token contracts and the kernel. Sub-messages returned by the contract are
// executed after the entry point returns and their outcome is delivered back through Reply,
// either immediately or, in manual mode, one at a time through DeliverNext.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/address"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/store"
)

// ErrNothingQueued is returned by DeliverNext when no completion is waiting
var ErrNothingQueued = errors.New("no queued sub-message")

// handler is anything on the chain that can be the target of an execute
type handler interface {
	execute(ctx context.Context, c *Chain, sender string, funds []asset.Coin, msg []byte) ([]contract.Event, error)
}

// Receipt records one invocation of a forwarder entry point
type Receipt struct {
	Entry      string               `json:"entry"`
	ReplyID    contract.ReplyID     `json:"reply_id,omitempty"`
	Sender     string               `json:"sender,omitempty"`
	Attributes []contract.Attribute `json:"attributes,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// TxResult is the outcome of one transaction
type TxResult struct {
	Height   int64            `json:"height"`
	Events   []contract.Event `json:"events,omitempty"`
	Receipts []Receipt        `json:"receipts"`
	Queued   int              `json:"queued"`
}

// Chain is a single-threaded simulated chain. All methods are safe for concurrent use,
// transactions are serialized.
type Chain struct {
	mu        sync.Mutex
	bank      *Bank
	storage   *store.MemStore
	resolver  *address.Resolver
	forwarder *contract.Contract
	address   string
	kernel    *Kernel
	handlers  map[string]handler
	venues    map[contract.Venue]*VenueSim

	manual   bool
	queue    []contract.SubMsg
	height   int64
	now      func() time.Time
	receipts []Receipt
}

// NewChain creates a chain with the forwarder at contractAddr and a kernel at kernelAddr.
// Addresses must carry the bech32 prefix.
func NewChain(prefix, contractAddr, kernelAddr string) *Chain {
	c := &Chain{
		bank:     NewBank(),
		storage:  store.NewMemStore(),
		resolver: address.NewResolver(prefix),
		address:  contractAddr,
		kernel:   NewKernel(kernelAddr),
		handlers: make(map[string]handler),
		venues:   make(map[contract.Venue]*VenueSim),
		now:      time.Now,
	}
	c.forwarder = contract.New(c.storage, c.bank, c.resolver)
	c.handlers[contractAddr] = forwarderHandler{}
	c.handlers[kernelAddr] = c.kernel
	return c
}

// AddVenue deploys a venue router and registers it under /lib/<venue>/router
func (c *Chain) AddVenue(v *VenueSim) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.resolver.Register(RouterPath(v.Kind()), v.Address()); err != nil {
		return err
	}
	c.handlers[v.Address()] = v
	c.venues[v.Kind()] = v
	return nil
}

// AddToken deploys a token contract
func (c *Chain) AddToken(t *TokenContract) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[t.Address()] = t
}

// RouterPath is the resolver path a venue router is registered under
func RouterPath(v contract.Venue) string {
	return fmt.Sprintf("/lib/%s/router", v)
}

func (c *Chain) Bank() *Bank { return c.bank }

func (c *Chain) Kernel() *Kernel { return c.kernel }

func (c *Chain) Resolver() *address.Resolver { return c.resolver }

func (c *Chain) ContractAddress() string { return c.address }

// Venue returns the deployed router of v
func (c *Chain) Venue(v contract.Venue) (*VenueSim, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sim, ok := c.venues[v]
	return sim, ok
}

// SetManual switches between delivering completions immediately and queueing them
func (c *Chain) SetManual(manual bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = manual
}

// Queued returns the number of completions waiting for DeliverNext
func (c *Chain) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// PendingSwap returns the outstanding swap of the forwarder, nil when idle
func (c *Chain) PendingSwap() (*contract.PendingSwap, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forwarder.PendingSwap()
}

// Config returns the forwarder configuration
func (c *Chain) Config() (*contract.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forwarder.Config()
}

// Instantiate configures the forwarder
func (c *Chain) Instantiate(ctx context.Context, sender string, msg contract.InstantiateMsg) (*contract.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height++
	return c.forwarder.Instantiate(ctx, c.env(), contract.MessageInfo{Sender: sender}, msg)
}

// Execute runs msg on the forwarder with funds attached
func (c *Chain) Execute(ctx context.Context, sender string, funds []asset.Coin, msg contract.ExecuteMsg) (*TxResult, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode execute message: %w", err)
	}
	return c.ExecuteOn(ctx, sender, c.address, funds, data)
}

// ExecuteOn runs a raw message on any contract of the chain. A failed transaction leaves
// balances untouched.
func (c *Chain) ExecuteOn(ctx context.Context, sender, target string, funds []asset.Coin, msg []byte) (*TxResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.begin()

	saved := c.bank.snapshot()
	events, err := c.executeContract(ctx, sender, target, funds, msg)
	if err != nil {
		c.bank.restore(saved)
		log.Debug().Err(err).Str("sender", sender).Str("target", target).Msg("Transaction failed")
		return nil, err
	}
	return c.result(events), nil
}

// DeliverNext executes the oldest queued sub-message and delivers its completion
func (c *Chain) DeliverNext(ctx context.Context) (*TxResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, ErrNothingQueued
	}
	c.begin()

	sub := c.queue[0]
	c.queue = c.queue[1:]
	events, err := c.runSubMsg(ctx, sub)
	if err != nil {
		return nil, err
	}
	return c.result(events), nil
}

func (c *Chain) begin() {
	c.height++
	c.receipts = nil
}

func (c *Chain) result(events []contract.Event) *TxResult {
	return &TxResult{
		Height:   c.height,
		Events:   events,
		Receipts: c.receipts,
		Queued:   len(c.queue),
	}
}

func (c *Chain) env() contract.Env {
	return contract.Env{
		ContractAddress: c.address,
		BlockHeight:     c.height,
		BlockTime:       c.now().UTC(),
	}
}

func (c *Chain) isContract(addr string) bool {
	_, ok := c.handlers[addr]
	return ok
}

// executeContract moves funds to target and runs its handler. Plain accounts only accept
// transfers.
func (c *Chain) executeContract(ctx context.Context, sender, target string, funds []asset.Coin, msg []byte) ([]contract.Event, error) {
	if err := c.bank.SendCoins(sender, target, funds); err != nil {
		return nil, err
	}
	h, ok := c.handlers[target]
	if !ok {
		return nil, fmt.Errorf("no contract at %s", target)
	}
	return h.execute(ctx, c, sender, funds, msg)
}

// dispatch runs or queues the sub-messages returned by the forwarder
func (c *Chain) dispatch(ctx context.Context, msgs []contract.SubMsg) ([]contract.Event, error) {
	var events []contract.Event
	for _, sub := range msgs {
		if c.manual {
			c.queue = append(c.queue, sub)
			continue
		}
		ev, err := c.runSubMsg(ctx, sub)
		if err != nil {
			return nil, err
		}
		events = append(events, ev...)
	}
	return events, nil
}

// runSubMsg executes one sub-message for the forwarder and hands its outcome to Reply.
// A failed sub-message is rolled back before the forwarder sees the failure.
func (c *Chain) runSubMsg(ctx context.Context, sub contract.SubMsg) ([]contract.Event, error) {
	if sub.Msg.Wasm == nil {
		return nil, fmt.Errorf("unsupported sub-message %d", sub.ID)
	}
	wasm := sub.Msg.Wasm

	saved := c.bank.snapshot()
	events, execErr := c.executeContract(ctx, c.address, wasm.ContractAddr, wasm.Funds, wasm.Msg)
	result := contract.SubMsgResult{Events: events}
	if execErr != nil {
		c.bank.restore(saved)
		result = contract.SubMsgResult{Err: execErr.Error()}
	}

	replies := sub.ReplyOn == contract.ReplyAlways ||
		(sub.ReplyOn == contract.ReplySuccess && execErr == nil) ||
		(sub.ReplyOn == contract.ReplyError && execErr != nil)
	if !replies {
		return events, execErr
	}

	resp, err := c.forwarder.Reply(ctx, c.env(), contract.Reply{ID: sub.ID, Result: result})
	receipt := Receipt{Entry: "reply", ReplyID: sub.ID}
	if err != nil {
		receipt.Error = err.Error()
		c.receipts = append(c.receipts, receipt)
		log.Warn().Err(err).Uint64("reply_id", uint64(sub.ID)).Msg("Reply failed")
		return events, nil
	}
	receipt.Attributes = resp.Attributes
	c.receipts = append(c.receipts, receipt)

	events = append(events, wasmEvent(c.address, resp.Attributes))
	nested, err := c.dispatch(ctx, resp.Messages)
	if err != nil {
		return nil, err
	}
	return append(events, nested...), nil
}

// forwarderHandler decodes execute messages for the forwarder contract
type forwarderHandler struct{}

func (forwarderHandler) execute(ctx context.Context, c *Chain, sender string, funds []asset.Coin, msg []byte) ([]contract.Event, error) {
	var exec contract.ExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return nil, fmt.Errorf("failed to decode forwarder message: %w", err)
	}
	resp, err := c.forwarder.Execute(ctx, c.env(), contract.MessageInfo{Sender: sender, Funds: funds}, exec)
	if err != nil {
		return nil, err
	}
	c.receipts = append(c.receipts, Receipt{Entry: "execute", Sender: sender, Attributes: resp.Attributes})

	events := []contract.Event{wasmEvent(c.address, resp.Attributes)}
	nested, err := c.dispatch(ctx, resp.Messages)
	if err != nil {
		return nil, err
	}
	return append(events, nested...), nil
}

func wasmEvent(contractAddr string, attrs []contract.Attribute) contract.Event {
	ev := contract.NewEvent("wasm", "_contract_address", contractAddr)
	ev.Attributes = append(ev.Attributes, attrs...)
	return ev
}
