// Package contract implements the swap-and-forward state machine.
//
// A trigger deposits exactly one asset. The contract records a PendingSwap, hands the full
// deposit to a venue router as a sub-operation and returns. When the host delivers the swap
// completion (SwapReplyID) the contract clears the PendingSwap first, measures what was
// received and forwards exactly that amount to the recipient as a second sub-operation
// (ForwardReplyID). Each entry point runs to completion; the asynchronous boundary is a new
// invocation by the host, never a blocking call.
//
//	Idle --trigger--> SwapPending --SwapReplyID--> Idle (forward queued)
//
// Only one swap may be outstanding per contract instance.
package contract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/store"
)

// Contract is one instance of the swap-and-forward contract bound to its host storage
type Contract struct {
	storage  store.Storage
	querier  Querier
	resolver AddressResolver
	guard    *Guard
}

// New creates a contract over the storage, querier and resolver provided by the host
func New(storage store.Storage, querier Querier, resolver AddressResolver) *Contract {
	return &Contract{
		storage:  storage,
		querier:  querier,
		resolver: resolver,
		guard:    NewGuard(storage),
	}
}

// Instantiate stores the initial configuration
func (c *Contract) Instantiate(ctx context.Context, env Env, info MessageInfo, msg InstantiateMsg) (*Response, error) {
	owner := msg.Owner
	if owner == "" {
		owner = info.Sender
	}
	cfg := Config{
		Owner:         owner,
		KernelAddress: msg.KernelAddress,
		Routers:       make(map[string]RouterConfig, len(msg.Routers)),
	}
	if _, err := c.resolver.Resolve(ctx, cfg.KernelAddress); err != nil {
		return nil, fmt.Errorf("invalid kernel address: %w", err)
	}
	for name, router := range msg.Routers {
		if err := c.validateRouter(ctx, name, router); err != nil {
			return nil, err
		}
		cfg.Routers[name] = router
	}
	if err := configItem.Save(c.storage, cfg); err != nil {
		return nil, err
	}

	log.Info().
		Str("contract", env.ContractAddress).
		Str("owner", owner).
		Int("routers", len(cfg.Routers)).
		Msg("Contract instantiated")

	resp := &Response{}
	resp.AddAttribute("method", "instantiate").AddAttribute("owner", owner)
	return resp, nil
}

// Execute dispatches an execute message
func (c *Contract) Execute(ctx context.Context, env Env, info MessageInfo, msg ExecuteMsg) (*Response, error) {
	switch {
	case msg.SwapAndForward != nil:
		deposit, err := oneCoin(info.Funds)
		if err != nil {
			return nil, err
		}
		return c.initiateSwap(ctx, env, swapTrigger{
			sender:  info.Sender,
			deposit: deposit,
			msg:     *msg.SwapAndForward,
		})
	case msg.Receive != nil:
		return c.executeReceive(ctx, env, info, *msg.Receive)
	case msg.AMPReceive != nil:
		return c.executeAMPReceive(ctx, env, info, msg)
	case msg.UpdateSwapRouter != nil:
		return c.executeUpdateSwapRouter(ctx, info, *msg.UpdateSwapRouter)
	default:
		return nil, fmt.Errorf("empty execute message")
	}
}

// executeReceive handles the send-with-hook pattern of token deposits
func (c *Contract) executeReceive(ctx context.Context, env Env, info MessageInfo, msg TokenReceiveMsg) (*Response, error) {
	if len(info.Funds) > 0 {
		return nil, fmt.Errorf("%w: native funds attached to token deposit", ErrInvalidAsset)
	}
	if msg.Amount.IsNil() || !msg.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: invalid or missing coin", ErrInvalidAsset)
	}

	var hook TokenHookMsg
	if err := json.Unmarshal(msg.Msg, &hook); err != nil {
		return nil, fmt.Errorf("failed to decode token hook: %w", err)
	}
	if hook.SwapAndForward == nil {
		return nil, fmt.Errorf("unsupported token hook message")
	}

	return c.initiateSwap(ctx, env, swapTrigger{
		sender: msg.Sender,
		deposit: asset.Amount{
			Asset:  asset.TokenAsset(info.Sender),
			Amount: msg.Amount,
		},
		msg: *hook.SwapAndForward,
	})
}

func (c *Contract) executeUpdateSwapRouter(ctx context.Context, info MessageInfo, msg UpdateSwapRouterMsg) (*Response, error) {
	cfg, err := configItem.Load(c.storage)
	if err != nil {
		return nil, err
	}
	if info.Sender != cfg.Owner {
		return nil, fmt.Errorf("%w: only the owner can update swap routers", ErrUnauthorized)
	}
	if err := c.validateRouter(ctx, msg.Dex, msg.Router); err != nil {
		return nil, err
	}

	previous := cfg.Routers[msg.Dex]
	if cfg.Routers == nil {
		cfg.Routers = make(map[string]RouterConfig)
	}
	cfg.Routers[msg.Dex] = msg.Router
	if err := configItem.Save(c.storage, cfg); err != nil {
		return nil, err
	}

	log.Info().
		Str("dex", msg.Dex).
		Str("previous", previous.Address).
		Str("router", msg.Router.Address).
		Msg("Swap router updated")

	resp := &Response{}
	resp.AddAttribute("action", "update-swap-router").
		AddAttribute("dex", msg.Dex).
		AddAttribute("previous_swap_router", previous.Address).
		AddAttribute("swap_router", msg.Router.Address)
	return resp, nil
}

func (c *Contract) validateRouter(ctx context.Context, name string, router RouterConfig) error {
	if _, err := ParseVenue(name); err != nil {
		return err
	}
	if _, err := ParseReplyStrategy(string(router.Strategy)); err != nil {
		return err
	}
	if _, err := c.resolver.Resolve(ctx, router.Address); err != nil {
		return fmt.Errorf("invalid router address for %s: %w", name, err)
	}
	return nil
}

// PendingSwap returns the outstanding swap, nil when idle
func (c *Contract) PendingSwap() (*PendingSwap, error) {
	return c.guard.Pending()
}

// Config returns the stored configuration
func (c *Contract) Config() (*Config, error) {
	cfg, err := configItem.Load(c.storage)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// oneCoin requires exactly one non-zero native coin
func oneCoin(funds []asset.Coin) (asset.Amount, error) {
	if len(funds) != 1 {
		return asset.Amount{}, fmt.Errorf("%w: expected exactly one coin, got %d", ErrInvalidAsset, len(funds))
	}
	coin := funds[0]
	if coin.Denom == "" || coin.Amount.IsNil() || !coin.Amount.IsPositive() {
		return asset.Amount{}, fmt.Errorf("%w: invalid or missing coin", ErrInvalidAsset)
	}
	return asset.Amount{Asset: asset.NativeAsset(coin.Denom), Amount: coin.Amount}, nil
}
