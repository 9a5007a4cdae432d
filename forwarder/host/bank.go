package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
)

var (
	// ErrInsufficientFunds is returned when a transfer exceeds the sender balance
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is a missing or negative amount, or a coin without a denom
	ErrInvalidAmount = errors.New("invalid amount")
)

// Bank holds native and token balances of every account on the simulated chain.
// Token balances are kept here as well so a single snapshot covers a whole transaction.
type Bank struct {
	mu       sync.RWMutex
	balances map[string]map[string]math.Int
	assets   map[string]asset.Asset
}

// NewBank creates an empty bank
func NewBank() *Bank {
	return &Bank{
		balances: make(map[string]map[string]math.Int),
		assets:   make(map[string]asset.Asset),
	}
}

// Mint credits amount of a to addr
func (b *Bank) Mint(addr string, a asset.Asset, amount math.Int) error {
	if addr == "" || a.IsZero() {
		return fmt.Errorf("mint requires an address and an asset")
	}
	if amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: cannot mint %s", ErrInvalidAmount, amount)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(addr, a, amount)
	return nil
}

// Send moves amount of a from one account to another
func (b *Bank) Send(from, to string, a asset.Asset, amount math.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send(from, to, a, amount)
}

// SendCoins moves native coins, all or nothing
func (b *Bank) SendCoins(from, to string, coins []asset.Coin) error {
	if err := ValidateCoins(coins); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	saved := b.copyBalances()
	for _, coin := range coins {
		if err := b.send(from, to, asset.NativeAsset(coin.Denom), coin.Amount); err != nil {
			b.balances = saved
			return err
		}
	}
	return nil
}

// Balance returns the balance of a held by addr
func (b *Bank) Balance(addr string, a asset.Asset) math.Int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balance(addr, a.Key())
}

// Balances returns every non-zero balance of addr ordered by asset
func (b *Bank) Balances(addr string) []asset.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.balances[addr]))
	for key, amount := range b.balances[addr] {
		if amount.IsPositive() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := make([]asset.Amount, 0, len(keys))
	for _, key := range keys {
		out = append(out, asset.Amount{Asset: b.assets[key], Amount: b.balances[addr][key]})
	}
	return out
}

// QueryBalance implements contract.Querier
func (b *Bank) QueryBalance(_ context.Context, addr string, a asset.Asset) (math.Int, error) {
	if a.IsZero() {
		return math.Int{}, fmt.Errorf("empty asset")
	}
	return b.Balance(addr, a), nil
}

// ValidateCoins rejects coins without a denom and nil or negative amounts
func ValidateCoins(coins []asset.Coin) error {
	for _, coin := range coins {
		if coin.Denom == "" {
			return fmt.Errorf("%w: coin without denom", ErrInvalidAmount)
		}
		if coin.Amount.IsNil() || coin.Amount.IsNegative() {
			return fmt.Errorf("%w: %s %s", ErrInvalidAmount, coin.Amount, coin.Denom)
		}
	}
	return nil
}

type bankSnapshot map[string]map[string]math.Int

func (b *Bank) snapshot() bankSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.copyBalances()
}

func (b *Bank) restore(s bankSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balances = s
}

func (b *Bank) send(from, to string, a asset.Asset, amount math.Int) error {
	if a.IsZero() || amount.IsNil() || amount.IsNegative() {
		return fmt.Errorf("%w: transfer of %s %s", ErrInvalidAmount, amount, a)
	}
	if amount.IsZero() {
		return nil
	}
	have := b.balance(from, a.Key())
	if have.LT(amount) {
		return fmt.Errorf("%w: %s has %s%s, needs %s", ErrInsufficientFunds, from, have, a.Value(), amount)
	}
	b.balances[from][a.Key()] = have.Sub(amount)
	b.credit(to, a, amount)
	return nil
}

func (b *Bank) credit(addr string, a asset.Asset, amount math.Int) {
	account, ok := b.balances[addr]
	if !ok {
		account = make(map[string]math.Int)
		b.balances[addr] = account
	}
	b.assets[a.Key()] = a
	account[a.Key()] = b.balance(addr, a.Key()).Add(amount)
}

func (b *Bank) balance(addr, key string) math.Int {
	if amount, ok := b.balances[addr][key]; ok {
		return amount
	}
	return math.ZeroInt()
}

func (b *Bank) copyBalances() map[string]map[string]math.Int {
	out := make(map[string]map[string]math.Int, len(b.balances))
	for addr, account := range b.balances {
		cp := make(map[string]math.Int, len(account))
		for key, amount := range account {
			cp[key] = amount
		}
		out[addr] = cp
	}
	return out
}
