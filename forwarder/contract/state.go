package contract

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/store"
)

var (
	configItem         = store.NewItem[Config]("config")
	pendingSwapItem    = store.NewItem[PendingSwap]("forward_reply_state")
	preSwapBalanceItem = store.NewItem[math.Int]("prev_balance")
)

// Guard is the single-slot pending-operation record. Its presence means an asynchronous swap
// is outstanding and every new trigger is rejected until the swap completion clears it.
type Guard struct {
	storage store.Storage
}

// NewGuard creates a guard over the given storage
func NewGuard(storage store.Storage) *Guard {
	return &Guard{storage: storage}
}

// Begin records op as the outstanding swap. It fails with ErrUnauthorized when one is
// already recorded.
func (g *Guard) Begin(op PendingSwap) error {
	if pendingSwapItem.Exists(g.storage) {
		return fmt.Errorf("%w: a swap is already pending", ErrUnauthorized)
	}
	return pendingSwapItem.Save(g.storage, op)
}

// End removes the record. It is a no-op when nothing is pending.
func (g *Guard) End() {
	pendingSwapItem.Remove(g.storage)
}

// Active reports whether a swap is pending
func (g *Guard) Active() bool {
	return pendingSwapItem.Exists(g.storage)
}

// Pending returns the outstanding swap or nil
func (g *Guard) Pending() (*PendingSwap, error) {
	return pendingSwapItem.MayLoad(g.storage)
}

// Take erases the record and returns what it held. The record is erased even when it
// cannot be decoded, so a corrupt record never blocks later swaps.
func (g *Guard) Take() (*PendingSwap, error) {
	data := g.storage.Get([]byte(pendingSwapItem.Key()))
	if data == nil {
		return nil, nil
	}
	g.End()

	var op PendingSwap
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to decode pending swap: %w", err)
	}
	return &op, nil
}

// snapshotBalance stores the pre-swap balance for balance-diff venues
func snapshotBalance(s store.Storage, balance math.Int) error {
	return preSwapBalanceItem.Save(s, balance)
}

// takeSnapshot erases the pre-swap balance and returns it, nil when none was taken
func takeSnapshot(s store.Storage) (*math.Int, error) {
	balance, err := preSwapBalanceItem.MayLoad(s)
	preSwapBalanceItem.Remove(s)
	if err != nil {
		return nil, fmt.Errorf("failed to load pre-swap balance: %w", err)
	}
	return balance, nil
}
