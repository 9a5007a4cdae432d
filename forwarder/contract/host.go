package contract

import (
	"context"

	"cosmossdk.io/math"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
)

// Querier reads chain state on behalf of the contract
type Querier interface {
	// QueryBalance returns the balance of a native denom or token held by address
	QueryBalance(ctx context.Context, address string, a asset.Asset) (math.Int, error)
}

// AddressResolver turns symbolic addresses into concrete chain addresses
type AddressResolver interface {
	Resolve(ctx context.Context, addr string) (string, error)
}
