// Package asset defines the fungible asset references and coin amounts moved by the forwarder.
//
// An Asset is either a native ledger denomination ("uosmo", "ibc/27394F...") or a reference to
// an on-chain token contract. Equality is structural, so NativeAsset("x") never equals
// TokenAsset("x").
package asset

import (
	"encoding/json"
	"fmt"
	"strings"

	"cosmossdk.io/math"
)

// Kind discriminates the Asset union
type Kind int

const (
	KindNative Kind = iota
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindNative:
		return "native_token"
	case KindToken:
		return "cw20_token"
	default:
		return "unknown"
	}
}

// Asset is a tagged union of NativeDenom(string) and TokenContract(address).
type Asset struct {
	kind Kind
	// value is the denom for native assets and the contract address for tokens
	value string
}

// NativeAsset creates an asset for a native ledger denomination
func NativeAsset(denom string) Asset {
	return Asset{kind: KindNative, value: denom}
}

// TokenAsset creates an asset for a token contract
func TokenAsset(contractAddress string) Asset {
	return Asset{kind: KindToken, value: contractAddress}
}

func (a Asset) Kind() Kind { return a.kind }

func (a Asset) IsNative() bool { return a.kind == KindNative }

func (a Asset) IsToken() bool { return a.kind == KindToken }

// Denom returns the native denomination, empty for tokens
func (a Asset) Denom() string {
	if a.kind != KindNative {
		return ""
	}
	return a.value
}

// ContractAddress returns the token contract, empty for native assets
func (a Asset) ContractAddress() string {
	if a.kind != KindToken {
		return ""
	}
	return a.value
}

// Value returns the denom or contract address regardless of kind
func (a Asset) Value() string { return a.value }

// IsZero reports whether the asset was never set
func (a Asset) IsZero() bool { return a.value == "" }

// Equal compares kind and value
func (a Asset) Equal(other Asset) bool {
	return a.kind == other.kind && a.value == other.value
}

// Key is a stable string usable as a map key, e.g. "native:uosmo" or "cw20:osmo1..."
func (a Asset) Key() string {
	if a.kind == KindToken {
		return "cw20:" + a.value
	}
	return "native:" + a.value
}

func (a Asset) String() string {
	return a.Key()
}

// ParseAsset parses the Key form. A bare value without prefix is treated as a native denom.
func ParseAsset(s string) (Asset, error) {
	switch {
	case strings.HasPrefix(s, "cw20:"):
		v := strings.TrimPrefix(s, "cw20:")
		if v == "" {
			return Asset{}, fmt.Errorf("empty token address in %q", s)
		}
		return TokenAsset(v), nil
	case strings.HasPrefix(s, "native:"):
		v := strings.TrimPrefix(s, "native:")
		if v == "" {
			return Asset{}, fmt.Errorf("empty denom in %q", s)
		}
		return NativeAsset(v), nil
	case s == "":
		return Asset{}, fmt.Errorf("empty asset")
	default:
		return NativeAsset(s), nil
	}
}

type assetJSON struct {
	NativeToken *string `json:"native_token,omitempty"`
	Cw20Token   *string `json:"cw20_token,omitempty"`
}

// MarshalJSON encodes as {"native_token":"uosmo"} or {"cw20_token":"osmo1..."}
func (a Asset) MarshalJSON() ([]byte, error) {
	v := a.value
	switch a.kind {
	case KindNative:
		return json.Marshal(assetJSON{NativeToken: &v})
	case KindToken:
		return json.Marshal(assetJSON{Cw20Token: &v})
	default:
		return nil, fmt.Errorf("unknown asset kind %d", a.kind)
	}
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw assetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.NativeToken != nil && raw.Cw20Token != nil:
		return fmt.Errorf("asset must set exactly one of native_token or cw20_token")
	case raw.NativeToken != nil:
		*a = NativeAsset(*raw.NativeToken)
	case raw.Cw20Token != nil:
		*a = TokenAsset(*raw.Cw20Token)
	default:
		return fmt.Errorf("asset must set native_token or cw20_token")
	}
	if a.value == "" {
		return fmt.Errorf("asset value must not be empty")
	}
	return nil
}

// Coin is an amount of a native denomination
type Coin struct {
	Denom  string   `json:"denom"`
	Amount math.Int `json:"amount"`
}

// NewCoin creates a coin from an int64 amount
func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: math.NewInt(amount)}
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}

// Amount is a quantity of any Asset
type Amount struct {
	Asset  Asset    `json:"asset"`
	Amount math.Int `json:"amount"`
}

func (a Amount) String() string {
	return a.Amount.String() + " " + a.Asset.String()
}
