// Package address resolves the symbolic addresses accepted by the forwarder into concrete
// bech32 chain addresses.
//
// Two forms are accepted: a plain bech32 address, returned as-is after validation, and a
// registered path such as "/lib/osmosis/router" looked up in a static table.
package address

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcutil/bech32"
)

// Resolver turns symbolic addresses into bech32 addresses
type Resolver struct {
	mu sync.RWMutex
	// prefix restricts resolved addresses to one chain, empty accepts any prefix
	prefix string
	paths  map[string]string
}

// NewResolver creates a resolver for addresses with the given bech32 prefix
func NewResolver(prefix string) *Resolver {
	return &Resolver{
		prefix: prefix,
		paths:  make(map[string]string),
	}
}

// Register binds a path to an address. The address must be valid bech32.
func (r *Resolver) Register(path, address string) error {
	if !IsPath(path) {
		return fmt.Errorf("path must start with '/': %s", path)
	}
	if err := r.validate(address); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths[path] = address
	return nil
}

// Resolve returns the concrete address for addr
func (r *Resolver) Resolve(_ context.Context, addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("empty address")
	}
	if IsPath(addr) {
		r.mu.RLock()
		resolved, ok := r.paths[addr]
		r.mu.RUnlock()
		if !ok {
			return "", fmt.Errorf("unknown address path: %s", addr)
		}
		return resolved, nil
	}
	if err := r.validate(addr); err != nil {
		return "", err
	}
	return addr, nil
}

func (r *Resolver) validate(addr string) error {
	hrp, _, err := bech32.Decode(addr)
	if err != nil {
		return fmt.Errorf("invalid bech32 address %s: %w", addr, err)
	}
	if r.prefix != "" && hrp != r.prefix {
		return fmt.Errorf("address %s has prefix %s, expected %s", addr, hrp, r.prefix)
	}
	return nil
}

// IsPath reports whether addr is a registered-path style address
func IsPath(addr string) bool {
	return strings.HasPrefix(addr, "/")
}

// ConvertBech32Address converts a bech32 address to a new prefix
func ConvertBech32Address(address string, targetPrefix string) (string, error) {
	_, data, err := bech32.Decode(address)
	if err != nil {
		return "", fmt.Errorf("failed to decode address: %w", err)
	}

	converted, err := bech32.Encode(targetPrefix, data)
	if err != nil {
		return "", fmt.Errorf("failed to encode address: %w", err)
	}

	return converted, nil
}

// NewAddress encodes raw account bytes with the given prefix
func NewAddress(prefix string, raw []byte) (string, error) {
	data, err := bech32.ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert bits: %w", err)
	}
	return bech32.Encode(prefix, data)
}

// MustAddress is NewAddress for fixtures and tests
func MustAddress(prefix string, raw []byte) string {
	addr, err := NewAddress(prefix, raw)
	if err != nil {
		panic(err)
	}
	return addr
}
