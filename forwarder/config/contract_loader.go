package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cosmossdk.io/math"
	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/address"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/asset"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/host"
)

// LoadContractConfig reads a contract config. Files ending in .json are parsed as JSON,
// everything else as TOML.
func LoadContractConfig(filePath string) (*ContractConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read contract config file: %w", err)
	}

	var config ContractConfig
	if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to verify contract config: %w", err)
	}
	return &config, nil
}

// Validate checks addresses, venues, rates and genesis balances
func (c *ContractConfig) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	resolver := address.NewResolver(c.Prefix)
	ctx := context.Background()

	for name, addr := range map[string]string{
		"contract_address": c.ContractAddress,
		"owner":            c.Owner,
		"kernel_address":   c.KernelAddress,
	} {
		if _, err := resolver.Resolve(ctx, addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	for _, tokenAddr := range c.Tokens {
		if _, err := resolver.Resolve(ctx, tokenAddr); err != nil {
			return fmt.Errorf("token: %w", err)
		}
	}

	if len(c.Venues) == 0 {
		return fmt.Errorf("at least one venue is required")
	}
	seen := make(map[string]bool, len(c.Venues))
	for _, venue := range c.Venues {
		if err := venue.validate(ctx, resolver); err != nil {
			return fmt.Errorf("venue %s: %w", venue.Name, err)
		}
		if seen[venue.Name] {
			return fmt.Errorf("venue %s is configured twice", venue.Name)
		}
		seen[venue.Name] = true
	}

	for i, balance := range c.Genesis {
		if _, err := resolver.Resolve(ctx, balance.Address); err != nil {
			return fmt.Errorf("genesis %d: %w", i, err)
		}
		if _, err := asset.ParseAsset(balance.Asset); err != nil {
			return fmt.Errorf("genesis %d: %w", i, err)
		}
		if amount, ok := math.NewIntFromString(balance.Amount); !ok || !amount.IsPositive() {
			return fmt.Errorf("genesis %d: amount must be a positive integer, got %q", i, balance.Amount)
		}
	}
	return nil
}

func (v VenueConfig) validate(ctx context.Context, resolver *address.Resolver) error {
	if _, err := contract.ParseVenue(v.Name); err != nil {
		return err
	}
	if _, err := resolver.Resolve(ctx, v.Router); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	if _, err := contract.ParseReplyStrategy(v.Strategy); err != nil {
		return err
	}
	if v.Spread.IsNegative() || v.Spread.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("spread must be in [0, 1), got %s", v.Spread)
	}
	for _, rate := range v.Rates {
		from, err := asset.ParseAsset(rate.From)
		if err != nil {
			return err
		}
		to, err := asset.ParseAsset(rate.To)
		if err != nil {
			return err
		}
		if from.Equal(to) {
			return fmt.Errorf("rate %s -> %s swaps an asset into itself", rate.From, rate.To)
		}
		if !rate.Rate.IsPositive() {
			return fmt.Errorf("rate %s -> %s must be positive", rate.From, rate.To)
		}
	}
	return nil
}

// InitializeChain builds a simulated chain from a validated config and instantiates the
// forwarder on it
func InitializeChain(ctx context.Context, config *ContractConfig, manual bool) (*host.Chain, error) {
	chain := host.NewChain(config.Prefix, config.ContractAddress, config.KernelAddress)

	for _, tokenAddr := range config.Tokens {
		chain.AddToken(host.NewTokenContract(tokenAddr))
	}

	routers := make(map[string]contract.RouterConfig, len(config.Venues))
	for _, venueCfg := range config.Venues {
		kind, err := contract.ParseVenue(venueCfg.Name)
		if err != nil {
			return nil, err
		}
		sim := host.NewVenueSim(kind, venueCfg.Router)
		sim.SetSpread(venueCfg.Spread)
		for _, rate := range venueCfg.Rates {
			from, err := asset.ParseAsset(rate.From)
			if err != nil {
				return nil, err
			}
			to, err := asset.ParseAsset(rate.To)
			if err != nil {
				return nil, err
			}
			sim.SetRate(from, to, rate.Rate)
		}
		if err := chain.AddVenue(sim); err != nil {
			return nil, fmt.Errorf("failed to deploy %s router: %w", venueCfg.Name, err)
		}
		routers[venueCfg.Name] = contract.RouterConfig{
			Address:  host.RouterPath(kind),
			Strategy: contract.ReplyStrategy(venueCfg.Strategy),
		}
	}

	for _, balance := range config.Genesis {
		a, err := asset.ParseAsset(balance.Asset)
		if err != nil {
			return nil, err
		}
		amount, ok := math.NewIntFromString(balance.Amount)
		if !ok {
			return nil, fmt.Errorf("invalid genesis amount %q", balance.Amount)
		}
		if err := chain.Bank().Mint(balance.Address, a, amount); err != nil {
			return nil, fmt.Errorf("failed to mint genesis balance: %w", err)
		}
	}

	if _, err := chain.Instantiate(ctx, config.Owner, contract.InstantiateMsg{
		Owner:         config.Owner,
		KernelAddress: config.KernelAddress,
		Routers:       routers,
	}); err != nil {
		return nil, fmt.Errorf("failed to instantiate forwarder: %w", err)
	}
	chain.SetManual(manual)
	return chain, nil
}
