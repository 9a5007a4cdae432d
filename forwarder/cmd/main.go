package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/config"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/contract"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/host"
	"github.com/Cogwheel-Validator/spectra-forwarder/forwarder/rpc"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	rpc.SetLogger(log)
	contract.SetLogger(log)
	host.SetLogger(log)
}

func main() {
	configNode := flag.String("config-node", "", "config file for the node, FORWARDER_ env vars when empty")
	configContract := flag.String("config-contract", "./contract.example.toml", "config file for the simulated chain")
	fetch := flag.Bool("fetch", false, "treat -config-contract as a remote source and download it first")
	flag.Parse()

	log.Info().
		Str("node_config", *configNode).
		Str("contract_config", *configContract).
		Msg("Starting Spectra's swap-and-forward node")

	var nodePath *string
	if *configNode != "" {
		nodePath = configNode
	}
	nodeConfig, err := config.LoadNodeConfig(nodePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load node config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	contractPath := *configContract
	if *fetch {
		dir, err := os.MkdirTemp("", "spectra-forwarder-")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create download directory")
		}
		defer os.RemoveAll(dir)

		contractPath, err = config.FetchContractConfig(ctx, *configContract, dir)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch contract config")
		}
		log.Info().Str("source", *configContract).Msg("Fetched contract config")
	}

	contractConfig, err := config.LoadContractConfig(contractPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load contract config")
	}

	chain, err := config.InitializeChain(ctx, contractConfig, nodeConfig.ManualDelivery)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chain")
	}
	log.Info().
		Str("contract", chain.ContractAddress()).
		Int("venues", len(contractConfig.Venues)).
		Bool("manual_delivery", nodeConfig.ManualDelivery).
		Msg("Forwarder instantiated")

	server, err := rpc.NewServer(ctx, buildServerConfig(nodeConfig), chain)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create node server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server error")
			sigCh <- syscall.SIGTERM
		}
	}()

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// buildServerConfig converts the loaded NodeConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.NodeConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  cfg.UsePrometheus,
		EnableFaucet:   cfg.EnableFaucet,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		otelConfig := rpc.DefaultOTelConfig()
		otelConfig.ServiceName = defaultString(cfg.ServiceName, otelConfig.ServiceName)
		otelConfig.ServiceVersion = defaultString(cfg.ServiceVersion, otelConfig.ServiceVersion)
		otelConfig.Environment = defaultString(cfg.Environment, otelConfig.Environment)
		otelConfig.EnableTracing = cfg.EnableTracing
		otelConfig.UseOTLPTraces = cfg.UseOTLPTraces
		otelConfig.OTLPTracesURL = defaultString(cfg.OTLPTracesURL, otelConfig.OTLPTracesURL)
		otelConfig.EnableMetrics = cfg.EnableMetrics || cfg.UsePrometheus
		otelConfig.UsePrometheus = cfg.UsePrometheus
		otelConfig.UseOTLPMetrics = cfg.UseOTLPMetrics
		otelConfig.OTLPMetricsURL = defaultString(cfg.OTLPMetricsURL, otelConfig.OTLPMetricsURL)
		otelConfig.EnableLogs = cfg.EnableLogs
		otelConfig.UseOTLPLogs = cfg.UseOTLPLogs
		otelConfig.OTLPLogsURL = defaultString(cfg.OTLPLogsURL, otelConfig.OTLPLogsURL)
		otelConfig.InsecureOTLP = cfg.InsecureOTLP
		otelConfig.DevelopmentMode = cfg.DevelopmentMode
		serverConfig.OTelConfig = otelConfig
	}

	return serverConfig
}

// defaultString returns the default value if s is empty
func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
