package config

import "github.com/shopspring/decimal"

// NodeConfig configures the HTTP node serving the simulated chain
type NodeConfig struct {
	// rpc configs
	Port int    `mapstructure:"port" toml:"port"`
	Host string `mapstructure:"host" toml:"host"`

	// CORS configs
	AllowedOrigins []string `mapstructure:"allowed_origins" toml:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `mapstructure:"rate_per_minute" toml:"rate_per_minute"`
	MaxConcurrentRequests int `mapstructure:"max_concurrent_requests" toml:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `mapstructure:"service_name" toml:"service_name"`
	ServiceVersion string `mapstructure:"service_version" toml:"service_version"`
	Environment    string `mapstructure:"environment" toml:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `mapstructure:"enable_tracing" toml:"enable_tracing"`
	UseOTLPTraces  bool   `mapstructure:"use_otlp_traces" toml:"use_otlp_traces"`
	OTLPTracesURL  string `mapstructure:"otlp_traces_url" toml:"otlp_traces_url"`
	EnableMetrics  bool   `mapstructure:"enable_metrics" toml:"enable_metrics"`
	UsePrometheus  bool   `mapstructure:"use_prometheus" toml:"use_prometheus"`
	UseOTLPMetrics bool   `mapstructure:"use_otlp_metrics" toml:"use_otlp_metrics"`
	OTLPMetricsURL string `mapstructure:"otlp_metrics_url" toml:"otlp_metrics_url"`
	EnableLogs     bool   `mapstructure:"enable_logs" toml:"enable_logs"`
	UseOTLPLogs    bool   `mapstructure:"use_otlp_logs" toml:"use_otlp_logs"`
	OTLPLogsURL    string `mapstructure:"otlp_logs_url" toml:"otlp_logs_url"`

	InsecureOTLP bool `mapstructure:"insecure_otlp" toml:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `mapstructure:"development_mode" toml:"development_mode"`

	// chain configs
	ManualDelivery bool `mapstructure:"manual_delivery" toml:"manual_delivery"`
	EnableFaucet   bool `mapstructure:"enable_faucet" toml:"enable_faucet"`
}

// ContractConfig describes the simulated chain: the forwarder instance, the venues it can
// swap through and the balances accounts start with
type ContractConfig struct {
	Prefix          string           `toml:"prefix" json:"prefix"`
	ContractAddress string           `toml:"contract_address" json:"contract_address"`
	Owner           string           `toml:"owner" json:"owner"`
	KernelAddress   string           `toml:"kernel_address" json:"kernel_address"`
	Tokens          []string         `toml:"tokens" json:"tokens"`
	Venues          []VenueConfig    `toml:"venues" json:"venues"`
	Genesis         []GenesisBalance `toml:"genesis" json:"genesis"`
}

// VenueConfig deploys a router simulator
type VenueConfig struct {
	Name   string `toml:"name" json:"name"`
	Router string `toml:"router" json:"router"`
	// Strategy overrides the venue default reply strategy
	Strategy string          `toml:"strategy" json:"strategy"`
	Spread   decimal.Decimal `toml:"spread" json:"spread"`
	Rates    []RateConfig    `toml:"rates" json:"rates"`
}

// RateConfig is a fixed exchange rate, Rate units of To per unit of From
type RateConfig struct {
	From string          `toml:"from" json:"from"`
	To   string          `toml:"to" json:"to"`
	Rate decimal.Decimal `toml:"rate" json:"rate"`
}

// GenesisBalance funds an account at startup. Asset uses the "native:" or "cw20:" form.
type GenesisBalance struct {
	Address string `toml:"address" json:"address"`
	Asset   string `toml:"asset" json:"asset"`
	Amount  string `toml:"amount" json:"amount"`
}
