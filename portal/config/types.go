package config

import "time"

type RPCPortalConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`

	// Transfer builder API, first url is the primary
	BuilderURLs []string `toml:"builder_urls" mapstructure:"builder_urls"`

	// Asset registry file and optional remote source to refresh it from
	RegistryPath   string `toml:"registry_path" mapstructure:"registry_path"`
	RegistrySource string `toml:"registry_source" mapstructure:"registry_source"`

	// SubmitTimeout bounds build+sign+submit, 0 waits forever
	SubmitTimeout time.Duration `toml:"submit_timeout" mapstructure:"submit_timeout"`

	// Form defaults
	DefaultOrigin      string `toml:"default_origin" mapstructure:"default_origin"`
	DefaultDestination string `toml:"default_destination" mapstructure:"default_destination"`
	DefaultAddress     string `toml:"default_address" mapstructure:"default_address"`
	DefaultAmount      string `toml:"default_amount" mapstructure:"default_amount"`

	// Wallet extensions offered to sessions
	Extensions []ExtensionConfig `toml:"extensions" mapstructure:"extensions"`
}

// ExtensionConfig describes one wallet extension the portal exposes.
type ExtensionConfig struct {
	Name string `toml:"name" mapstructure:"name"`
	// Kind is "keystore" (encrypted account file) or "dev" (well-known dev accounts)
	Kind string `toml:"kind" mapstructure:"kind"`
	// Path of the keystore file, keystore only
	Path string `toml:"path" mapstructure:"path"`
	// PassphraseEnv names the env var holding the keystore passphrase;
	// when unset the passphrase is prompted on the terminal
	PassphraseEnv string `toml:"passphrase_env" mapstructure:"passphrase_env"`
	// Accounts are dev account URIs (e.g. "//Alice"), dev only
	Accounts []string `toml:"accounts" mapstructure:"accounts"`
	// SS58Prefix used to render addresses
	SS58Prefix uint16 `toml:"ss58_prefix" mapstructure:"ss58_prefix"`
}
