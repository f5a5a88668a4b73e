package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultOrigin      = "Astar"
	defaultDestination = "Moonbeam"
	defaultAddress     = "5F5586mfsnM6durWRLptYt3jSUs55KEmahdodQ5tQMr9iY96"
	defaultAmount      = "10000000000000000000"
)

// LoadRPCPortalConfig loads the RPC portal config from the given path
func LoadRPCPortalConfig(configPath *string) (*RPCPortalConfig, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == nil {
		// if no file expect envs
		config, err := loadEnv(v)
		if err != nil {
			return nil, fmt.Errorf("failed to load env config: %w", err)
		}
		return config, nil
	}

	config, err := loadFile(v, *configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load file config: %w", err)
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry_path", "./registry.toml")
	v.SetDefault("default_origin", defaultOrigin)
	v.SetDefault("default_destination", defaultDestination)
	v.SetDefault("default_address", defaultAddress)
	v.SetDefault("default_amount", defaultAmount)
}

func loadEnv(v *viper.Viper) (*RPCPortalConfig, error) {
	// godot might fail if .env file is missing but
	// env can be applied through docker, systemd or other means, so skip error
	_ = godotenv.Load()
	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	var config RPCPortalConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal env config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}
	return &config, nil
}

// bindEnvKeys binds each config key to its env var so Unmarshal sees env values
// when no config file is loaded (env-only mode).
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"port", "host", "allowed_origins",
		"rate_per_minute", "max_concurrent_requests",
		"service_name", "service_version", "environment",
		"enable_tracing", "use_otlp_traces", "otlp_traces_url",
		"enable_metrics", "use_prometheus", "use_otlp_metrics", "otlp_metrics_url",
		"enable_logs", "use_otlp_logs", "otlp_logs_url",
		"insecure_otlp", "development_mode", "builder_urls",
		"registry_path", "registry_source", "submit_timeout",
		"default_origin", "default_destination", "default_address", "default_amount",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func loadFile(v *viper.Viper, configPath string) (*RPCPortalConfig, error) {
	if !strings.HasSuffix(configPath, ".toml") {
		return nil, fmt.Errorf("config file must be a toml file")
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config RPCPortalConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := verifyConfig(&config); err != nil {
		return nil, fmt.Errorf("failed to verify config: %w", err)
	}

	return &config, nil
}

func verifyConfig(config *RPCPortalConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if config.Host == "" {
		return fmt.Errorf("host is required")
	}

	if len(config.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed_origins is required")
	}

	if len(config.BuilderURLs) == 0 {
		return fmt.Errorf("builder_urls is required")
	}

	for _, url := range config.BuilderURLs {
		if url == "" {
			return fmt.Errorf("builder_urls must not be empty")
		}
	}

	if config.SubmitTimeout < 0 {
		return fmt.Errorf("submit_timeout must not be negative")
	}

	seen := make(map[string]bool)
	for _, ext := range config.Extensions {
		if ext.Name == "" {
			return fmt.Errorf("extension name is required")
		}
		if seen[ext.Name] {
			return fmt.Errorf("duplicate extension %s", ext.Name)
		}
		seen[ext.Name] = true

		switch ext.Kind {
		case "keystore":
			if ext.Path == "" {
				return fmt.Errorf("extension %s: path is required for keystore", ext.Name)
			}
		case "dev":
			if len(ext.Accounts) == 0 {
				return fmt.Errorf("extension %s: accounts are required for dev", ext.Name)
			}
		default:
			return fmt.Errorf("extension %s: unknown kind %q", ext.Name, ext.Kind)
		}
	}

	return nil
}
