package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/chain"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/config"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/currency"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/events"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/form"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/metrics"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/registry"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/rpc"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/securefile"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/session"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/transfer"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/wallet"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/xcmapi"
	"github.com/rs/zerolog"
)

const appName = "Spectra XCM Portal"

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Logger()

	// Share the logger with every package
	rpc.SetLogger(log)
	session.SetLogger(log)
	transfer.SetLogger(log)
	xcmapi.SetLogger(log)
	chain.SetLogger(log)
	wallet.SetLogger(log)
	events.SetLogger(log)
	metrics.SetLogger(log)
}

func main() {
	configRpc := flag.String("config-rpc", "", "config file for the portal server, env (PORTAL_*) is used when empty")
	fetchRegistry := flag.Bool("fetch-registry", false, "download the registry from registry_source before starting")
	initKeystore := flag.String("init-keystore", "", "create an encrypted keystore at this path and exit")
	keystoreAccount := flag.String("keystore-account", "main", "account name stored by -init-keystore")
	flag.Parse()

	if *initKeystore != "" {
		if err := createKeystore(*initKeystore, *keystoreAccount); err != nil {
			log.Fatal().Err(err).Msg("Failed to create keystore")
		}
		log.Info().Str("path", *initKeystore).Msg("Keystore created")
		return
	}

	var configPath *string
	if *configRpc != "" {
		configPath = configRpc
	}
	rpcConfig, err := config.LoadRPCPortalConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load RPC config")
	}

	log.Info().
		Str("rpc_config", *configRpc).
		Str("registry", rpcConfig.RegistryPath).
		Msg("Starting " + appName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *fetchRegistry {
		if err := registry.Download(ctx, rpcConfig.RegistrySource, rpcConfig.RegistryPath); err != nil {
			log.Fatal().Err(err).Str("source", rpcConfig.RegistrySource).Msg("Failed to download registry")
		}
		log.Info().Str("source", rpcConfig.RegistrySource).Msg("Registry downloaded")
	}

	assetRegistry, err := config.NewRegistryLoader().InitializeRegistry(rpcConfig.RegistryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize registry")
	}
	log.Info().Int("chains", len(assetRegistry.Chains())).Msg("Loaded registry")

	connector, err := buildConnector(rpcConfig.Extensions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up wallet extensions")
	}

	builder, err := xcmapi.NewClient(rpcConfig.BuilderURLs, xcmapi.DefaultFailoverConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create builder client")
	}
	dispatcher := chain.NewDispatcher(assetRegistry)

	metrics.Register()
	recorder := metrics.Recorder{}

	resolver := currency.NewResolver(assetRegistry)
	submitter := transfer.NewSubmitter(assetRegistry, builder, dispatcher, recorder)

	var store *session.Store
	hub := events.NewHub(rpcConfig.AllowedOrigins, func(id string) (any, bool) {
		return store.Snapshot(id)
	})
	store = session.NewStore(resolver, connector, submitter, hub, recorder, session.StoreConfig{
		Defaults: form.Defaults{
			Origin:      models.ChainID(rpcConfig.DefaultOrigin),
			Destination: models.ChainID(rpcConfig.DefaultDestination),
			Address:     rpcConfig.DefaultAddress,
			Amount:      rpcConfig.DefaultAmount,
		},
		SubmitTimeout: rpcConfig.SubmitTimeout,
		IdleTTL:       30 * time.Minute,
	})
	go store.Run(ctx, time.Minute)

	service := rpc.NewPortalService(store, assetRegistry, resolver)
	server, err := rpc.NewServer(ctx, buildServerConfig(rpcConfig), service, http.HandlerFunc(hub.ServeWS))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create RPC server")
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
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
	hub.Close()
	dispatcher.Close()
	builder.Close()
	log.Info().Msg("Closed builder client and node connections")
}

// buildConnector registers the configured wallet extensions in config order.
// Keystore passphrases without an env var are asked for once at startup.
func buildConnector(extensions []config.ExtensionConfig) (*wallet.Connector, error) {
	connector := wallet.NewConnector(appName)
	for _, ext := range extensions {
		switch ext.Kind {
		case "keystore":
			passphrase := wallet.PassphraseFromEnv(ext.PassphraseEnv)
			if ext.PassphraseEnv == "" {
				pass, err := wallet.PromptPassphrase(fmt.Sprintf("Passphrase for %s: ", ext.Name))
				if err != nil {
					return nil, fmt.Errorf("extension %s: %w", ext.Name, err)
				}
				passphrase = wallet.StaticPassphrase(pass)
			}
			ks := wallet.NewKeystore(ext.Path, ext.SS58Prefix, passphrase)
			if err := connector.RegisterInjected(ext.Name, ks); err != nil {
				return nil, err
			}
		case "dev":
			uris := ext.Accounts
			if len(uris) == 0 {
				uris = wallet.DefaultDevAccounts
			}
			if err := connector.RegisterLegacy(ext.Name, wallet.NewDevKeyring(uris, ext.SS58Prefix)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("extension %s: unknown kind %q", ext.Name, ext.Kind)
		}
		log.Info().Str("extension", ext.Name).Str("kind", ext.Kind).Msg("Registered wallet extension")
	}
	return connector, nil
}

// createKeystore asks for a secret and a passphrase and writes a single
// account keystore.
func createKeystore(path, account string) error {
	secret, err := wallet.PromptPassphrase("Secret URI or seed for " + account + ": ")
	if err != nil {
		return err
	}
	pass, err := wallet.PromptPassphrase("New keystore passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := wallet.PromptPassphrase("Repeat passphrase: ")
	if err != nil {
		return err
	}
	if !bytes.Equal(pass, confirm) {
		return fmt.Errorf("passphrases do not match")
	}

	accounts := []wallet.KeystoreAccount{{Name: account, Secret: string(secret)}}
	return wallet.WriteKeystore(path, accounts, pass, securefile.DefaultKDF)
}

// buildServerConfig converts the loaded RPCPortalConfig to rpc.ServerConfig
func buildServerConfig(cfg *config.RPCPortalConfig) *rpc.ServerConfig {
	serverConfig := &rpc.ServerConfig{
		Address:        cfg.Host + ":" + strconv.Itoa(cfg.Port),
		AllowedOrigins: cfg.AllowedOrigins,
		EnableMetrics:  true,
	}

	if cfg.RatePerMinute > 0 {
		serverConfig.RatePerMinute = &cfg.RatePerMinute
	}
	if cfg.MaxConcurrentRequests > 0 {
		serverConfig.MaxConcurrentRequests = &cfg.MaxConcurrentRequests
	}
	// the request timeout must outlive a full submission
	if cfg.SubmitTimeout > 0 {
		serverConfig.RequestTimeout = cfg.SubmitTimeout + 10*time.Second
	}

	if cfg.EnableTracing || cfg.EnableMetrics || cfg.EnableLogs || cfg.UsePrometheus {
		serverConfig.OTelConfig = &rpc.OTelConfig{
			ServiceName:     defaultString(cfg.ServiceName, "spectra-xcm-portal"),
			ServiceVersion:  defaultString(cfg.ServiceVersion, "1.0.0"),
			Environment:     defaultString(cfg.Environment, "development"),
			EnableTracing:   cfg.EnableTracing,
			UseOTLPTraces:   cfg.UseOTLPTraces,
			OTLPTracesURL:   cfg.OTLPTracesURL,
			EnableMetrics:   cfg.EnableMetrics,
			UsePrometheus:   cfg.UsePrometheus,
			UseOTLPMetrics:  cfg.UseOTLPMetrics,
			OTLPMetricsURL:  cfg.OTLPMetricsURL,
			EnableLogs:      cfg.EnableLogs,
			UseOTLPLogs:     cfg.UseOTLPLogs,
			OTLPLogsURL:     cfg.OTLPLogsURL,
			InsecureOTLP:    cfg.InsecureOTLP,
			DevelopmentMode: cfg.DevelopmentMode,
		}
	}

	return serverConfig
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
