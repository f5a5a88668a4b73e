package wallet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "wallet").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "wallet").Logger()
}

type provider struct {
	name     string
	injected InjectedWallet
	legacy   LegacyWallet
}

// Connector knows the installed wallets and connects to them by name.
// Nothing is retried, a refused or failed connection is returned as is.
type Connector struct {
	appName string

	mu        sync.RWMutex
	order     []string
	providers map[string]provider
}

func NewConnector(appName string) *Connector {
	return &Connector{
		appName:   appName,
		providers: make(map[string]provider),
	}
}

// RegisterInjected installs a handle based wallet under name.
func (c *Connector) RegisterInjected(name string, w InjectedWallet) error {
	return c.register(provider{name: name, injected: w})
}

// RegisterLegacy installs a globally enabled wallet under name.
func (c *Connector) RegisterLegacy(name string, w LegacyWallet) error {
	return c.register(provider{name: name, legacy: w})
}

func (c *Connector) register(p provider) error {
	if p.name == "" {
		return errors.New("extension name is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.providers[p.name]; exists {
		return fmt.Errorf("extension %s is already registered", p.name)
	}
	c.order = append(c.order, p.name)
	c.providers[p.name] = p
	return nil
}

// ListExtensions returns the installed wallet names in registration order.
func (c *Connector) ListExtensions() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.order) == 0 {
		return nil, models.ErrNoExtensionFound
	}
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names, nil
}

// Connect enables the named wallet. A wallet that refuses access yields
// models.ErrPermissionDenied, other enable failures are returned as they are.
func (c *Connector) Connect(ctx context.Context, name string) (Extension, error) {
	c.mu.RLock()
	p, ok := c.providers[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrExtensionNotFound, name)
	}

	switch {
	case p.injected != nil:
		handle, err := p.injected.Enable(ctx, c.appName)
		if err != nil {
			log.Warn().Err(err).Str("extension", name).Msg("Extension refused to enable")
			return nil, connectError(name, err)
		}
		return &injectedExtension{name: name, handle: handle}, nil
	default:
		if err := p.legacy.EnableAll(ctx, c.appName); err != nil {
			log.Warn().Err(err).Str("extension", name).Msg("Extension refused to enable")
			return nil, connectError(name, err)
		}
		return &legacyExtension{name: name, wallet: p.legacy}, nil
	}
}

// GetAccounts lists the accounts of a connected wallet. An empty list is not an error.
func (c *Connector) GetAccounts(ctx context.Context, ext Extension) ([]Account, error) {
	accounts, err := ext.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("extension", ext.Name()).Int("accounts", len(accounts)).Msg("Listed accounts")
	return accounts, nil
}

// connectError keeps the cause. Wallets tag refusals with
// models.ErrPermissionDenied themselves, anything else is a fault.
func connectError(name string, err error) error {
	return fmt.Errorf("failed to enable %s: %w", name, err)
}
