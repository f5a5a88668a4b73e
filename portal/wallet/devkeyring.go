package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultDevAccounts are the well known development accounts of Substrate chains.
var DefaultDevAccounts = []string{"//Alice", "//Bob", "//Charlie", "//Dave", "//Eve", "//Ferdie"}

// DevKeyring is a LegacyWallet over development secret URIs. It must be
// enabled before its accounts can be listed.
type DevKeyring struct {
	uris       []string
	ss58Prefix uint16

	mu       sync.RWMutex
	enabled  bool
	accounts []InjectedAccount
	signers  map[string]*KeyringSigner
}

func NewDevKeyring(uris []string, ss58Prefix uint16) *DevKeyring {
	if len(uris) == 0 {
		uris = DefaultDevAccounts
	}
	return &DevKeyring{uris: uris, ss58Prefix: ss58Prefix}
}

func (d *DevKeyring) EnableAll(ctx context.Context, appName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.enabled {
		return nil
	}

	accounts := make([]InjectedAccount, 0, len(d.uris))
	signers := make(map[string]*KeyringSigner, len(d.uris))
	for _, uri := range d.uris {
		signer, err := NewKeyringSigner(uri, d.ss58Prefix)
		if err != nil {
			return fmt.Errorf("dev account %s: %w", uri, err)
		}
		accounts = append(accounts, InjectedAccount{
			Address:   signer.Address(),
			Name:      strings.TrimLeft(uri, "/"),
			PublicKey: signer.PublicKey(),
		})
		signers[signer.Address()] = signer
	}

	d.accounts = accounts
	d.signers = signers
	d.enabled = true
	log.Info().Str("app", appName).Int("accounts", len(accounts)).Msg("Dev keyring enabled")
	return nil
}

func (d *DevKeyring) Accounts(ctx context.Context) ([]InjectedAccount, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.enabled {
		return nil, fmt.Errorf("dev keyring is not enabled")
	}
	out := make([]InjectedAccount, len(d.accounts))
	copy(out, d.accounts)
	return out, nil
}

func (d *DevKeyring) SignerFor(ctx context.Context, address string) (Signer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	signer, ok := d.signers[address]
	if !ok {
		return nil, fmt.Errorf("dev keyring has no account %s", address)
	}
	return signer, nil
}
