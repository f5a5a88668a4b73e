package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/securefile"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// KeystoreFile is the decrypted content of a keystore.
type KeystoreFile struct {
	Accounts []KeystoreAccount `json:"accounts"`
}

type KeystoreAccount struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// PassphraseFunc supplies the keystore passphrase. It is called on every enable.
type PassphraseFunc func() ([]byte, error)

// Keystore is an InjectedWallet backed by an encrypted file on disk.
// Enabling it decrypts the file; a wrong passphrase is a refusal.
type Keystore struct {
	path       string
	ss58Prefix uint16
	passphrase PassphraseFunc
}

func NewKeystore(path string, ss58Prefix uint16, passphrase PassphraseFunc) *Keystore {
	return &Keystore{path: path, ss58Prefix: ss58Prefix, passphrase: passphrase}
}

// WriteKeystore encrypts accounts into a new keystore file at path.
func WriteKeystore(path string, accounts []KeystoreAccount, passphrase []byte, kdf securefile.KDF) error {
	for _, acc := range accounts {
		if acc.Secret == "" {
			return fmt.Errorf("account %q has no secret", acc.Name)
		}
	}
	return securefile.WriteEncryptedJSON(path, KeystoreFile{Accounts: accounts}, passphrase, kdf)
}

func (k *Keystore) Enable(ctx context.Context, appName string) (InjectedHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pass, err := k.passphrase()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrPermissionDenied, err)
	}

	file, err := securefile.ReadEncryptedJSON[KeystoreFile](k.path, pass)
	clear(pass)
	if err != nil {
		if errors.Is(err, securefile.ErrInvalidPassphraseOrCorrupt) {
			return nil, fmt.Errorf("%w: %w", models.ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("failed to open keystore %s: %w", k.path, err)
	}

	h := &keystoreHandle{signers: make(map[string]*KeyringSigner, len(file.Accounts))}
	for _, acc := range file.Accounts {
		signer, err := NewKeyringSigner(acc.Secret, k.ss58Prefix)
		if err != nil {
			return nil, fmt.Errorf("keystore account %q: %w", acc.Name, err)
		}
		h.accounts = append(h.accounts, InjectedAccount{
			Address:   signer.Address(),
			Name:      acc.Name,
			PublicKey: signer.PublicKey(),
		})
		h.signers[signer.Address()] = signer
	}

	log.Info().Str("app", appName).Int("accounts", len(h.accounts)).Msg("Keystore unlocked")
	return h, nil
}

type keystoreHandle struct {
	mu       sync.RWMutex
	accounts []InjectedAccount
	signers  map[string]*KeyringSigner
}

func (h *keystoreHandle) Accounts(ctx context.Context) ([]InjectedAccount, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]InjectedAccount, len(h.accounts))
	copy(out, h.accounts)
	return out, nil
}

func (h *keystoreHandle) Signer() PayloadSigner {
	return h
}

func (h *keystoreHandle) SignFor(ctx context.Context, address string, ext *types.Extrinsic, opts types.SignatureOptions) error {
	h.mu.RLock()
	signer, ok := h.signers[address]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("keystore has no account %s", address)
	}
	return signer.SignExtrinsic(ctx, ext, opts)
}
