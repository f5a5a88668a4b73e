// Package wallet connects to signing wallets ("extensions") and exposes their
// accounts behind a single capability, whatever shape the wallet has.
package wallet

import (
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Signer signs extrinsics on behalf of a single account.
type Signer interface {
	SignExtrinsic(ctx context.Context, ext *types.Extrinsic, opts types.SignatureOptions) error
}

// PayloadSigner signs on behalf of any account held by a wallet.
type PayloadSigner interface {
	SignFor(ctx context.Context, address string, ext *types.Extrinsic, opts types.SignatureOptions) error
}

// Account is an address the user may send from, together with its signer.
type Account struct {
	Address   string
	Name      string
	PublicKey []byte
	Signer    Signer
}

// InjectedAccount is the raw account entry a wallet reports.
type InjectedAccount struct {
	Address   string `json:"address"`
	Name      string `json:"name,omitempty"`
	PublicKey []byte `json:"public_key,omitempty"`
}

// Extension is a connected wallet.
type Extension interface {
	Name() string
	Accounts(ctx context.Context) ([]Account, error)
}

// InjectedWallet hands out a per-connection handle when enabled.
// Every account of the handle signs through the handle's signer.
type InjectedWallet interface {
	Enable(ctx context.Context, appName string) (InjectedHandle, error)
}

// InjectedHandle is a live connection to an InjectedWallet.
type InjectedHandle interface {
	Accounts(ctx context.Context) ([]InjectedAccount, error)
	Signer() PayloadSigner
}

// LegacyWallet is enabled once globally, signers are looked up per address.
type LegacyWallet interface {
	EnableAll(ctx context.Context, appName string) error
	Accounts(ctx context.Context) ([]InjectedAccount, error)
	SignerFor(ctx context.Context, address string) (Signer, error)
}
