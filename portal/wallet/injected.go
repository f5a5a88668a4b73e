package wallet

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

type injectedExtension struct {
	name   string
	handle InjectedHandle
}

func (e *injectedExtension) Name() string {
	return e.name
}

func (e *injectedExtension) Accounts(ctx context.Context) ([]Account, error) {
	raw, err := e.handle.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of %s: %w", e.name, err)
	}

	signer := e.handle.Signer()
	accounts := make([]Account, 0, len(raw))
	for _, acc := range raw {
		accounts = append(accounts, Account{
			Address:   acc.Address,
			Name:      acc.Name,
			PublicKey: acc.PublicKey,
			Signer:    &addressSigner{address: acc.Address, signer: signer},
		})
	}
	return accounts, nil
}

// addressSigner binds a wallet wide signer to one address.
type addressSigner struct {
	address string
	signer  PayloadSigner
}

func (s *addressSigner) SignExtrinsic(ctx context.Context, ext *types.Extrinsic, opts types.SignatureOptions) error {
	return s.signer.SignFor(ctx, s.address, ext, opts)
}
