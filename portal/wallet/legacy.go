package wallet

import (
	"context"
	"fmt"
)

type legacyExtension struct {
	name   string
	wallet LegacyWallet
}

func (e *legacyExtension) Name() string {
	return e.name
}

func (e *legacyExtension) Accounts(ctx context.Context) ([]Account, error) {
	raw, err := e.wallet.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts of %s: %w", e.name, err)
	}

	accounts := make([]Account, 0, len(raw))
	for _, acc := range raw {
		signer, err := e.wallet.SignerFor(ctx, acc.Address)
		if err != nil {
			return nil, fmt.Errorf("no signer for %s in %s: %w", acc.Address, e.name, err)
		}
		accounts = append(accounts, Account{
			Address:   acc.Address,
			Name:      acc.Name,
			PublicKey: acc.PublicKey,
			Signer:    signer,
		})
	}
	return accounts, nil
}
