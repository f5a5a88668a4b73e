package wallet

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// KeyringSigner signs with an sr25519 key pair held in memory.
type KeyringSigner struct {
	pair signature.KeyringPair
}

// NewKeyringSigner derives a key pair from a secret URI (mnemonic, hex seed or
// dev path such as "//Alice") and encodes its address with ss58Prefix.
func NewKeyringSigner(secret string, ss58Prefix uint16) (*KeyringSigner, error) {
	pair, err := signature.KeyringPairFromSecret(secret, ss58Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key pair: %w", err)
	}
	return &KeyringSigner{pair: pair}, nil
}

func (s *KeyringSigner) Address() string {
	return s.pair.Address
}

func (s *KeyringSigner) PublicKey() []byte {
	return s.pair.PublicKey
}

func (s *KeyringSigner) SignExtrinsic(ctx context.Context, ext *types.Extrinsic, opts types.SignatureOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ext.Sign(s.pair, opts); err != nil {
		return fmt.Errorf("failed to sign extrinsic for %s: %w", s.pair.Address, err)
	}
	return nil
}
