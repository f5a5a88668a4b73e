package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
)

var ErrUnknownChain = errors.New("unknown chain")

// Chains returns all known chain identifiers in registry order.
func (r *AssetRegistry) Chains() []models.ChainID {
	ids := make([]models.ChainID, len(r.chains))
	for i, chain := range r.chains {
		ids[i] = chain.Name
	}
	return ids
}

// GetChain returns the chain entry for the given id.
func (r *AssetRegistry) GetChain(id models.ChainID) (*RegistryChain, error) {
	chain, ok := r.chainByName[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChain, id)
	}
	return chain, nil
}

// IsRelayChain reports whether id is a relay chain. Unknown chains are not relays.
func (r *AssetRegistry) IsRelayChain(id models.ChainID) bool {
	chain, ok := r.chainByName[id]
	return ok && chain.Relay
}

// SupportedAssets returns the assets of origin that can be sent to destination,
// in the order the origin lists them.
//
// Relay transfers (either side is a relay chain) only move the relay's native
// token. Parachain to parachain transfers move every origin asset whose symbol
// is also registered on the destination. Both sides must share a relay chain.
func (r *AssetRegistry) SupportedAssets(origin, destination models.ChainID) ([]models.Asset, error) {
	from, err := r.GetChain(origin)
	if err != nil {
		return nil, err
	}
	to, err := r.GetChain(destination)
	if err != nil {
		return nil, err
	}

	assets := []models.Asset{}
	if from.Name == to.Name || ecosystem(from) != ecosystem(to) {
		return assets, nil
	}

	if from.Relay || to.Relay {
		relay := from
		if to.Relay {
			relay = to
		}
		for _, asset := range from.Assets {
			if asset.Symbol != nil && strings.EqualFold(*asset.Symbol, relay.NativeSymbol) {
				assets = append(assets, asset)
			}
		}
		return assets, nil
	}

	destSymbols := r.symbolIndex[to.Name]
	for _, asset := range from.Assets {
		if asset.Symbol == nil {
			continue
		}
		if destSymbols[strings.ToUpper(*asset.Symbol)] {
			assets = append(assets, asset)
		}
	}
	return assets, nil
}

// ecosystem returns the relay chain a chain belongs to
func ecosystem(chain *RegistryChain) ChainName {
	if chain.Relay {
		return chain.Name
	}
	return chain.RelayChain
}
