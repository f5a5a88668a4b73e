package registry

import (
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
)

// NewAssetRegistry creates an empty registry, call BuildIndex before use.
func NewAssetRegistry() *AssetRegistry {
	return &AssetRegistry{
		chainByName: make(map[ChainName]*RegistryChain),
		symbolIndex: make(map[ChainName]map[string]bool),
	}
}

// BuildIndex indexes the given chains. Chain order is kept and used for Chains().
func (r *AssetRegistry) BuildIndex(chains []RegistryChain) error {
	if len(chains) == 0 {
		return fmt.Errorf("no chains to build registry for")
	}

	r.chains = make([]RegistryChain, 0, len(chains))

	// First pass: register chains and reject duplicates
	for _, chain := range chains {
		if chain.Name == "" {
			return fmt.Errorf("chain without a name")
		}
		if _, exists := r.chainByName[chain.Name]; exists {
			return fmt.Errorf("duplicate chain %s", chain.Name)
		}
		r.chains = append(r.chains, chain)
		r.chainByName[chain.Name] = &r.chains[len(r.chains)-1]
	}

	// Second pass: validate relay links and index asset symbols
	for i := range r.chains {
		chain := &r.chains[i]
		if !chain.Relay && chain.RelayChain != "" {
			relay, ok := r.chainByName[chain.RelayChain]
			if !ok {
				return fmt.Errorf("chain %s references unknown relay chain %s", chain.Name, chain.RelayChain)
			}
			if !relay.Relay {
				return fmt.Errorf("chain %s references %s which is not a relay chain", chain.Name, chain.RelayChain)
			}
		}

		symbols := make(map[string]bool)
		for j := range chain.Assets {
			asset := &chain.Assets[j]
			// foreign assets are only addressable by id on their host chain
			if asset.Foreign && (asset.AssetID == nil || *asset.AssetID == "") {
				return fmt.Errorf("chain %s: foreign asset %s has no asset id", chain.Name, symbolOf(*asset))
			}
			asset.Chain = chain.Name
			if sym := chain.Assets[j].Symbol; sym != nil && *sym != "" {
				symbols[strings.ToUpper(*sym)] = true
			}
		}
		r.symbolIndex[chain.Name] = symbols
	}

	return nil
}

func symbolOf(asset models.Asset) string {
	if asset.Symbol == nil {
		return "without symbol"
	}
	return *asset.Symbol
}
