package transfer

import "github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"

// DetermineCurrency turns the selected asset into the selector the builder
// understands. Assets with an id are addressed by id, anything else by symbol.
func DetermineCurrency(asset *models.Asset, amount string) (models.CurrencySelector, error) {
	if asset == nil {
		return models.CurrencySelector{}, models.ErrMissingCurrency
	}

	if asset.AssetID != nil && *asset.AssetID != "" {
		id := *asset.AssetID
		return models.CurrencySelector{ID: &id, Amount: amount}, nil
	}

	symbol := ""
	if asset.Symbol != nil {
		symbol = *asset.Symbol
	}
	return models.CurrencySelector{Symbol: &symbol, Amount: amount}, nil
}
