package models

import "time"

// ChainID is the symbolic name of a parachain or relay chain, e.g. "Astar" or "Polkadot".
type ChainID string

// Asset describes a transferable asset as reported by the asset registry.
type Asset struct {
	Symbol   *string `json:"symbol,omitempty"`   // e.g., "DOT"
	AssetID  *string `json:"asset_id,omitempty"` // e.g., "42259045809535163221576417993425387648"
	Decimals int     `json:"decimals"`           // smallest unit exponent
	Foreign  bool    `json:"foreign"`            // true if the asset is not native to the chain
	Chain    ChainID `json:"chain"`              // chain the descriptor belongs to
}

// Selectable reports whether the asset can be offered in a currency selector.
func (a Asset) Selectable() bool {
	return (a.Symbol != nil && *a.Symbol != "") || (a.AssetID != nil && *a.AssetID != "")
}

// CurrencyOption is the UI projection of an Asset.
type CurrencyOption struct {
	Value string `json:"value"` // stable key, "SYMBOL-ID"
	Label string `json:"label"` // e.g., "USDT - 1984"
}

// CurrencySelector is the payload the transfer-builder uses to pick an asset.
// Exactly one of ID or Symbol is set.
type CurrencySelector struct {
	ID     *string `json:"id,omitempty"`
	Symbol *string `json:"symbol,omitempty"`
	Amount string  `json:"amount"`
}

// IsID reports whether the selector addresses the asset by id.
func (c CurrencySelector) IsID() bool {
	return c.ID != nil
}

// FormValues is what the transfer form hands over on submit.
type FormValues struct {
	From             ChainID `json:"from" validate:"required"`
	To               ChainID `json:"to" validate:"required"`
	CurrencyOptionID string  `json:"currency_option_id" validate:"required"`
	Address          string  `json:"address" validate:"required"`
	Amount           string  `json:"amount" validate:"required"`
	Currency         *Asset  `json:"currency,omitempty"` // resolved from the option map, nil if the key is stale
}

// TransferRequest is a single transfer handed to the transfer-builder.
type TransferRequest struct {
	Origin      ChainID          `json:"origin"`
	Destination ChainID          `json:"destination"`
	Currency    CurrencySelector `json:"currency"`
	Address     string           `json:"address"`
}

// TransferReceipt is returned once a transaction was accepted by the node.
type TransferReceipt struct {
	TxHash        string    `json:"tx_hash"`
	Shape         string    `json:"shape"`          // para_to_para, para_to_relay, relay_to_para
	Origin        ChainID   `json:"origin"`         // chain the extrinsic was submitted to
	Destination   ChainID   `json:"destination"`    // requested destination
	Amount        string    `json:"amount"`         // smallest unit
	DisplayAmount string    `json:"display_amount"` // amount shifted by asset decimals
	SubmittedAt   time.Time `json:"submitted_at"`
}
