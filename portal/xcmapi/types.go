package xcmapi

import "github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"

// TransferPayload is the body of POST /x-transfer. From and To are omitted when
// the relay chain is the implicit endpoint.
type TransferPayload struct {
	From     string                  `json:"from,omitempty"`
	To       string                  `json:"to,omitempty"`
	Currency models.CurrencySelector `json:"currency"`
	Address  string                  `json:"address" validate:"required"`
}

// ErrorResponse is what the builder returns on a rejected request.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}
