// Package form holds the transfer form: the user-entered fields, the currency
// options for the selected chain pair and presence validation on submit.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/currency"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/go-playground/validator/v10"
)

var (
	ErrIncomplete    = errors.New("form is incomplete")
	ErrUnknownOption = errors.New("unknown currency option")
)

var validate = validator.New()

// ValidationError lists the form fields that are required but empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form is incomplete, missing: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrIncomplete
}

// OptionsResolver resolves currency options for a chain pair.
type OptionsResolver interface {
	ResolveOptions(origin, destination models.ChainID) (currency.Options, error)
}

// Defaults pre-fill a new form.
type Defaults struct {
	Origin      models.ChainID
	Destination models.ChainID
	Address     string
	Amount      string
}

// Fields is a snapshot of the form for rendering.
type Fields struct {
	Origin           models.ChainID          `json:"origin"`
	Destination      models.ChainID          `json:"destination"`
	CurrencyOptionID string                  `json:"currency_option_id"`
	Address          string                  `json:"address"`
	Amount           string                  `json:"amount"`
	CurrencyOptions  []models.CurrencyOption `json:"currency_options"`
}

// Form is the transfer form model. It is not safe for concurrent use,
// the owning session serializes access.
type Form struct {
	resolver OptionsResolver

	origin           models.ChainID
	destination      models.ChainID
	currencyOptionID string
	address          string
	amount           string

	options currency.Options
}

// New creates a form with the given defaults and resolves the initial options.
// A pair the registry cannot resolve leaves the form with no options.
func New(resolver OptionsResolver, defaults Defaults) (*Form, error) {
	f := &Form{
		resolver:    resolver,
		origin:      defaults.Origin,
		destination: defaults.Destination,
		address:     defaults.Address,
		amount:      defaults.Amount,
	}
	if err := f.refreshOptions(); err != nil {
		return f, err
	}
	return f, nil
}

// SetOrigin changes the origin chain and recomputes the currency options.
func (f *Form) SetOrigin(origin models.ChainID) error {
	return f.SetPair(origin, f.destination)
}

// SetDestination changes the destination chain and recomputes the currency options.
func (f *Form) SetDestination(destination models.ChainID) error {
	return f.SetPair(f.origin, destination)
}

// SetPair sets both chains at once. The options are only recomputed when the pair changed.
func (f *Form) SetPair(origin, destination models.ChainID) error {
	if origin == f.origin && destination == f.destination {
		return nil
	}
	f.origin = origin
	f.destination = destination
	return f.refreshOptions()
}

// refreshOptions rebuilds the options and resets the selected key to the first one.
func (f *Form) refreshOptions() error {
	options, err := f.resolver.ResolveOptions(f.origin, f.destination)
	if err != nil {
		f.options = currency.Options{}
		f.currencyOptionID = ""
		return err
	}
	f.options = options
	f.currencyOptionID = options.First()
	return nil
}

// SetCurrencyOption selects one of the current options. Empty clears the selection.
func (f *Form) SetCurrencyOption(key string) error {
	if key != "" {
		if _, ok := f.options.Map[key]; !ok {
			return fmt.Errorf("%w %q for %s -> %s", ErrUnknownOption, key, f.origin, f.destination)
		}
	}
	f.currencyOptionID = key
	return nil
}

func (f *Form) SetAddress(address string) {
	f.address = address
}

func (f *Form) SetAmount(amount string) {
	f.amount = amount
}

// Options returns the current currency options.
func (f *Form) Options() []models.CurrencyOption {
	return f.options.List
}

// Fields returns a snapshot of the form.
func (f *Form) Fields() Fields {
	opts := make([]models.CurrencyOption, len(f.options.List))
	copy(opts, f.options.List)
	return Fields{
		Origin:           f.origin,
		Destination:      f.destination,
		CurrencyOptionID: f.currencyOptionID,
		Address:          f.address,
		Amount:           f.amount,
		CurrencyOptions:  opts,
	}
}

// Submit checks that every field is filled and returns the values with the
// selected option resolved to its asset. No format checks are made here, the
// builder and the node reject bad addresses or amounts.
func (f *Form) Submit() (models.FormValues, error) {
	values := models.FormValues{
		From:             f.origin,
		To:               f.destination,
		CurrencyOptionID: f.currencyOptionID,
		Address:          strings.TrimSpace(f.address),
		Amount:           strings.TrimSpace(f.amount),
	}

	if err := validate.Struct(values); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return models.FormValues{}, &ValidationError{Missing: missing}
		}
		return models.FormValues{}, fmt.Errorf("failed to validate form: %w", err)
	}

	if asset, ok := f.options.Lookup(values.CurrencyOptionID); ok {
		values.Currency = asset
	}
	return values, nil
}
