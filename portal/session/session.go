// Package session holds the per-browser portal state and drives the flow from
// wallet discovery to a submitted transfer.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/currency"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/form"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/wallet"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "session").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "session").Logger()
}

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrAccountNotFound = errors.New("account not found in connected extension")
)

// Event types published for a session.
const (
	EventUpdated   = "session.updated"
	EventSubmitted = "transfer.submitted"
	EventFailed    = "transfer.failed"
)

// Connector discovers and connects wallet extensions.
type Connector interface {
	ListExtensions() ([]string, error)
	Connect(ctx context.Context, name string) (wallet.Extension, error)
	GetAccounts(ctx context.Context, ext wallet.Extension) ([]wallet.Account, error)
}

// Submitter runs a transfer.
type Submitter interface {
	Submit(ctx context.Context, values models.FormValues, account wallet.Account) (*models.TransferReceipt, error)
}

// Publisher forwards session events to subscribers.
type Publisher interface {
	Publish(sessionID, eventType string, data any)
}

// Observer records session level metrics.
type Observer interface {
	ObserveConnect(extension, result string)
	ObserveResolution(options int, err error)
	SessionOpened()
	SessionClosed()
}

// AccountView is an account without its signer.
type AccountView struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Snapshot is the renderable state of a session.
type Snapshot struct {
	ID              string                  `json:"id"`
	Extensions      []string                `json:"extensions"`
	Extension       string                  `json:"extension,omitempty"`
	Accounts        []AccountView           `json:"accounts"`
	SelectedAccount string                  `json:"selected_account,omitempty"`
	Form            form.Fields             `json:"form"`
	Busy            bool                    `json:"busy"`
	LastError       string                  `json:"last_error,omitempty"`
	Receipt         *models.TransferReceipt `json:"receipt,omitempty"`
}

// FormPatch changes some form fields at once. Nil fields are left alone.
type FormPatch struct {
	Origin           *models.ChainID `json:"origin,omitempty"`
	Destination      *models.ChainID `json:"destination,omitempty"`
	CurrencyOptionID *string         `json:"currency_option_id,omitempty"`
	Address          *string         `json:"address,omitempty"`
	Amount           *string         `json:"amount,omitempty"`
}

type deps struct {
	connector     Connector
	submitter     Submitter
	publisher     Publisher
	observer      Observer
	submitTimeout time.Duration
}

// Session is the state of one browser tab. A submission runs at most once at
// a time, guarded by the busy flag.
type Session struct {
	id   string
	deps *deps

	busy atomic.Bool

	mu         sync.Mutex
	extensions []string
	extension  wallet.Extension
	accounts   []wallet.Account
	selected   int // index into accounts, -1 when none
	form       *form.Form
	lastError  error
	receipt    *models.TransferReceipt
	touched    time.Time
}

func (s *Session) ID() string {
	return s.id
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// Discover lists the installed extensions. When none are installed the
// session is left untouched and models.ErrNoExtensionFound is returned.
func (s *Session) Discover() ([]string, error) {
	names, err := s.deps.connector.ListExtensions()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.extensions = names
	s.touch()
	s.mu.Unlock()

	s.publish(EventUpdated)
	return names, nil
}

// SelectExtension connects the named extension and selects its first account.
// On any failure, including an extension without accounts, the previous
// wallet state is kept.
func (s *Session) SelectExtension(ctx context.Context, name string) ([]AccountView, error) {
	ext, err := s.deps.connector.Connect(ctx, name)
	if err != nil {
		s.observeConnect(name, connectResult(err))
		return nil, err
	}

	accounts, err := s.deps.connector.GetAccounts(ctx, ext)
	if err != nil {
		s.observeConnect(name, "error")
		return nil, err
	}
	if len(accounts) == 0 {
		s.observeConnect(name, "no_accounts")
		return nil, fmt.Errorf("%w: %s", models.ErrNoAccountsFound, name)
	}
	s.observeConnect(name, "ok")

	s.mu.Lock()
	s.extension = ext
	s.accounts = accounts
	s.selected = 0
	s.touch()
	views := accountViews(accounts)
	s.mu.Unlock()

	log.Info().Str("session", s.id).Str("extension", name).Int("accounts", len(accounts)).Msg("Extension connected")
	s.publish(EventUpdated)
	return views, nil
}

// SelectAccount picks the sending account among the connected ones.
func (s *Session) SelectAccount(address string) error {
	s.mu.Lock()
	if s.extension == nil {
		s.mu.Unlock()
		return models.ErrNoAccountSelected
	}
	idx := -1
	for i, acc := range s.accounts {
		if acc.Address == address {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	s.selected = idx
	s.touch()
	s.mu.Unlock()

	s.publish(EventUpdated)
	return nil
}

// UpdateForm applies patch to the form. The chain pair is applied first so a
// currency option in the same patch is checked against the new options.
func (s *Session) UpdateForm(patch FormPatch) error {
	s.mu.Lock()
	err := s.applyPatch(patch)
	s.touch()
	s.mu.Unlock()

	s.publish(EventUpdated)
	return err
}

func (s *Session) applyPatch(patch FormPatch) error {
	fields := s.form.Fields()
	if patch.Origin != nil || patch.Destination != nil {
		origin, destination := fields.Origin, fields.Destination
		if patch.Origin != nil {
			origin = *patch.Origin
		}
		if patch.Destination != nil {
			destination = *patch.Destination
		}
		if err := s.form.SetPair(origin, destination); err != nil {
			return fmt.Errorf("failed to resolve currencies for %s -> %s: %w", origin, destination, err)
		}
	}
	if patch.CurrencyOptionID != nil {
		if err := s.form.SetCurrencyOption(*patch.CurrencyOptionID); err != nil {
			return err
		}
	}
	if patch.Address != nil {
		s.form.SetAddress(*patch.Address)
	}
	if patch.Amount != nil {
		s.form.SetAmount(*patch.Amount)
	}
	return nil
}

// CurrencyOptions returns the options of the current chain pair.
func (s *Session) CurrencyOptions() []models.CurrencyOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.Fields().CurrencyOptions
}

// Submit validates the form and submits the transfer with the selected
// account. While a submission is running further calls return
// models.ErrBusy without doing anything. Failures are kept as the last error.
func (s *Session) Submit(ctx context.Context) (*models.TransferReceipt, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, models.ErrBusy
	}
	defer func() {
		s.busy.Store(false)
		s.publish(EventUpdated)
	}()

	s.mu.Lock()
	s.lastError = nil
	s.touch()
	var account wallet.Account
	hasAccount := s.selected >= 0 && s.selected < len(s.accounts)
	if hasAccount {
		account = s.accounts[s.selected]
	}
	values, formErr := s.form.Submit()
	s.mu.Unlock()

	s.publish(EventUpdated)

	if !hasAccount {
		return nil, s.fail(models.ErrNoAccountSelected)
	}
	if formErr != nil {
		return nil, s.fail(formErr)
	}

	if s.deps.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deps.submitTimeout)
		defer cancel()
	}

	receipt, err := s.deps.submitter.Submit(ctx, values, account)
	if err != nil {
		return nil, s.fail(err)
	}

	s.mu.Lock()
	s.receipt = receipt
	s.mu.Unlock()

	if s.deps.publisher != nil {
		s.deps.publisher.Publish(s.id, EventSubmitted, receipt)
	}
	return receipt, nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()

	log.Warn().Err(err).Str("session", s.id).Msg("Transfer not submitted")
	if s.deps.publisher != nil {
		s.deps.publisher.Publish(s.id, EventFailed, map[string]string{"error": err.Error()})
	}
	return err
}

// LastError returns the error of the last failed submission, if any.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Snapshot returns the renderable state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:         s.id,
		Extensions: append([]string(nil), s.extensions...),
		Accounts:   accountViews(s.accounts),
		Form:       s.form.Fields(),
		Busy:       s.busy.Load(),
		Receipt:    s.receipt,
	}
	if s.extension != nil {
		snap.Extension = s.extension.Name()
	}
	if s.selected >= 0 && s.selected < len(s.accounts) {
		snap.SelectedAccount = s.accounts[s.selected].Address
	}
	if s.lastError != nil {
		snap.LastError = s.lastError.Error()
	}
	return snap
}

func (s *Session) publish(eventType string) {
	if s.deps.publisher == nil {
		return
	}
	s.deps.publisher.Publish(s.id, eventType, s.Snapshot())
}

func (s *Session) observeConnect(extension, result string) {
	if s.deps.observer != nil {
		s.deps.observer.ObserveConnect(extension, result)
	}
}

// touch must be called with s.mu held.
func (s *Session) touch() {
	s.touched = time.Now()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func accountViews(accounts []wallet.Account) []AccountView {
	views := make([]AccountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, AccountView{Address: acc.Address, Name: acc.Name})
	}
	return views
}

func connectResult(err error) string {
	switch {
	case errors.Is(err, models.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, models.ErrExtensionNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// observedResolver reports every resolution to the observer.
type observedResolver struct {
	inner    form.OptionsResolver
	observer Observer
}

func (r observedResolver) ResolveOptions(origin, destination models.ChainID) (currency.Options, error) {
	opts, err := r.inner.ResolveOptions(origin, destination)
	if r.observer != nil {
		r.observer.ObserveResolution(len(opts.List), err)
	}
	return opts, err
}
