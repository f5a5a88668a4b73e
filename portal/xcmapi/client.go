// Package xcmapi is the client of the XCM transfer builder API.
package xcmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/transfer"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "xcmapi").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "xcmapi").Logger()
}

const transferPath = "/x-transfer"

var validate = validator.New()

// ErrRejected is returned when the builder answers with a 4xx.
var ErrRejected = errors.New("transfer builder rejected the request")

// Client builds XCM calls through the builder API. It keeps a primary endpoint
// and switches to a backup when the primary stops answering. A failed request
// is never resent, the switch only affects the next request.
type Client struct {
	httpClient     *http.Client
	primaryURL     string
	backupURLs     []string
	currentURL     string
	mu             sync.RWMutex
	healthChecker  *healthChecker
	failoverConfig FailoverConfig
}

// FailoverConfig controls failover behavior
type FailoverConfig struct {
	// HealthCheckInterval is how often to check if the primary endpoint is back up
	HealthCheckInterval time.Duration
	// HealthPath is requested with GET to probe an endpoint
	HealthPath string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
}

func DefaultFailoverConfig() FailoverConfig {
	return FailoverConfig{
		HealthCheckInterval: 30 * time.Second,
		HealthPath:          "/",
		Timeout:             30 * time.Second,
	}
}

type healthChecker struct {
	client    *Client
	stopCh    chan struct{}
	stoppedCh chan struct{}
	isRunning bool
	mu        sync.Mutex
}

// NewClient creates a builder client. urls[0] is the primary endpoint, the
// rest are backups.
func NewClient(urls []string, config FailoverConfig) (*Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one builder url is required")
	}
	if config.HealthPath == "" {
		config.HealthPath = "/"
	}

	primary := strings.TrimSuffix(urls[0], "/")
	if _, err := url.ParseRequestURI(primary); err != nil {
		return nil, fmt.Errorf("invalid builder url %s: %w", primary, err)
	}

	validBackups := make([]string, 0, len(urls)-1)
	for _, u := range urls[1:] {
		u = strings.TrimSuffix(u, "/")
		if _, err := url.ParseRequestURI(u); err != nil {
			log.Warn().Err(err).Str("url", u).Msg("Invalid backup URL, skipping")
			continue
		}
		validBackups = append(validBackups, u)
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: config.Timeout},
		primaryURL:     primary,
		backupURLs:     validBackups,
		currentURL:     primary,
		failoverConfig: config,
	}

	if len(validBackups) > 0 && config.HealthCheckInterval > 0 {
		client.startHealthChecker()
	}

	log.Info().
		Str("primary", primary).
		Int("backups", len(validBackups)).
		Msg("Builder client initialized")
	return client, nil
}

func (c *Client) startHealthChecker() {
	c.healthChecker = &healthChecker{
		client:    c,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	c.healthChecker.start()
}

func (h *healthChecker) start() {
	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		return
	}
	h.isRunning = true
	h.mu.Unlock()

	go func() {
		defer close(h.stoppedCh)
		ticker := time.NewTicker(h.client.failoverConfig.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-h.stopCh:
				return
			case <-ticker.C:
				h.checkAndRestore()
			}
		}
	}()
}

func (h *healthChecker) stop() {
	h.mu.Lock()
	if !h.isRunning {
		h.mu.Unlock()
		return
	}
	h.isRunning = false
	h.mu.Unlock()

	close(h.stopCh)
	<-h.stoppedCh
}

func (h *healthChecker) checkAndRestore() {
	current := h.client.CurrentURL()
	if current == h.client.primaryURL {
		return
	}
	if h.client.isEndpointHealthy(context.Background(), h.client.primaryURL) {
		h.client.mu.Lock()
		h.client.currentURL = h.client.primaryURL
		h.client.mu.Unlock()
		log.Info().Str("url", h.client.primaryURL).Msg("Restored primary endpoint")
	}
}

func (c *Client) isEndpointHealthy(ctx context.Context, endpoint string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+c.failoverConfig.HealthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", endpoint).Msg("Health check failed")
		return false
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	return resp.StatusCode < http.StatusInternalServerError
}

// CurrentURL returns the endpoint requests are sent to.
func (c *Client) CurrentURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentURL
}

// failover switches to the next healthy endpoint, if any. Endpoints are
// probed without holding c.mu so CurrentURL never waits on a health check.
func (c *Client) failover(ctx context.Context) bool {
	from := c.CurrentURL()

	allURLs := append([]string{c.primaryURL}, c.backupURLs...)
	currentIdx := 0
	for i, u := range allURLs {
		if u == from {
			currentIdx = i
			break
		}
	}

	for i := 1; i < len(allURLs); i++ {
		next := allURLs[(currentIdx+i)%len(allURLs)]
		if !c.isEndpointHealthy(ctx, next) {
			continue
		}
		c.mu.Lock()
		// another request or the health checker may have moved on already
		if c.currentURL == from {
			c.currentURL = next
		}
		c.mu.Unlock()
		log.Info().Str("url", next).Msg("Failover to endpoint")
		return true
	}

	log.Warn().Str("url", from).Msg("All endpoints unhealthy, staying on current")
	return false
}

// Close stops the health checker.
func (c *Client) Close() {
	if c.healthChecker != nil {
		c.healthChecker.stop()
	}
}

// Payload builds the request body for a shape.
func Payload(shape transfer.Shape, currency models.CurrencySelector, address string) (TransferPayload, error) {
	p := TransferPayload{Currency: currency, Address: address}
	switch s := shape.(type) {
	case transfer.ParaToPara:
		p.From = string(s.Origin)
		p.To = string(s.Destination)
	case transfer.ParaToRelay:
		p.From = string(s.Origin)
	case transfer.RelayToPara:
		p.To = string(s.Destination)
	default:
		return TransferPayload{}, fmt.Errorf("unknown transfer shape %T", shape)
	}
	if err := validate.Struct(p); err != nil {
		return TransferPayload{}, fmt.Errorf("invalid transfer payload: %w", err)
	}
	return p, nil
}

// BuildTransfer asks the builder for the encoded call of a transfer.
func (c *Client) BuildTransfer(ctx context.Context, shape transfer.Shape, currency models.CurrencySelector, address string) (*transfer.BuiltTransfer, error) {
	payload, err := Payload(shape, currency, address)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer payload: %w", err)
	}

	endpoint := c.CurrentURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+transferPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if len(c.backupURLs) > 0 && ctx.Err() == nil {
			c.failover(ctx)
		}
		return nil, fmt.Errorf("builder request to %s failed: %w", endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read builder response: %w", err)
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s", ErrRejected, errorMessage(resp.StatusCode, respBody))
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		if len(c.backupURLs) > 0 {
			c.failover(ctx)
		}
		return nil, fmt.Errorf("builder HTTP %d: %s", resp.StatusCode, errorMessage(resp.StatusCode, respBody))
	}

	callHex, err := decodeCall(respBody)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("shape", shape.Kind()).Str("endpoint", endpoint).Msg("Built transfer")
	return &transfer.BuiltTransfer{Shape: shape, CallHex: callHex}, nil
}

// decodeCall accepts either a bare hex string or a JSON encoded one.
func decodeCall(body []byte) (string, error) {
	raw := strings.TrimSpace(string(body))
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal([]byte(raw), &raw); err != nil {
			return "", fmt.Errorf("failed to parse builder response: %w", err)
		}
	}
	if !strings.HasPrefix(raw, "0x") {
		raw = "0x" + raw
	}
	call, err := codec.HexDecodeString(raw)
	if err != nil || len(call) < 2 {
		return "", fmt.Errorf("builder returned an invalid call: %q", raw)
	}
	return raw, nil
}

func errorMessage(status int, body []byte) string {
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return er.Message
	}
	if len(body) == 0 {
		return http.StatusText(status)
	}
	return string(body)
}
