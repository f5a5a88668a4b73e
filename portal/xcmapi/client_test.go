package xcmapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/models"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/transfer"
	"github.com/Cogwheel-Validator/spectra-xcm-portal/portal/xcmapi"
	"github.com/zeebo/assert"
)

func strPtr(s string) *string { return &s }

func builderServer(t *testing.T, seen *map[string]any, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.URL.Path != "/x-transfer" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			_ = json.NewDecoder(r.Body).Decode(seen)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, urls ...string) *xcmapi.Client {
	t.Helper()
	c, err := xcmapi.NewClient(urls, xcmapi.DefaultFailoverConfig())
	assert.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestPayload_PerShape(t *testing.T) {
	sel := models.CurrencySelector{ID: strPtr("123"), Amount: "10"}

	p, err := xcmapi.Payload(transfer.ParaToPara{Origin: "Astar", Destination: "Moonbeam"}, sel, "addr")
	assert.NoError(t, err)
	assert.Equal(t, p.From, "Astar")
	assert.Equal(t, p.To, "Moonbeam")

	p, err = xcmapi.Payload(transfer.ParaToRelay{Origin: "Astar"}, sel, "addr")
	assert.NoError(t, err)
	assert.Equal(t, p.From, "Astar")
	assert.Equal(t, p.To, "")

	p, err = xcmapi.Payload(transfer.RelayToPara{Destination: "Astar"}, sel, "addr")
	assert.NoError(t, err)
	assert.Equal(t, p.From, "")
	assert.Equal(t, p.To, "Astar")

	_, err = xcmapi.Payload(transfer.RelayToPara{Destination: "Astar"}, sel, "")
	assert.Error(t, err)
}

func TestBuildTransfer_ParaToPara(t *testing.T) {
	var seen map[string]any
	srv := builderServer(t, &seen, http.StatusCreated, `"0x1f0b0300"`)
	c := newClient(t, srv.URL)

	built, err := c.BuildTransfer(context.Background(),
		transfer.ParaToPara{Origin: "Astar", Destination: "Moonbeam"},
		models.CurrencySelector{ID: strPtr("123"), Amount: "10000000000000000000"},
		"5F5586mfsnM6durWRLptYt3jSUs55KEmahdodQ5tQMr9iY96")
	assert.NoError(t, err)
	assert.Equal(t, built.CallHex, "0x1f0b0300")
	assert.Equal(t, built.Shape.Kind(), transfer.KindParaToPara)

	assert.Equal(t, seen["from"], "Astar")
	assert.Equal(t, seen["to"], "Moonbeam")
	assert.Equal(t, seen["address"], "5F5586mfsnM6durWRLptYt3jSUs55KEmahdodQ5tQMr9iY96")
	currency := seen["currency"].(map[string]any)
	assert.Equal(t, currency["id"], "123")
	assert.Equal(t, currency["amount"], "10000000000000000000")
	_, hasSymbol := currency["symbol"]
	assert.False(t, hasSymbol)
}

func TestBuildTransfer_RelayToParaOmitsFrom(t *testing.T) {
	var seen map[string]any
	srv := builderServer(t, &seen, http.StatusOK, `630803000100a10f`)
	c := newClient(t, srv.URL)

	built, err := c.BuildTransfer(context.Background(),
		transfer.RelayToPara{Destination: "Astar"},
		models.CurrencySelector{Symbol: strPtr("DOT"), Amount: "1"},
		"addr")
	assert.NoError(t, err)
	assert.Equal(t, built.CallHex, "0x630803000100a10f")

	_, hasFrom := seen["from"]
	assert.False(t, hasFrom)
	assert.Equal(t, seen["to"], "Astar")
}

func TestBuildTransfer_RejectedIsNotFailover(t *testing.T) {
	var hits atomic.Int32
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backup.Close)

	srv := builderServer(t, nil, http.StatusBadRequest, `{"statusCode":400,"message":"Asset not supported","error":"Bad Request"}`)
	c := newClient(t, srv.URL, backup.URL)

	_, err := c.BuildTransfer(context.Background(),
		transfer.ParaToRelay{Origin: "Astar"},
		models.CurrencySelector{Symbol: strPtr("DOT"), Amount: "1"}, "addr")
	assert.True(t, errors.Is(err, xcmapi.ErrRejected))
	assert.Equal(t, c.CurrentURL(), srv.URL)
	assert.Equal(t, hits.Load(), int32(0))
}

func TestBuildTransfer_ServerErrorSwitchesEndpointWithoutResend(t *testing.T) {
	var posts atomic.Int32
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts.Add(1)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`"0x0102"`))
	}))
	t.Cleanup(backup.Close)

	srv := builderServer(t, nil, http.StatusBadGateway, `upstream down`)
	c := newClient(t, srv.URL, backup.URL)

	_, err := c.BuildTransfer(context.Background(),
		transfer.ParaToRelay{Origin: "Astar"},
		models.CurrencySelector{Symbol: strPtr("DOT"), Amount: "1"}, "addr")
	assert.Error(t, err)
	assert.Equal(t, c.CurrentURL(), backup.URL)
	assert.Equal(t, posts.Load(), int32(0))

	built, err := c.BuildTransfer(context.Background(),
		transfer.ParaToRelay{Origin: "Astar"},
		models.CurrencySelector{Symbol: strPtr("DOT"), Amount: "1"}, "addr")
	assert.NoError(t, err)
	assert.Equal(t, built.CallHex, "0x0102")
	assert.Equal(t, posts.Load(), int32(1))
}

func TestBuildTransfer_CurrentURLDuringFailover(t *testing.T) {
	probing := make(chan struct{})
	release := make(chan struct{})
	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			close(probing)
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(backup.Close)

	srv := builderServer(t, nil, http.StatusServiceUnavailable, `maintenance`)
	c := newClient(t, srv.URL, backup.URL)

	done := make(chan error, 1)
	go func() {
		_, err := c.BuildTransfer(context.Background(),
			transfer.ParaToRelay{Origin: "Astar"},
			models.CurrencySelector{Symbol: strPtr("DOT"), Amount: "1"}, "addr")
		done <- err
	}()

	<-probing
	read := make(chan string, 1)
	go func() { read <- c.CurrentURL() }()
	select {
	case url := <-read:
		assert.Equal(t, url, srv.URL)
	case <-time.After(2 * time.Second):
		t.Fatal("CurrentURL blocked while an endpoint was probed")
	}

	close(release)
	assert.Error(t, <-done)
	assert.Equal(t, c.CurrentURL(), backup.URL)
}

func TestBuildTransfer_InvalidCall(t *testing.T) {
	srv := builderServer(t, nil, http.StatusOK, `not hex`)
	c := newClient(t, srv.URL)

	_, err := c.BuildTransfer(context.Background(),
		transfer.ParaToRelay{Origin: "Astar"},
		models.CurrencySelector{Symbol: strPtr("DOT"), Amount: "1"}, "addr")
	assert.Error(t, err)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := xcmapi.NewClient(nil, xcmapi.DefaultFailoverConfig())
	assert.Error(t, err)
}
