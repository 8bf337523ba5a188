package ipasset

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphabot-ai/storyx/internal/httpclient"
)

func TestRelayRegisterRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ip-assets/root", r.URL.Path)
		assert.Equal(t, "Bearer relay-token", r.Header.Get("Authorization"))

		var reg RootRegistration
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reg))
		assert.Equal(t, "0xspg", reg.SPGNFTContract)
		assert.Equal(t, "0xiphash", reg.Metadata.IPMetadataHash)
		if assert.Len(t, reg.Terms, 1) {
			assert.Equal(t, FlavorCreativeCommonsAttribution, reg.Terms[0].Flavor)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transaction_hash":"0xtx","asset_id":"0xip","license_term_ids":["1"]}`))
	}))
	defer srv.Close()

	relay := NewRelaySubmitter(srv.URL, "relay-token", 5*time.Second)
	defer relay.Close()

	result, err := relay.RegisterRoot(context.Background(), RootRegistration{
		SPGNFTContract: "0xspg",
		Metadata:       MetadataRef{IPMetadataHash: "0xiphash"},
		Terms:          []Terms{{Flavor: FlavorCreativeCommonsAttribution, Currency: WIPTokenAddress}},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xtx", result.TransactionHash)
	assert.Equal(t, "0xip", result.AssetID)
	assert.Equal(t, []string{"1"}, result.LicenseTermIDs)
}

func TestRelayRegisterDerivative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ip-assets/derivative", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var reg DerivativeRegistration
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reg))
		assert.Equal(t, "0xparent", reg.ParentAssetID)
		assert.Equal(t, "7", reg.LicenseTermID)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transaction_hash":"0xtx2","asset_id":"0xchild"}`))
	}))
	defer srv.Close()

	relay := NewRelaySubmitter(srv.URL, "", 5*time.Second)
	defer relay.Close()

	result, err := relay.RegisterDerivative(context.Background(), DerivativeRegistration{
		ParentAssetID: "0xparent",
		LicenseTermID: "7",
	})
	require.NoError(t, err)
	assert.Equal(t, "0xchild", result.AssetID)
}

func TestRelayUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("rpc unavailable"))
	}))
	defer srv.Close()

	relay := NewRelaySubmitter(srv.URL, "", 5*time.Second)
	defer relay.Close()

	_, err := relay.RegisterRoot(context.Background(), RootRegistration{})

	var upstream *httpclient.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusServiceUnavailable, upstream.Status)
}

func TestRelayNotConfigured(t *testing.T) {
	relay := NewRelaySubmitter("", "", time.Second)
	defer relay.Close()

	_, err := relay.RegisterRoot(context.Background(), RootRegistration{})
	assert.ErrorIs(t, err, httpclient.ErrNotConfigured)
}
