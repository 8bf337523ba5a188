package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "storyx", r.Header.Get("User-Agent"))
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second)
	defer client.Close()

	res, err := client.R().WithContext(context.Background()).Get("/ok")
	require.NoError(t, err)
	assert.NoError(t, Check("test", res))

	res, err = client.R().WithContext(context.Background()).Get("/fail")
	require.NoError(t, err)

	err = Check("test", res)
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusBadGateway, upstream.Status)
	assert.Equal(t, "upstream exploded", upstream.Detail)
	assert.Equal(t, "test returned 502: upstream exploded", upstream.Error())
}

func TestFailedWraps(t *testing.T) {
	cause := errors.New("connection refused")

	err := Failed("pinata", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pinata")
}

func TestNotConfigured(t *testing.T) {
	err := NotConfigured("PINATA_JWT")

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "PINATA_JWT not set", err.Error())
}
