package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherFetch(t *testing.T) {
	payload := []byte("%PDF-1.4 fake document body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(1024)
	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestHTTPFetcherExpiredStatuses(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusGone, http.StatusUnauthorized} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		f := NewHTTPFetcher(1024)
		_, err := f.Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, ErrLinkExpired, "status %d", status)
		srv.Close()
	}
}

func TestHTTPFetcherUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(1024)
	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLinkExpired)
}

func TestHTTPFetcherSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(1024)
	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err, "expected the size limit to reject the body")
}

func TestHTTPFetcherContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(1024)
	_, err := f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
