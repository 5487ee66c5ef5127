package storefront

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.Logger = quietLogger()
	return NewClient(srv.URL, opts)
}

func TestProductsSendsPagingAndHeaders(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = io.WriteString(w, `{"products":[{"id":1,"title":"Tee","handle":"tee","variants":[]}]}`)
	}, Options{UserAgent: "test-agent", AcceptLanguage: "zh-CN", Cookie: "session=abc"})

	products, err := c.Products(context.Background(), 3, 250)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tee", products[0].Title)

	require.NotNil(t, got)
	assert.Equal(t, "/products.json", got.URL.Path)
	assert.Equal(t, "250", got.URL.Query().Get("limit"))
	assert.Equal(t, "3", got.URL.Query().Get("page"))
	assert.Equal(t, "test-agent", got.Header.Get("User-Agent"))
	assert.Equal(t, "zh-CN", got.Header.Get("Accept-Language"))
	assert.Equal(t, "session=abc", got.Header.Get("Cookie"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
}

func TestCollectionProductsEscapesHandle(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{"products":[]}`)
	}, Options{})

	products, err := c.CollectionProducts(context.Background(), "summer sale", 1, 250)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Equal(t, "/collections/summer%20sale/products.json", path)
}

func TestFailureKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   FailureKind
	}{
		{"server error", http.StatusInternalServerError, `{}`, TransportFailure},
		{"not found", http.StatusNotFound, `{"errors":"Not Found"}`, TransportFailure},
		{"html", http.StatusOK, `<html>captcha</html>`, MalformedResponse},
		{"missing key", http.StatusOK, `{"items":[]}`, MalformedResponse},
		{"null key", http.StatusOK, `{"products":null}`, MalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, Options{})

			_, err := c.Products(context.Background(), 1, 250)
			var fe *FetchError
			require.True(t, errors.As(err, &fe), "got %v", err)
			assert.Equal(t, tt.kind, fe.Kind)
			assert.Equal(t, tt.kind == MalformedResponse, IsMalformed(err))
		})
	}
}

func TestDataTimeoutIsTransportFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, Options{DataTimeout: 50 * time.Millisecond})

	_, err := c.Collections(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, TransportFailure, fe.Kind)
}

func TestDetect(t *testing.T) {
	t.Run("products probe", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			assert.Equal(t, "1", r.URL.Query().Get("limit"))
			_, _ = io.WriteString(w, `{"products":[]}`)
		}, Options{})
		assert.True(t, c.Detect(context.Background()))
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("falls back to collections", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/products.json" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			_, _ = io.WriteString(w, `{"collections":[]}`)
		}, Options{})
		assert.True(t, c.Detect(context.Background()))
	})

	t.Run("not a storefront", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `<!doctype html><title>Blog</title>`)
		}, Options{})
		assert.False(t, c.Detect(context.Background()))
	})
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestInjectedDoer(t *testing.T) {
	doer := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial refused")
	})
	c := NewClient("https://shop.example", Options{HTTP: doer, Logger: quietLogger()})

	_, err := c.Collections(context.Background())
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, TransportFailure, fe.Kind)
	assert.Zero(t, fe.Status)
	assert.Contains(t, err.Error(), "dial refused")
}
