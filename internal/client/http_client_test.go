package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_GetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/products/list_products", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NotEmpty(t, r.Header.Get("X-Trace-ID"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1"},{"id":"2"}]`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", 0)

	var out []map[string]string
	require.NoError(t, c.Get(context.Background(), "/products/list_products", &out))
	assert.Len(t, out, 2)
}

func TestHTTPClient_PostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Tools"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"c1","name":"Tools"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)

	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, c.Post(context.Background(), "products/create_category", map[string]string{"name": "Tools"}, &out))
	assert.Equal(t, "c1", out.ID)
}

func TestHTTPClient_DeleteWithQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "a b&c", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`{"message":"deleted"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)
	err := c.Delete(context.Background(), "/products/delete_product", nil, RequestOptions{
		QueryParams: map[string]string{"id": "a b&c"},
	})
	require.NoError(t, err)
}

func TestHTTPClient_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, 0)
			var out []any
			err := c.Get(context.Background(), "/x", &out)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, status, se.StatusCode)
			assert.JSONEq(t, `{"message":"nope"}`, string(se.Body))
			assert.Nil(t, out)
		})
	}
}

func TestHTTPClient_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, 0)
	var out json.RawMessage
	require.NoError(t, c.Delete(context.Background(), "/x", &out))
	assert.Nil(t, out)
}

func TestHTTPClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewHTTPClient(srv.URL, time.Second)
	err := c.Get(context.Background(), "/x", nil)

	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestHTTPClient_RequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewHTTPClient(srv.URL, 0)
	err := c.Get(context.Background(), "/slow", nil, RequestOptions{Timeout: 50 * time.Millisecond})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPClient_BuildURL(t *testing.T) {
	c := NewHTTPClient("http://backend:3001/", 0)

	got, err := c.buildURL("/products/delete_category", map[string]string{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3001/products/delete_category?id=42", got)

	abs, err := c.buildURL("https://elsewhere/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere/x", abs)
}

func TestHTTPClient_DefaultHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "catalog-admin/dev", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "per-request", r.Header.Get("X-Tenant"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", 0)
	assert.Equal(t, srv.URL, c.BaseURL())

	c.SetDefaultHeader("User-Agent", "catalog-admin/dev")
	c.SetDefaultHeader("X-Tenant", "default")

	err := c.Do(context.Background(), RequestOptions{
		Method:  http.MethodGet,
		URL:     "/products/list_products",
		Headers: map[string]string{"X-Tenant": "per-request"},
	}, nil)
	require.NoError(t, err)
}
