package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wf4ever/rodl-go"
)

func TestClientSetsHeaders(t *testing.T) {
	var auth, ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		ua = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(WithToken("secret"), WithUserAgent("test-agent"))
	req, err := c.NewRequest(context.Background(), http.MethodDelete, srv.URL+"/ro1/", nil, "")
	require.NoError(t, err)

	resp, err := c.Do("DeleteResearchObject", req, http.StatusNoContent)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "test-agent", ua)
}

func TestClientUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("no access"))
	}))
	defer srv.Close()

	c := New()
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL, nil, "")
	require.NoError(t, err)

	_, err = c.Do("GetResource", req, http.StatusOK)
	var statusErr *rodl.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, "Forbidden", statusErr.Reason)
	assert.Equal(t, "no access", statusErr.Body)
	assert.Equal(t, "GetResource", statusErr.Operation)
}

func TestDoNoRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ann" {
			http.Redirect(w, r, "/body.rdf", http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New()
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL+"/ann", nil, "")
	require.NoError(t, err)
	resp, err := c.DoNoRedirect("GetAnnotation", req, http.StatusSeeOther)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/body.rdf", resp.Location())

	req, err = c.NewRequest(context.Background(), http.MethodGet, srv.URL+"/ann", nil, "")
	require.NoError(t, err)
	resp, err = c.Do("GetAnnotation", req, http.StatusOK)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/body.rdf", resp.URL)
}

func TestGetRDFUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "text/turtle")
		w.Write([]byte(`<http://x/a> <http://x/p> "v" .`))
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(WithCache(NewMemoryCache(time.Minute)))

	doc, err := c.GetRDF(ctx, "GetManifest", srv.URL+"/ro1/", "text/turtle")
	require.NoError(t, err)
	assert.Equal(t, "text/turtle", doc.ContentType)

	_, err = c.GetRDF(ctx, "GetManifest", srv.URL+"/ro1/", "text/turtle")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	c.Invalidate(ctx, srv.URL+"/ro1/")
	_, err = c.GetRDF(ctx, "GetManifest", srv.URL+"/ro1/", "text/turtle")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := New(WithMetrics(reg))
	req, err := c.NewRequest(context.Background(), http.MethodPost, srv.URL, []byte("x"), "text/plain")
	require.NoError(t, err)
	_, err = c.Do("CreateResearchObject", req, http.StatusCreated)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.requests.WithLabelValues("CreateResearchObject", "201")))
}

func TestWithBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := New(WithToken("first")).WithBearer("second")
	req, err := c.NewRequest(context.Background(), http.MethodGet, srv.URL, nil, "")
	require.NoError(t, err)
	_, err = c.Do("Get", req)
	require.NoError(t, err)
	assert.Equal(t, "Bearer second", auth)
}
