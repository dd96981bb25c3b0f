package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

const testUserAgent = "heat-stress-etl-test"

func testClient(timeout time.Duration) (*Client, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return NewClient(timeout, testUserAgent, metrics, slog.New(slog.NewTextHandler(io.Discard, nil))), metrics
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gia/wr/202410/10.htm", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html><body>index</body></html>"))
	}))
	defer srv.Close()

	c, metrics := testClient(5 * time.Second)
	body, err := c.Fetch(context.Background(), domain.IndexPage, srv.URL+"/gia/wr/202410/10.htm")
	require.NoError(t, err)

	assert.Contains(t, string(body), "index")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("index", "success")), 0)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, metrics := testClient(5 * time.Second)
	_, err := c.Fetch(context.Background(), domain.ArticlePage, srv.URL+"/missing.htm")
	require.Error(t, err)

	assert.Contains(t, err.Error(), "404")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FetchRequests.WithLabelValues("article", "error")), 0)
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := testClient(50 * time.Millisecond)
	_, err := c.Fetch(context.Background(), domain.IndexPage, srv.URL)
	require.Error(t, err)
}

func TestClient_Fetch_BadURL(t *testing.T) {
	c, _ := testClient(time.Second)
	_, err := c.Fetch(context.Background(), domain.IndexPage, "://bad")
	require.Error(t, err)
}
