package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/rainfall-alert-service/internal/adapter/http"
	"github.com/couchcryptid/rainfall-alert-service/internal/adapter/memory"
	"github.com/couchcryptid/rainfall-alert-service/internal/domain"
	"github.com/couchcryptid/rainfall-alert-service/internal/ingest"
	"github.com/couchcryptid/rainfall-alert-service/internal/observability"
)

const contentTypeJSON = "application/json"

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingStore struct{}

func (failingStore) AppendReading(_ context.Context, _ domain.Reading) (domain.Reading, error) {
	return domain.Reading{}, errors.New("permission denied")
}

func (failingStore) DailyTotal(_ context.Context, _ string) (domain.DailyTotal, error) {
	return domain.DailyTotal{}, errors.New("permission denied")
}

var fixedNow = time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, readyErr error) (*httpadapter.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := ingest.NewService(store, clockwork.NewFakeClockAt(fixedNow), discardLogger(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", svc, store, &mockReadiness{err: readyErr}, discardLogger()), store
}

func postJSON(srv http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rainfall/logs", strings.NewReader(body))
	req.Header.Set("Content-Type", contentTypeJSON)
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestIngest_JSONNumber(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := postJSON(srv, `{"amount": 12.5}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeJSON, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, fmt.Sprintf(`{"status":"logged","entry":{"timestamp":%d,"amount":12.5}}`, fixedNow.UnixMilli()), rec.Body.String())
	assert.Equal(t, 1, store.Len())
}

func TestIngest_NumericString(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := postJSON(srv, `{"amount": "30"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	entry := decode(t, rec)["entry"].(map[string]any)
	assert.InEpsilon(t, 30.0, entry["amount"], 0.0001)
	assert.Equal(t, 1, store.Len())
}

func TestIngest_FormEncoded(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rainfall/logs", strings.NewReader(url.Values{"amount": {"7.25"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logged", decode(t, rec)["status"])
	assert.Equal(t, 1, store.Len())
}

func TestIngest_InvalidAmount(t *testing.T) {
	cases := map[string]string{
		"non-numeric string": `{"amount": "abc"}`,
		"missing field":      `{}`,
		"empty string":       `{"amount": ""}`,
		"null":               `{"amount": null}`,
		"empty body":         ``,
		"malformed json":     `{"amount":`,
		"boolean":            `{"amount": true}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, store := newTestServer(t, nil)

			rec := postJSON(srv, body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"amount required"}`, rec.Body.String())
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestIngest_StorageFailure(t *testing.T) {
	svc := ingest.NewService(failingStore{}, clockwork.NewFakeClockAt(fixedNow), discardLogger(), observability.NewMetricsForTesting())
	srv := httpadapter.NewServer(":0", svc, failingStore{}, &mockReadiness{}, discardLogger())

	rec := postJSON(srv, `{"amount": 5}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Contains(t, body["error"], "permission denied")
	assert.Len(t, body, 1)
}

func TestIngest_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/logs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDailyTotal(t *testing.T) {
	srv, store := newTestServer(t, nil)
	require.NoError(t, store.SaveDailyTotal(context.Background(), domain.DailyTotal{DateKey: "2024-03-01", Total: 105}))

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/daily-totals/2024-03-01", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"date":"2024-03-01","total":105}`, rec.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/daily-totals/2024-03-02", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/daily-totals/yesterday", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		failing := httpadapter.NewServer(":0", nil, failingStore{}, &mockReadiness{}, discardLogger())
		rec := httptest.NewRecorder()
		failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/daily-totals/2024-03-01", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
	t.Run("saturated total encodes", func(t *testing.T) {
		require.NoError(t, store.SaveDailyTotal(context.Background(), domain.DailyTotal{DateKey: "2024-03-03", Total: math.MaxFloat64}))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/daily-totals/2024-03-03", nil))
		assert.Equal(t, http.StatusOK, rec.Code)

		var body domain.DailyTotal
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, math.MaxFloat64, body.Total)
	})

	t.Run("unencodable total", func(t *testing.T) {
		require.NoError(t, store.SaveDailyTotal(context.Background(), domain.DailyTotal{DateKey: "2024-03-04", Total: math.NaN()}))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rainfall/daily-totals/2024-03-04", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error"`)
	})
}

func TestHealthzReturns200(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv, _ := newTestServer(t, fmt.Errorf("redis unreachable"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
