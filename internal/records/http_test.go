package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hospital-records-server/internal/config"
)

func newTestHTTPSource(t *testing.T, h http.HandlerFunc) *HTTPSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPSource(config.UpstreamConfig{
		BaseURL:         srv.URL,
		Token:           "secret",
		Timeout:         time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}, zap.NewNop())
}

func TestHTTPSourceDecodesWrappedAndBareBodies(t *testing.T) {
	src := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/appointments":
			_, _ = w.Write([]byte(`{"data":[{"_id":"a1"},{"_id":"a2"}]}`))
		case "/patients":
			_, _ = w.Write([]byte(`[{"_id":"p1","firstName":"Ada"}]`))
		case "/patients/p1":
			_, _ = w.Write([]byte(`{"data":{"_id":"p1"}}`))
		case "/appointments/a1":
			_, _ = w.Write([]byte(`{"_id":"a1","status":"Completed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	appts, err := src.FetchAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "a2", appts[1]["_id"])

	patients, err := src.FetchPatients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "Ada", patients[0]["firstName"])

	p, err := src.FetchPatientByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p["_id"])

	a, err := src.FetchAppointmentByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Completed", a["status"])

	_, err = src.FetchAppointmentByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPSourceListSurvivesMalformedElements(t *testing.T) {
	src := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"_id":"a1"},"corrupt",{"_id":"a3"}]}`))
	})

	appts, err := src.FetchAppointments(context.Background())
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.Equal(t, "a1", appts[0]["_id"])
	assert.Empty(t, appts[1])
	assert.Equal(t, "a3", appts[2]["_id"])

	_, err = decodeList([]byte(`{"data":"not a list"}`))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPSourceUpdateSendsSparsePayload(t *testing.T) {
	var got map[string]any
	src := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/appointments/a1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	err := src.UpdateAppointment(context.Background(), "a1", map[string]any{
		"metadata": map[string]any{"gender": "Female"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"metadata": map[string]any{"gender": "Female"}}, got)
}

func TestHTTPSourceMapsRejection(t *testing.T) {
	src := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"date is in the past"}`))
	})

	err := src.UpdateAppointment(context.Background(), "a1", map[string]any{"date": "2001-01-01"})
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "date is in the past")
}

func TestHTTPSourceBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	src := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := src.FetchAppointments(ctx)
		assert.ErrorIs(t, err, ErrUnavailable)
	}

	_, err := src.FetchAppointments(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load(), "open breaker must not reach the upstream")
}

func TestHTTPSourceNotFoundDoesNotTrip(t *testing.T) {
	var calls atomic.Int32
	src := newTestHTTPSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 4; i++ {
		_, err := src.FetchPatientByID(context.Background(), "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(4), calls.Load())
}

func TestUnwrap(t *testing.T) {
	assert.JSONEq(t, `[1]`, string(unwrap([]byte(`{"data":[1]}`))))
	assert.JSONEq(t, `{"_id":"x"}`, string(unwrap([]byte(` {"_id":"x"} `))))
	assert.JSONEq(t, `{"data":null,"_id":"x"}`, string(unwrap([]byte(`{"data":null,"_id":"x"}`))))
}
