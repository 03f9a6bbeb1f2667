package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorpredict/config"
)

func TestMetricsMiddlewareAndHandler(t *testing.T) {
	m := NewMetrics()
	h := m.Middleware("predict")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("predict", "POST", "400")))

	m.ObservePrediction("ok", 3, false, 5*time.Millisecond)
	m.ObservePrediction("no_input", 0, false, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("ok", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.predictions.WithLabelValues("no_input", "false")))

	m.ObserveBridgeMessage("ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bridgeMessages.WithLabelValues("ok")))

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sensorpredict_predictions_total")
}

func TestFeedHubBroadcastsToClients(t *testing.T) {
	m := NewMetrics()
	hub := NewFeedHub(nil, m)
	go hub.Run()
	defer hub.Stop()

	srv := httptest.NewServer(m.Middleware("feed")(http.HandlerFunc(hub.HandleWebSocket)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(map[string]any{
		"client_id":    "T1",
		"analog_value": 812,
		"timestamp":    1700000000123,
		"predict":      "oscuridad",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	// 客户端直接读取顶层字段
	var msg map[string]any
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "T1", msg["client_id"])
	assert.Equal(t, "oscuridad", msg["predict"])
	assert.EqualValues(t, 812, msg["analog_value"])
	assert.EqualValues(t, 1700000000123, msg["timestamp"])
	assert.NotContains(t, msg, "data")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedClients))
}

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(config.TracingConfig{Exporter: "none"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	var buf bytes.Buffer
	shutdown, err = initTracing(config.TracingConfig{Exporter: "stdout", ServiceName: "test"}, &buf)
	require.NoError(t, err)

	h := WrapHandler("health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "health")

	_, err = InitTracing(config.TracingConfig{Exporter: "zipkin"})
	assert.Error(t, err)
}
