package monitoring

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务指标，注册在独立的 registry 上
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	predictions     *prometheus.CounterVec
	predictRecords  prometheus.Histogram
	predictDuration prometheus.Histogram
	feedClients     prometheus.Gauge
	bridgeMessages  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorpredict_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"handler", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sensorpredict_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorpredict_predictions_total",
				Help: "Prediction requests by outcome.",
			},
			[]string{"outcome", "cached"},
		),
		predictRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorpredict_prediction_records",
			Help:    "Records per batch after cleaning.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		predictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorpredict_prediction_duration_seconds",
			Help:    "Time spent decoding, cleaning and predicting a batch.",
			Buckets: prometheus.DefBuckets,
		}),
		feedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorpredict_feed_clients",
			Help: "Connected prediction feed clients.",
		}),
		bridgeMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorpredict_bridge_messages_total",
				Help: "MQTT sensor readings handled by outcome.",
			},
			[]string{"outcome"},
		),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.predictions,
		m.predictRecords,
		m.predictDuration,
		m.feedClients,
		m.bridgeMessages,
	)
	return m
}

// ObservePrediction 记录一次预测请求
func (m *Metrics) ObservePrediction(outcome string, records int, cached bool, duration time.Duration) {
	m.predictions.WithLabelValues(outcome, strconv.FormatBool(cached)).Inc()
	if outcome == "ok" {
		m.predictRecords.Observe(float64(records))
	}
	m.predictDuration.Observe(duration.Seconds())
}

// ObserveBridgeMessage 记录一条 MQTT 读数
func (m *Metrics) ObserveBridgeMessage(outcome string) {
	m.bridgeMessages.WithLabelValues(outcome).Inc()
}

// Handler 以 Prometheus 文本格式暴露指标
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware 按 handler 名称统计请求数和延迟
func (m *Metrics) Middleware(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			m.httpRequests.WithLabelValues(name, r.Method, strconv.Itoa(rw.status)).Inc()
			m.httpDuration.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack 推送路由的 websocket 升级需要
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}
