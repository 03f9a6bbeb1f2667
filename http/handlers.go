package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"sensorpredict/ml"
	"sensorpredict/monitoring"
)

type handlers struct {
	predictor Predictor
	model     ml.Info
	logger    *zap.Logger
}

type predictResponse struct {
	Prediction []float64 `json:"prediction"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string   `json:"status"`
	Model    string   `json:"model"`
	Features []string `json:"features"`
}

func registerRoutes(mux *http.ServeMux, cfg ServerConfig, deps Dependencies) {
	h := &handlers{predictor: deps.Predictor, model: deps.Model, logger: deps.Logger}

	route := func(pattern, name string, handler http.Handler) {
		handler = monitoring.WrapHandler(name, handler)
		if deps.Metrics != nil {
			handler = deps.Metrics.Middleware(name)(handler)
		}
		mux.Handle(pattern, handler)
	}

	route("GET /{$}", "welcome", http.HandlerFunc(h.handleWelcome))
	route("GET /health", "health", http.HandlerFunc(h.handleHealth))
	route("POST /predict", "predict", RequestSizeMiddleware(cfg.MaxBodyBytes)(http.HandlerFunc(h.handlePredict)))

	if cfg.MetricsPath != "" && deps.Metrics != nil {
		mux.Handle("GET "+cfg.MetricsPath, deps.Metrics.Handler())
	}
	if cfg.FeedPath != "" && deps.Feed != nil {
		feed := http.Handler(http.HandlerFunc(deps.Feed.HandleWebSocket))
		if deps.Metrics != nil {
			feed = deps.Metrics.Middleware("feed")(feed)
		}
		mux.Handle("GET "+cfg.FeedPath, feed)
	}
}

func (h *handlers) handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "sensor prediction api",
	})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	features := h.model.Features
	if features == nil {
		features = []string{}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Model: h.model.Type, Features: features})
}

// handlePredict 成功时返回200和每条保留记录的预测值，失败时返回400和错误信息
func (h *handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return
	}

	body, err = decodeBody(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preds, err := h.predictor.Predict(r.Context(), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if preds == nil {
		preds = []float64{}
	}
	writeJSON(w, http.StatusOK, predictResponse{Prediction: preds})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
