package predict

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"sensorpredict/ml"
)

// Recorder 每次预测请求记录一次
type Recorder interface {
	ObservePrediction(outcome string, records int, cached bool, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObservePrediction(string, int, bool, time.Duration) {}

// Service 对请求体依次解码、清洗并调用模型
type Service struct {
	model    ml.Model
	cache    *lru.Cache[string, []float64]
	recorder Recorder
	logger   *zap.Logger
}

type Option func(*Service) error

// WithCache 启用以清洗后表指纹为键的 LRU 缓存，大小为0时不缓存
func WithCache(size int) Option {
	return func(s *Service) error {
		if size < 0 {
			return fmt.Errorf("cache size must not be negative, got %d", size)
		}
		if size == 0 {
			s.cache = nil
			return nil
		}
		cache, err := lru.New[string, []float64](size)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) error {
		if r != nil {
			s.recorder = r
		}
		return nil
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) error {
		if logger != nil {
			s.logger = logger
		}
		return nil
	}
}

func NewService(model ml.Model, opts ...Option) (*Service, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	s := &Service{
		model:    model,
		recorder: nopRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) Model() ml.Model {
	return s.model
}

// Predict 按顺序返回清洗后每条记录的预测值，所有错误均为 *RequestError
func (s *Service) Predict(ctx context.Context, body []byte) ([]float64, error) {
	_, span := otel.Tracer("sensorpredict/predict").Start(ctx, "predict.Service.Predict",
		trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	start := time.Now()
	preds, records, cached, err := s.predict(body)
	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		// 错误信息可能含有单元格内容，日志只记录类别
		s.logger.Debug("prediction rejected", zap.String("kind", outcome))
	}
	span.SetAttributes(
		attribute.Int("predict.records", records),
		attribute.Bool("predict.cached", cached),
	)
	s.recorder.ObservePrediction(outcome, records, cached, time.Since(start))
	return preds, err
}

func (s *Service) predict(body []byte) ([]float64, int, bool, error) {
	table, err := DecodeBatch(body)
	if err != nil {
		return nil, 0, false, err
	}
	cleaned, err := Clean(table)
	if err != nil {
		return nil, 0, false, err
	}
	records := cleaned.Len()

	var key string
	if s.cache != nil {
		key = cleaned.Fingerprint()
		if preds, ok := s.cache.Get(key); ok {
			return append([]float64(nil), preds...), records, true, nil
		}
	}

	preds, err := s.invoke(cleaned)
	if err != nil {
		return nil, records, false, newError(KindModel, "", err)
	}
	if len(preds) != records {
		return nil, records, false, newError(KindModel,
			fmt.Sprintf("model returned %d predictions for %d records", len(preds), records), nil)
	}
	for i, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, records, false, newError(KindModel,
				fmt.Sprintf("model produced a non-finite prediction for record %d", i), nil)
		}
	}
	if s.cache != nil {
		s.cache.Add(key, append([]float64(nil), preds...))
	}
	return preds, records, false, nil
}

// invoke 把模型 panic 转为错误
func (s *Service) invoke(t *ml.Table) (preds []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			preds = nil
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return s.model.Predict(t)
}
