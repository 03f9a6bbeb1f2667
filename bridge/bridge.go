// Package bridge 把 MQTT 主题上的传感器读数送入预测流程，并把带类别名的结果推送出去
package bridge

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sensorpredict/config"
	"sensorpredict/ml"
)

const (
	OutcomeOK            = "ok"
	OutcomeInvalid       = "invalid"
	OutcomeRejected      = "rejected"
	OutcomePublishFailed = "publish_failed"

	disconnectQuiesce = 250 // 毫秒
)

type Predictor interface {
	Predict(ctx context.Context, body []byte) ([]float64, error)
}

// Publisher 把预测结果原样广播给推送客户端
type Publisher interface {
	Publish(data any) error
}

type Observer interface {
	ObserveBridgeMessage(outcome string)
}

// Reading 一条传感器消息
type Reading struct {
	ClientID    string   `json:"client_id"`
	AnalogValue *float64 `json:"analog_value"`
}

// Prediction 每条读数推送给客户端的内容
type Prediction struct {
	ClientID    string  `json:"client_id"`
	AnalogValue float64 `json:"analog_value"`
	Timestamp   int64   `json:"timestamp"`
	Predict     string  `json:"predict"`
}

type nopObserver struct{}

func (nopObserver) ObserveBridgeMessage(string) {}

type Bridge struct {
	cfg       config.MQTTConfig
	predictor Predictor
	labels    ml.Labels
	feed      Publisher
	observer  Observer
	logger    *zap.Logger

	newClient func(*mqtt.ClientOptions) mqtt.Client
	now       func() time.Time
	client    mqtt.Client
}

type Option func(*Bridge)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(b *Bridge) {
		if o != nil {
			b.observer = o
		}
	}
}

func New(cfg config.MQTTConfig, predictor Predictor, labels ml.Labels, feed Publisher, opts ...Option) (*Bridge, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt topic is required")
	}
	if predictor == nil || feed == nil {
		return nil, errors.New("bridge needs a predictor and a feed")
	}
	if labels == nil {
		labels = ml.DefaultLabels()
	}
	b := &Bridge{
		cfg:       cfg,
		predictor: predictor,
		labels:    labels,
		feed:      feed,
		observer:  nopObserver{},
		logger:    zap.NewNop(),
		newClient: mqtt.NewClient,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Start 连接 broker，每次（重新）连接时重新订阅
func (b *Bridge) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.cfg.Broker)
	clientID := b.cfg.ClientID
	if clientID == "" {
		clientID = "sensorpredict-" + uuid.NewString()[:8]
	}
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetOrderMatters(false)
	if b.cfg.TLS.Enabled() {
		tlsCfg, err := loadTLSConfig(b.cfg.TLS)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = b.onConnect
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		b.logger.Warn("mqtt connection lost", zap.Error(err))
	}

	b.client = b.newClient(opts)
	token := b.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect to %s: %w", b.cfg.Broker, token.Error())
	}
	return nil
}

// loadTLSConfig 构建双向TLS配置（AWS IoT Core 等 broker 需要客户端证书）
func loadTLSConfig(cfg config.TLSConfig) (*tls.Config, error) {
	caPEM, err := os.ReadFile(cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read mqtt ca file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in %s", cfg.CAFile)
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load mqtt client certificate: %w", err)
	}
	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (b *Bridge) onConnect(client mqtt.Client) {
	token := client.Subscribe(b.cfg.Topic, b.cfg.QoS, b.onMessage)
	if token.Wait() && token.Error() != nil {
		b.logger.Error("mqtt subscribe failed", zap.String("topic", b.cfg.Topic), zap.Error(token.Error()))
		return
	}
	b.logger.Info("subscribed to sensor topic", zap.String("topic", b.cfg.Topic))
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	if _, err := b.HandleReading(context.Background(), msg.Payload()); err != nil {
		b.logger.Warn("dropping sensor reading", zap.String("topic", msg.Topic()), zap.Error(err))
	}
}

func (b *Bridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(disconnectQuiesce)
	}
}

// HandleReading 以当前时间为时间戳预测单条读数，并推送带类别名的结果
func (b *Bridge) HandleReading(ctx context.Context, payload []byte) (Prediction, error) {
	var reading Reading
	if err := json.Unmarshal(payload, &reading); err != nil {
		b.observer.ObserveBridgeMessage(OutcomeInvalid)
		return Prediction{}, fmt.Errorf("decode reading: %w", err)
	}
	if reading.AnalogValue == nil {
		b.observer.ObserveBridgeMessage(OutcomeInvalid)
		return Prediction{}, errors.New("reading has no analog_value")
	}

	ts := b.now().UnixMilli()
	batch, err := json.Marshal([]map[string]any{{
		"timestamp":    ts,
		"analog_value": *reading.AnalogValue,
	}})
	if err != nil {
		b.observer.ObserveBridgeMessage(OutcomeInvalid)
		return Prediction{}, fmt.Errorf("encode batch: %w", err)
	}

	preds, err := b.predictor.Predict(ctx, batch)
	if err != nil {
		b.observer.ObserveBridgeMessage(OutcomeRejected)
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	if len(preds) != 1 {
		b.observer.ObserveBridgeMessage(OutcomeRejected)
		return Prediction{}, fmt.Errorf("expected one prediction, got %d", len(preds))
	}

	out := Prediction{
		ClientID:    reading.ClientID,
		AnalogValue: *reading.AnalogValue,
		Timestamp:   ts,
		Predict:     b.labels.Name(preds[0]),
	}
	if err := b.feed.Publish(out); err != nil {
		b.observer.ObserveBridgeMessage(OutcomePublishFailed)
		return out, fmt.Errorf("publish prediction: %w", err)
	}
	b.observer.ObserveBridgeMessage(OutcomeOK)
	return out, nil
}
