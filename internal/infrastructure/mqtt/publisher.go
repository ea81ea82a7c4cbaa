// Package mqtt публикует события с дефектами в MQTT-брокер.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
	"line-inspector/internal/logging"
)

const (
	DefaultTopic   = "inspector/events"
	connectTimeout = 30 * time.Second
	publishTimeout = 10 * time.Second
)

// Config параметры подключения к брокеру
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// client часть mqtt.Client, которой пользуется издатель
type client interface {
	Connect() mqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher отправляет JSON каждого события в топик <topic>/<поток>
type Publisher struct {
	mu     sync.Mutex
	client client
	topic  string
	broker string
	logger *log.Logger
}

// NewPublisher создаёт издателя; соединение устанавливает Connect
func NewPublisher(cfg Config, logger *log.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker is empty: %w", entity.ErrConfiguration)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("sink", "mqtt")

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("line-inspector-%d", time.Now().UnixNano())
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("connected to broker", "broker", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("connection to broker lost", "broker", cfg.Broker, "err", err)
	})

	return newPublisher(mqtt.NewClient(opts), cfg, logger), nil
}

func newPublisher(c client, cfg Config, logger *log.Logger) *Publisher {
	topic := strings.TrimRight(cfg.Topic, "/")
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{client: c, topic: topic, broker: cfg.Broker, logger: logger}
}

// Connect подключается к брокеру
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	if err := wait(ctx, token, connectTimeout); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.broker, err)
	}
	return nil
}

// Publish отправляет событие с QoS 0
func (p *Publisher) Publish(ctx context.Context, ev *entity.DetectionEvent) error {
	payload, err := json.Marshal(NewPayload(ev))
	if err != nil {
		return fmt.Errorf("mqtt payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnected() {
		return fmt.Errorf("not connected to MQTT broker %s", p.broker)
	}

	topic := p.Topic(ev.Feed)
	token := p.client.Publish(topic, 0, false, payload)
	if err := wait(ctx, token, publishTimeout); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	p.logger.Debug("event published", "topic", topic, "bytes", len(payload))
	return nil
}

// Topic возвращает топик потока
func (p *Publisher) Topic(feed string) string {
	return p.topic + "/" + entity.FeedTag(feed)
}

// Disconnect закрывает соединение
func (p *Publisher) Disconnect() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("timeout after %s", timeout)
	}
}

var _ port.EventSink = (*Publisher)(nil)
