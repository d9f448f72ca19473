package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	appinterfaces "github.com/vinaysengar-17/stock-trading/internal/application/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const DefaultExchange = "trading.trades"

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends trade events to a durable fanout exchange.
type Publisher struct {
	conn     *amqp.Connection
	channel  channel
	exchange string
	logger   *logrus.Logger
	mu       sync.Mutex
}

// NewPublisher dials RabbitMQ and declares the exchange.
func NewPublisher(url, exchange string, logger *logrus.Logger) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	p := newPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, logger *logrus.Logger) *Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Publisher{channel: ch, exchange: exchange, logger: logger}
}

var _ appinterfaces.TradeEventPublisher = (*Publisher)(nil)

func (p *Publisher) PublishTradeRecorded(ctx context.Context, event appinterfaces.TradeRecordedEvent) error {
	if event.Type == "" {
		event.Type = appinterfaces.EventTradeRecorded
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.Trade.ID.String(),
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.logger.WithFields(logrus.Fields{
		"exchange": p.exchange,
		"trade_id": event.Trade.ID.String(),
		"stock":    event.Trade.StockName,
	}).Debug("trade event published")
	return nil
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if err := p.channel.Close(); err != nil {
		p.logger.Errorf("close rabbitmq channel: %v", err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Errorf("close rabbitmq connection: %v", err)
		}
	}
}
