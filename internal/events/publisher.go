package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventrobil-pos/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleCompletedType is the AMQP message type of SaleCompleted.
const SaleCompletedType = "sale.completed"

// Publisher is told about sales after they commit. Publishing never affects the sale.
type Publisher interface {
	SaleCompleted(ctx context.Context, sale *models.Sale) error
	Close() error
}

// SaleCompleted is the message body.
type SaleCompleted struct {
	SaleID    int64           `json:"sale_id"`
	Timestamp time.Time       `json:"timestamp"`
	CreatedBy string          `json:"created_by"`
	Total     decimal.Decimal `json:"total"`
	Lines     []SaleLine      `json:"lines"`
}

type SaleLine struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// NewSaleCompleted builds the payload from a committed sale.
func NewSaleCompleted(sale *models.Sale) SaleCompleted {
	msg := SaleCompleted{
		SaleID:    sale.Number,
		Timestamp: sale.CreatedAt,
		CreatedBy: sale.CreatedBy,
		Total:     sale.Total,
		Lines:     make([]SaleLine, len(sale.Items)),
	}
	for i, item := range sale.Items {
		msg.Lines[i] = SaleLine{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return msg
}

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends SaleCompleted messages to a durable RabbitMQ queue.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel channel
	queue   string
	log     *zap.Logger
}

// NewAMQPPublisher connects, opens a channel and declares the queue.
func NewAMQPPublisher(url, queue string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}
	log.Info("RabbitMQ publisher ready", zap.String("queue", q.Name))

	return &AMQPPublisher{conn: conn, channel: ch, queue: q.Name, log: log}, nil
}

func (p *AMQPPublisher) SaleCompleted(ctx context.Context, sale *models.Sale) error {
	body, err := json.Marshal(NewSaleCompleted(sale))
	if err != nil {
		return fmt.Errorf("marshal sale event: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(publishCtx,
		"",      // default exchange
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         SaleCompletedType,
			MessageId:    fmt.Sprintf("sale-%d", sale.Number),
			Timestamp:    sale.CreatedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish sale %d: %w", sale.Number, err)
	}
	p.log.Debug("Sale event published", zap.Int64("sale", sale.Number), zap.String("queue", p.queue))
	return nil
}

func (p *AMQPPublisher) Close() error {
	var firstErr error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			firstErr = err
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Noop is used when no broker is configured.
type Noop struct{}

func (Noop) SaleCompleted(context.Context, *models.Sale) error { return nil }
func (Noop) Close() error                                       { return nil }
