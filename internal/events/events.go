// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	OrderPlaced    = "order.placed"
	OrderCancelled = "order.cancelled"
	OrderDelivered = "order.delivered"
)

type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	TotalPrice int64     `json:"total_price"`
	Status     string    `json:"status"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
	Close() error
}

type Kafka struct {
	writer *kafka.Writer
}

// New returns a Kafka publisher, or a no-op one when brokersCSV is empty.
func New(brokersCSV, topic string) Publisher {
	brokers := splitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return Nop{}
	}
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func (k *Kafka) Publish(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

func (k *Kafka) Close() error { return k.writer.Close() }

type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

func splitBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
