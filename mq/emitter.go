// Package mq publishes domain events for other services to consume.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderEventsChannel carries order lifecycle events.
const OrderEventsChannel = "order-events"

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status"
)

type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	MealID        string    `json:"mealId,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	ChefEmail     string    `json:"chefEmail,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	Quantity      int64     `json:"quantity,omitempty"`
	Status        string    `json:"status"`
	At            time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event any) error
}

// RedisPublisher emits JSON events on a Redis Pub/Sub channel.
type RedisPublisher struct {
	Conn redis.Cmdable
}

func NewRedisPublisher(conn redis.Cmdable) *RedisPublisher {
	return &RedisPublisher{Conn: conn}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.Conn.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}
