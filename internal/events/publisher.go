// Package events publishes group activity to RabbitMQ for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mauromolina/mmovienight-sub000/internal/logger"
	"github.com/mauromolina/mmovienight-sub000/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName   = "movienight.activity"
	publishTimeout = 3 * time.Second
	dialTimeout    = 2 * time.Second
	redialBackoff  = 30 * time.Second
)

// ErrBrokerUnavailable is returned while a failed dial is backing off.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// ActivityEvent is the message body published for every feed item.
type ActivityEvent struct {
	ID           uint                `json:"id"`
	GroupID      uint                `json:"group_id"`
	Type         models.ActivityType `json:"type"`
	ActorID      uint                `json:"actor_id"`
	MovieID      *uint               `json:"movie_id,omitempty"`
	TargetUserID *uint               `json:"target_user_id,omitempty"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
	Recipients   []uint              `json:"recipients"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

func NewActivityEvent(item *models.ActivityItem, recipients []uint) ActivityEvent {
	occurred := item.CreatedAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	return ActivityEvent{
		ID:           item.ID,
		GroupID:      item.GroupID,
		Type:         item.Type,
		ActorID:      item.ActorID,
		MovieID:      item.MovieID,
		TargetUserID: item.TargetUserID,
		Metadata:     item.Metadata,
		Recipients:   recipients,
		OccurredAt:   occurred.UTC(),
	}
}

// RoutingKey is "activity.<type>", e.g. activity.rating_posted.
func (e ActivityEvent) RoutingKey() string {
	return "activity." + string(e.Type)
}

// Publisher keeps one broker connection and reopens it after failures.
// A failed dial is not retried for a backoff window, so requests that
// record activity never queue behind a dead broker.
type Publisher struct {
	url           string
	dialTimeout   time.Duration
	redialBackoff time.Duration

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	retryAfter time.Time
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, dialTimeout: dialTimeout, redialBackoff: redialBackoff}
}

// NotifyActivity publishes the item. Errors are logged, never returned.
func (p *Publisher) NotifyActivity(ctx context.Context, item *models.ActivityItem, recipients []uint) {
	if p == nil || p.url == "" {
		return
	}
	event := NewActivityEvent(item, recipients)
	if err := p.Publish(ctx, event); err != nil {
		logger.Get().WithError(err).WithField("type", event.Type).Warn("rabbitmq: activity publish failed")
	}
}

func (p *Publisher) Publish(ctx context.Context, event ActivityEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, ExchangeName, event.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// channel returns an open channel, dialing and declaring the exchange when needed.
// Caller holds p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	if time.Now().Before(p.retryAfter) {
		return nil, ErrBrokerUnavailable
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		p.retryAfter = time.Now().Add(p.redialBackoff)
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}
