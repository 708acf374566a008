package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Publisher sends audit events to the broker at URL. Each call dials its
// own connection; login attempts are rare enough that pooling is not worth
// the reconnect handling.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishAdminLogin publishes ev to the admin.audit queue as a persistent
// JSON message. Errors are logged and returned so the caller can ignore
// them without failing the request.
func (p *Publisher) PublishAdminLogin(ctx context.Context, ev AdminLoginEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal audit event")
	}
	if err := p.publish(ctx, body); err != nil {
		log.WithError(err).WithField("queue", AuditQueueName).Warn("rabbitmq: publish audit event failed")
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	// Idempotent. Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "queue declare")
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", AuditQueueName, false, false, pub); err != nil {
		return errors.Wrap(err, "publish")
	}
	return nil
}
