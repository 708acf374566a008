package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// AuditLogFile is the file name, inside the consumer's directory, that
// audit lines are appended to.
const AuditLogFile = "admin_audit.log"

const maxBackoff = 30 * time.Second

// StartAuditConsumer consumes the admin.audit queue and appends one line per
// event to dir/admin_audit.log. It reconnects with exponential backoff and
// returns only once ctx is cancelled. Messages that cannot be handled are
// rejected without requeue so a bad payload cannot spin the loop.
func StartAuditConsumer(ctx context.Context, url, dir string) error {
	logger := log.WithField("component", "audit-consumer")
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, dir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

// sleep waits for d and reports whether ctx is still live.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("audit-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "queue declare")
	}
	msgs, err := ch.ConsumeWithContext(ctx, AuditQueueName, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "queue consume")
	}

	for d := range msgs {
		if err := handleMessage(dir, d.Body); err != nil {
			log.WithError(err).Warn("audit-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(dir string, body []byte) error {
	var ev AdminLoginEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.Wrap(err, "unmarshal")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", dir)
	}
	f, err := os.OpenFile(filepath.Join(dir, AuditLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open audit log")
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return errors.Wrap(err, "write audit log")
	}
	return nil
}

func formatLine(ev AdminLoginEvent) string {
	outcome := "failed"
	if ev.Success {
		outcome = "succeeded"
	}
	return fmt.Sprintf("[%s] Admin login %s | user=%q | remote_ip=%s\n",
		ev.At.UTC().Format(time.RFC3339), outcome, ev.Username, ev.RemoteIP)
}
