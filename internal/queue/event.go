// Package queue carries admin audit events over RabbitMQ.
package queue

import "time"

// AuditQueueName is the durable queue admin audit events are published to.
const AuditQueueName = "admin.audit"

// AdminLoginEvent is published for every admin login attempt.
type AdminLoginEvent struct {
	Username string    `json:"username"`
	Success  bool      `json:"success"`
	RemoteIP string    `json:"remote_ip"`
	At       time.Time `json:"at"`
}
