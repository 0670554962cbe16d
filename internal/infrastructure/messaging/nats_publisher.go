// Package messaging - NATS publisher для outbox relay.
package messaging

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// SubjectPrefix - все события публикуются в coinvault.events.<event.type>.
const SubjectPrefix = "coinvault.events."

// NATSPublisher публикует outbox payload'ы в NATS.
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect устанавливает соединение с NATS.
func Connect(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn}, nil
}

// NewNATSPublisher оборачивает уже установленное соединение.
func NewNATSPublisher(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// Publish отправляет payload в subject, производный от типа события.
// "wallet.transfer.completed" -> "coinvault.events.wallet.transfer.completed".
func (p *NATSPublisher) Publish(eventType string, payload []byte) error {
	if err := p.conn.Publish(SubjectPrefix+eventType, payload); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	return nil
}

// Close закрывает соединение, дождавшись отправки буферизованных сообщений.
func (p *NATSPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
