package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// HandlerFunc processes one received message.
type HandlerFunc func(ctx context.Context, data []byte) error

// Publisher publishes messages to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Subscriber delivers messages from a subject to a handler.
type Subscriber interface {
	Subscribe(ctx context.Context, subject string, handler HandlerFunc) error
}

// NATSConn wraps one NATS connection as both Publisher and Subscriber.
type NATSConn struct {
	conn *nats.Conn
}

// ConnectNATS connects to the given NATS server.
func ConnectNATS(url string) (*NATSConn, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSConn{conn: conn}, nil
}

// Publish sends data to subject.
func (c *NATSConn) Publish(ctx context.Context, subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// Subscribe delivers messages on subject to handler. Handler errors are
// dropped; subscribers here are best-effort consumers.
func (c *NATSConn) Subscribe(ctx context.Context, subject string, handler HandlerFunc) error {
	_, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		_ = handler(ctx, msg.Data)
	})
	return err
}

// Close drains the connection.
func (c *NATSConn) Close() {
	c.conn.Close()
}
