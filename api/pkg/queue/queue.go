package queue

import (
	"context"

	"github.com/nats-io/nats.go/jetstream"
)

//go:generate mockgen -source $GOFILE -destination queue_mocks.go -package $GOPACKAGE

// Message is one raw image request delivered from the external queue.
type Message struct {
	ID   string
	Data []byte

	msg jetstream.Msg
}

// Queue is the external image request source. Delivery is at-least-once:
// consumers must tolerate duplicates, and a message is only redelivered after
// its ack deadline if Delete was never called.
type Queue interface {
	// ReceiveBatch pulls up to max messages, returning early if none are
	// immediately available.
	ReceiveBatch(ctx context.Context, max int) ([]*Message, error)

	// Delete permanently removes a message from the queue.
	Delete(ctx context.Context, msg *Message) error
}
