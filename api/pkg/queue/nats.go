package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/awslabs/osml-model-runner-sub000/api/pkg/config"
)

const receiveMaxWait = 2 * time.Second

// NatsQueue consumes image requests from a JetStream work queue. Every worker
// process binds to the same durable consumer, so each message is delivered to
// one worker at a time.
type NatsQueue struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
	subject  string
}

var _ Queue = &NatsQueue{}

func NewNatsQueue(ctx context.Context, cfg config.Queue) (*NatsQueue, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return newNatsQueue(ctx, nc, cfg)
}

func newNatsQueue(ctx context.Context, nc *nats.Conn, cfg config.Queue) (*NatsQueue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Stream + ".*"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       cfg.Durable,
		FilterSubject: cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream consumer: %w", err)
	}

	return &NatsQueue{
		conn:     nc,
		js:       js,
		stream:   stream,
		consumer: consumer,
		subject:  cfg.Subject,
	}, nil
}

// NewInMemoryNats starts an embedded JetStream server and returns a queue
// bound to it. Used by tests and single-process deployments.
func NewInMemoryNats(ctx context.Context, cfg config.Queue, storeDir string) (*NatsQueue, error) {
	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      server.RANDOM_PORT,
		NoSigs:    true,
		JetStream: true,
		StoreDir:  storeDir,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory nats server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(4 * time.Second) {
		return nil, fmt.Errorf("failed to start in-memory nats server")
	}

	nc, err := nats.Connect(ns.ClientURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return newNatsQueue(ctx, nc, cfg)
}

// Publish submits a raw image request payload to the queue. The serve command
// does not use this; it exists for tests and for the submit CLI.
func (q *NatsQueue) Publish(ctx context.Context, payload []byte) error {
	_, err := q.js.Publish(ctx, q.subject, payload)
	return err
}

func (q *NatsQueue) ReceiveBatch(ctx context.Context, max int) ([]*Message, error) {
	if max <= 0 {
		return nil, nil
	}

	batch, err := q.consumer.Fetch(max, jetstream.FetchMaxWait(receiveMaxWait))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from jetstream: %w", err)
	}

	var messages []*Message
	for msg := range batch.Messages() {
		meta, err := msg.Metadata()
		id := ""
		if err == nil {
			id = fmt.Sprintf("%s/%d", meta.Stream, meta.Sequence.Stream)
		}
		messages = append(messages, &Message{
			ID:   id,
			Data: msg.Data(),
			msg:  msg,
		})
	}
	if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
		log.Warn().Err(err).Msg("jetstream fetch ended with error")
	}

	return messages, nil
}

func (q *NatsQueue) Delete(_ context.Context, msg *Message) error {
	if msg == nil || msg.msg == nil {
		return errors.New("message is not deletable")
	}
	return msg.msg.Ack()
}

func (q *NatsQueue) Close() {
	q.conn.Close()
}
