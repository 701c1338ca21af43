package bus

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Message is a transport-agnostic envelope handed to consumer handlers:
// Topic tells the dispatcher which event type to unmarshal Value into.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Consumer reads from one or more Kafka topics under a shared consumer
// group, the same shape as the teacher's KafkaConsumer (internal/group's
// Reader side), generalized from a single group-events topic to the three
// topics spec.md §4.1 names.
type Consumer struct {
	brokers       string
	consumerGroup string
	topics        []string
	readers       []*kafka.Reader
	messages      chan Message
	ctx           context.Context
	mu            sync.Mutex
}

// NewConsumer creates a Kafka consumer for the given topics.
func NewConsumer(brokers, consumerGroup string, topics []string) *Consumer {
	return &Consumer{
		brokers:       brokers,
		consumerGroup: consumerGroup,
		topics:        topics,
		messages:      make(chan Message, 256),
	}
}

// Start begins consuming from every configured topic in its own goroutine.
func (c *Consumer) Start(ctx context.Context) error {
	c.ctx = ctx
	brokerList := strings.Split(c.brokers, ",")
	for _, topic := range c.topics {
		c.startReader(ctx, brokerList, topic)
	}
	return nil
}

func (c *Consumer) startReader(ctx context.Context, brokerList []string, topic string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokerList,
		Topic:    topic,
		GroupID:  c.consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	c.mu.Lock()
	c.readers = append(c.readers, reader)
	c.mu.Unlock()

	go func(r *kafka.Reader, t string) {
		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("bus: kafka read error", "topic", t, "error", err)
				continue
			}
			c.messages <- Message{Topic: t, Key: msg.Key, Value: msg.Value}
		}
	}(reader, topic)
}

// Messages returns the channel of consumed messages across all topics.
func (c *Consumer) Messages() <-chan Message {
	return c.messages
}

// Close stops every reader and closes the messages channel.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.readers {
		if err := r.Close(); err != nil {
			slog.Warn("bus: kafka reader close error", "error", err)
		}
	}
	close(c.messages)
	return nil
}

// Producer publishes envelopes to Kafka topics. Unlike Consumer it holds a
// single Writer whose Topic field is left blank, so each Publish call picks
// its topic per-message (segmentio/kafka-go supports this via kafka.Message.Topic).
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer against the given broker list.
func NewProducer(brokers string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish sends a single message to topic, keyed by key (use the chat
// platform's externalId so partitioning keeps a channel's events ordered).
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value []byte) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	})
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
