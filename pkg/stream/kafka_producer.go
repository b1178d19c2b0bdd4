package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
)

// KafkaStreamer is a Kafka-backed implementation of Streamer.
// It uses sarama's AsyncProducer for high-throughput, non-blocking publishing.
type KafkaStreamer struct {
	producer sarama.AsyncProducer
	router   *TopicRouter
	config   *StreamerConfig
	mu       sync.RWMutex
	closed   bool
	errCh    chan error
	wg       sync.WaitGroup
}

// Ensure KafkaStreamer implements the Streamer interface.
var _ Streamer = (*KafkaStreamer)(nil)

// NewKafkaStreamer creates a new Kafka streamer with the given configuration.
// It connects to the configured brokers and starts an async producer.
func NewKafkaStreamer(config *StreamerConfig) (*KafkaStreamer, error) {
	if config == nil {
		config = DefaultStreamerConfig()
	}

	if len(config.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}

	saramaConfig := buildSaramaConfig(config)

	producer, err := sarama.NewAsyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return newKafkaStreamer(producer, config), nil
}

// NewKafkaStreamerWithProducer creates a KafkaStreamer with an injected producer.
// This is primarily useful for testing with sarama/mocks.
func NewKafkaStreamerWithProducer(producer sarama.AsyncProducer, config *StreamerConfig) *KafkaStreamer {
	if config == nil {
		config = DefaultStreamerConfig()
	}
	return newKafkaStreamer(producer, config)
}

func newKafkaStreamer(producer sarama.AsyncProducer, config *StreamerConfig) *KafkaStreamer {
	ks := &KafkaStreamer{
		producer: producer,
		router:   NewTopicRouter(config.Topics),
		config:   config,
		errCh:    make(chan error, 100),
	}

	// Background goroutines drain the producer channels
	ks.wg.Add(2)
	go ks.handleSuccesses()
	go ks.handleErrors()

	return ks
}

// Stream publishes verdict events to Kafka topics based on routing rules.
func (ks *KafkaStreamer) Stream(ctx context.Context, events []VerdictEvent) error {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	if ks.closed {
		return ErrStreamerClosed
	}

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal verdict event %s: %w", event.ID, err)
		}

		topics := ks.router.Route(event)
		for _, topic := range topics {
			msg := &sarama.ProducerMessage{
				Topic: topic,
				Key:   sarama.StringEncoder(event.ServiceID + ":" + event.ID),
				Value: sarama.ByteEncoder(data),
			}

			select {
			case ks.producer.Input() <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return nil
}

// Close flushes pending messages and closes the Kafka producer.
func (ks *KafkaStreamer) Close() error {
	ks.mu.Lock()
	if ks.closed {
		ks.mu.Unlock()
		return nil
	}
	ks.closed = true
	ks.mu.Unlock()

	// AsyncClose triggers the producer to flush and close
	ks.producer.AsyncClose()

	ks.wg.Wait()

	return nil
}

// Errors returns a channel of non-fatal errors encountered during publishing.
func (ks *KafkaStreamer) Errors() <-chan error {
	return ks.errCh
}

// handleSuccesses drains the producer's success channel.
func (ks *KafkaStreamer) handleSuccesses() {
	defer ks.wg.Done()
	for range ks.producer.Successes() {
		// Success messages are acknowledged; no action needed.
	}
}

// handleErrors drains the producer's error channel and forwards errors.
func (ks *KafkaStreamer) handleErrors() {
	defer ks.wg.Done()
	for err := range ks.producer.Errors() {
		if err != nil {
			select {
			case ks.errCh <- fmt.Errorf("kafka produce error on topic %s: %w", err.Msg.Topic, err.Err):
			default:
				// Error channel full; drop to avoid blocking the producer
			}
		}
	}
}

// buildSaramaConfig creates a sarama configuration from our StreamerConfig.
func buildSaramaConfig(config *StreamerConfig) *sarama.Config {
	sc := sarama.NewConfig()

	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true

	if config.FlushInterval > 0 {
		sc.Producer.Flush.Frequency = config.FlushInterval
	}
	if config.BatchSize > 0 {
		sc.Producer.Flush.Messages = config.BatchSize
	}

	switch config.Compression {
	case "gzip":
		sc.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		sc.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		sc.Producer.Compression = sarama.CompressionLZ4
	default:
		sc.Producer.Compression = sarama.CompressionNone
	}

	switch config.RequiredAcks {
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	case "leader":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	default:
		sc.Producer.RequiredAcks = sarama.WaitForAll
	}

	if config.MaxRetries > 0 {
		sc.Producer.Retry.Max = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		sc.Producer.Retry.Backoff = config.RetryBackoff
	}

	return sc
}
