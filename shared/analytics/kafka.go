package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/dealer-management-api/shared/metrics"
	"github.com/pavitra93/dealer-management-api/shared/models"
)

// DefaultVisitTopic receives one message per tracking-link click
const DefaultVisitTopic = "dealer-link-visits"

// ErrQueueFull is returned when a visit event is dropped
var ErrQueueFull = errors.New("visit event queue full, event dropped")

// MessageWriter is the part of kafka.Writer the publisher uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// VisitEvent is the payload published for each visit
type VisitEvent struct {
	EventType string          `json:"eventType"`
	Visit     models.VisitLog `json:"visit"`
}

// KafkaPublisher publishes visit events through a worker pool. Publish never
// blocks; events are dropped when the buffer is full.
type KafkaPublisher struct {
	writer       MessageWriter
	topic        string
	events       chan VisitEvent
	workerCount  int
	writeTimeout time.Duration
	shutdownChan chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	log          logrus.FieldLogger
}

// NewKafkaWriter creates the writer used in production
func NewKafkaWriter(broker string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

// NewKafkaPublisher starts workerCount workers reading from a buffer of
// bufferSize events.
func NewKafkaPublisher(writer MessageWriter, topic string, workerCount, bufferSize int, log logrus.FieldLogger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultVisitTopic
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	kp := &KafkaPublisher{
		writer:       writer,
		topic:        topic,
		events:       make(chan VisitEvent, bufferSize),
		workerCount:  workerCount,
		writeTimeout: 5 * time.Second,
		shutdownChan: make(chan struct{}),
		log:          log,
	}
	kp.startWorkers()
	return kp
}

func (kp *KafkaPublisher) startWorkers() {
	for i := 0; i < kp.workerCount; i++ {
		kp.wg.Add(1)
		go kp.worker(i)
	}
	kp.log.WithField("workers", kp.workerCount).Info("Started visit event workers")
}

func (kp *KafkaPublisher) worker(id int) {
	defer kp.wg.Done()

	for {
		select {
		case event := <-kp.events:
			kp.send(id, event)
		case <-kp.shutdownChan:
			// drain what is already queued before exiting
			for {
				select {
				case event := <-kp.events:
					kp.send(id, event)
				default:
					return
				}
			}
		}
	}
}

func (kp *KafkaPublisher) send(worker int, event VisitEvent) {
	if err := kp.sendSync(event); err != nil {
		kp.log.WithFields(logrus.Fields{
			"worker":    worker,
			"dealer_id": event.Visit.DealerID,
			"error":     err.Error(),
		}).Warn("Failed to publish visit event")
	}
}

// Publish queues a visit event without blocking
func (kp *KafkaPublisher) Publish(visit models.VisitLog) error {
	select {
	case <-kp.shutdownChan:
		return errors.New("publisher is closed")
	default:
	}

	select {
	case kp.events <- VisitEvent{EventType: "dealer_link_click", Visit: visit}:
		return nil
	default:
		metrics.EventsDroppedCounter.Inc()
		return ErrQueueFull
	}
}

func (kp *KafkaPublisher) sendSync(event VisitEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal visit event: %w", err)
	}

	dealerID := strconv.FormatUint(uint64(event.Visit.DealerID), 10)
	msg := kafka.Message{
		Topic: kp.topic,
		Key:   []byte(dealerID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "dealer_id", Value: []byte(dealerID)},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), kp.writeTimeout)
	defer cancel()
	if err := kp.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write visit event to Kafka: %w", err)
	}
	return nil
}

// Close stops accepting events, flushes the queue and closes the writer
func (kp *KafkaPublisher) Close() error {
	var err error
	kp.closeOnce.Do(func() {
		close(kp.shutdownChan)
		kp.wg.Wait()
		if closeErr := kp.writer.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close Kafka writer: %w", closeErr)
		}
	})
	return err
}
