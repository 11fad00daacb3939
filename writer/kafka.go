package writer

import (
	"context"
	"encoding/json"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	appconfig "salesflow/config"
	"salesflow/logger"
)

// messageWriter is the part of kafka.Writer the notifier needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes run events to a Kafka topic keyed by run id.
type KafkaNotifier struct {
	writer messageWriter
	topic  string
	log    *logger.Log
}

func NewKafkaNotifier(cfg appconfig.KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	kn := &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		topic: cfg.Topic,
		log:   logger.GetLogger(),
	}
	kn.log.WithComponent("kafka_notifier").WithFields(logger.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Debug("kafka notifier initialized")
	return kn, nil
}

func (kn *KafkaNotifier) Name() string { return "kafka" }

func (kn *KafkaNotifier) Notify(ctx context.Context, event RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Event)},
		},
	}
	if err := kn.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write run event: %w", err)
	}
	kn.log.WithComponent("kafka_notifier").WithFields(logger.Fields{
		"run_id": event.RunID,
		"topic":  kn.topic,
	}).Info("run event published")
	return nil
}

func (kn *KafkaNotifier) Close() error {
	return kn.writer.Close()
}
