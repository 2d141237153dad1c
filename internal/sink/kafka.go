package sink

import (
	"context"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/resink-ai/resinker/internal/config"
	"github.com/resink-ai/resinker/internal/observability"
	"github.com/resink-ai/resinker/internal/orchestrator"
)

// KafkaSink routes events to Kafka topics by event type, with a fallback
// topic for unmapped types.
type KafkaSink struct {
	writer       *kafka.Writer
	topicMapping map[string]string
	defaultTopic string
	format       string
	logger       *observability.Logger
}

// NewKafka creates a Kafka sink over a batching writer.
func NewKafka(cfg config.OutputConfig, logger *observability.Logger) *KafkaSink {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	brokers := cfg.KafkaBrokers
	if brokers == "" {
		brokers = "localhost:9092"
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(strings.Split(brokers, ",")...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		AllowAutoTopicCreation: true,
	}

	return &KafkaSink{
		writer:       writer,
		topicMapping: cfg.TopicMapping,
		defaultTopic: cfg.DefaultTopic,
		format:       cfg.Format,
		logger:       logger,
	}
}

func (s *KafkaSink) Emit(event *orchestrator.Event) error {
	topic, ok := s.topicMapping[event.EventType]
	if !ok {
		topic = s.defaultTopic
	}

	data, err := encodeEvent(event, s.format)
	if err != nil {
		return err
	}

	err = s.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Value: data,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("sent event to kafka",
		zap.String("topic", topic),
		zap.String("event_type", event.EventType))
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

func (s *KafkaSink) Name() string {
	return "kafka"
}
