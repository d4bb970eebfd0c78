package events

import (
	"context"
	"encoding/json"
	"fmt"

	"identity-service/internal/domain/notification"
	"identity-service/internal/logger"

	"go.uber.org/zap"
)

const atLeastOnce byte = 1

// Publisher is the part of the MQTT client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// MQTTSink publishes activity events as JSON to <prefix>/<event type>.
type MQTTSink struct {
	publisher Publisher
	prefix    string
}

var _ notification.ActivitySink = (*MQTTSink)(nil)

func NewMQTTSink(publisher Publisher, topicPrefix string) *MQTTSink {
	return &MQTTSink{publisher: publisher, prefix: topicPrefix}
}

func (s *MQTTSink) Topic(eventType notification.ActivityType) string {
	if s.prefix == "" {
		return string(eventType)
	}
	return s.prefix + "/" + string(eventType)
}

func (s *MQTTSink) Record(ctx context.Context, event notification.ActivityEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode activity event: %w", err)
	}

	if err := s.publisher.Publish(ctx, s.Topic(event.Type), atLeastOnce, false, payload); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// LogSink writes activity events to the application log.
type LogSink struct{}

var _ notification.ActivitySink = LogSink{}

func (LogSink) Record(_ context.Context, event notification.ActivityEvent) error {
	fields := []zap.Field{
		zap.String("activity", string(event.Type)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.Email != "" {
		fields = append(fields, zap.String("email", event.Email))
	}
	for k, v := range event.Metadata {
		fields = append(fields, zap.String(k, v))
	}

	logger.Debug("Activity recorded", fields...)
	return nil
}
