// Package events publishes feedback question change notifications to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventType names a change to a feedback question
type EventType string

const (
	EventQuestionCreated EventType = "feedback_question.created"
	EventQuestionUpdated EventType = "feedback_question.updated"
	EventQuestionDeleted EventType = "feedback_question.deleted"
)

// QuestionEvent is the message body. Only the external id is published, never the internal key.
type QuestionEvent struct {
	Type                EventType `json:"type"`
	FeedbackQuestionID  string    `json:"feedbackQuestionId"`
	CourseID            string    `json:"courseId"`
	FeedbackSessionName string    `json:"feedbackSessionName"`
	QuestionNumber      int       `json:"questionNumber"`
	OccurredAt          time.Time `json:"occurredAt"`
}

// Publisher sends question events
type Publisher interface {
	Publish(ctx context.Context, event QuestionEvent) error
	Close() error
}

type Config struct {
	Brokers []string
	Topic   string
}

// Producer is a Publisher backed by a kafka-go writer
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer writing to cfg.Topic
func NewProducer(cfg Config) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("events: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("events: topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &Producer{writer: writer}, nil
}

// Publish writes the event keyed by question id, so events of one question stay ordered
func (p *Producer) Publish(ctx context.Context, event QuestionEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.FeedbackQuestionID),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, QuestionEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
