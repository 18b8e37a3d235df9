package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/daybook-edu/daybook/internal/store"
)

// Subjects published by Daybook.
const (
	SubjectExpectationCreated  = "daybook.curriculum.expectation.created"
	SubjectEmbeddingsGenerated = "daybook.embeddings.generated"
	SubjectSearchPerformed     = "daybook.embeddings.searched"
)

// Publisher publishes Daybook events to the bus.
type Publisher struct {
	client *Client
	logger *slog.Logger
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *Client, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, logger: logger}
}

// Event is the standard envelope published to the bus.
type Event struct {
	Type      string    `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

func (p *Publisher) publish(_ context.Context, subject string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := p.client.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	p.logger.Debug("published event", "subject", subject, "type", event.Type)
	return nil
}

// ExpectationCreated announces a new curriculum expectation. The embedding
// subscriber reacts by generating its embedding.
func (p *Publisher) ExpectationCreated(ctx context.Context, exp *store.Expectation) error {
	return p.publish(ctx, SubjectExpectationCreated, Event{
		Type:      "curriculum.expectation.created",
		Source:    "daybook",
		Timestamp: time.Now(),
		Data: map[string]any{
			"id":      exp.ID,
			"code":    exp.Code,
			"subject": exp.Subject,
			"grade":   exp.Grade,
		},
	})
}

// EmbeddingsGenerated announces a completed bulk generation run.
func (p *Publisher) EmbeddingsGenerated(ctx context.Context, generated int, forced bool) error {
	return p.publish(ctx, SubjectEmbeddingsGenerated, Event{
		Type:      "embeddings.generated",
		Source:    "daybook",
		Timestamp: time.Now(),
		Data: map[string]any{
			"generated": generated,
			"forced":    forced,
		},
	})
}

// SearchPerformed publishes a search analytics event.
func (p *Publisher) SearchPerformed(ctx context.Context, clientID string, resultCount int) error {
	return p.publish(ctx, SubjectSearchPerformed, Event{
		Type:      "embeddings.searched",
		Source:    "daybook",
		Timestamp: time.Now(),
		Data: map[string]any{
			"client_id":    clientID,
			"result_count": resultCount,
		},
	})
}
