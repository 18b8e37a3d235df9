package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/daybook-edu/daybook/internal/semantic"
)

// Subscriber listens for expectation events and keeps embeddings current:
// when an expectation is created (for example by the curriculum importer),
// its embedding is generated without waiting for the next sweep.
type Subscriber struct {
	client       *Client
	svc          *semantic.Service
	expectations semantic.ExpectationSource
	logger       *slog.Logger
	sub          *nats.Subscription
}

// NewSubscriber creates a new event subscriber.
func NewSubscriber(client *Client, svc *semantic.Service, expectations semantic.ExpectationSource, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		client:       client,
		svc:          svc,
		expectations: expectations,
		logger:       logger,
	}
}

// incomingEvent is the envelope for events we consume.
type incomingEvent struct {
	Type string `json:"type"`
	Data struct {
		ID uuid.UUID `json:"id"`
	} `json:"data"`
}

// Start subscribes to expectation-created events.
func (s *Subscriber) Start(ctx context.Context) error {
	sub, err := s.client.conn.Subscribe(SubjectExpectationCreated, func(msg *nats.Msg) {
		s.handleExpectationCreated(ctx, msg)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	s.logger.Info("subscribed to expectation events", "subject", SubjectExpectationCreated)
	return nil
}

// Stop unsubscribes.
func (s *Subscriber) Stop() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
}

func (s *Subscriber) handleExpectationCreated(ctx context.Context, msg *nats.Msg) {
	var event incomingEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Warn("malformed expectation event", "error", err)
		return
	}
	if event.Data.ID == uuid.Nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	exp, err := s.expectations.Get(ctx, event.Data.ID)
	if err != nil {
		s.logger.Warn("expectation from event not found", "id", event.Data.ID, "error", err)
		return
	}

	if _, err := s.svc.GetOrCreate(ctx, exp); err != nil {
		if errors.Is(err, semantic.ErrUnavailable) {
			// Left for the next sweep once the provider is configured.
			return
		}
		s.logger.Warn("failed to embed new expectation", "id", exp.ID, "error", err)
		return
	}

	s.logger.Debug("embedded new expectation", "id", exp.ID)
}
