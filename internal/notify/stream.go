package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/sitelink-report/infrastructure/events"
	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
)

// StreamNotifier publishes messages as report events on a Redis stream.
type StreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
	log    infralogger.Logger
}

// NewStreamNotifier creates a stream notifier. An empty stream uses infraevents.StreamName;
// a positive maxLen trims the stream approximately.
func NewStreamNotifier(client *redis.Client, stream string, maxLen int64, log infralogger.Logger) *StreamNotifier {
	if stream == "" {
		stream = infraevents.StreamName
	}
	return &StreamNotifier{client: client, stream: stream, maxLen: maxLen, log: log}
}

// Notify appends msg to the stream.
func (s *StreamNotifier) Notify(ctx context.Context, msg Message) error {
	event := toEvent(msg)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event": string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	result := s.client.XAdd(ctx, args)
	if publishErr := result.Err(); publishErr != nil {
		return fmt.Errorf("publish to stream %s: %w", s.stream, publishErr)
	}

	s.log.Debug("Published report event",
		infralogger.String("event_type", string(event.EventType)),
		infralogger.String("stream_id", result.Val()),
	)
	return nil
}

func toEvent(msg Message) infraevents.ReportEvent {
	eventID, err := uuid.Parse(msg.ID)
	if err != nil {
		eventID = uuid.New()
	}

	event := infraevents.ReportEvent{
		EventID:   eventID,
		RunID:     msg.RunID,
		Timestamp: time.Now().UTC(),
	}

	switch msg.Kind {
	case KindFailureSummary:
		failed := make([]infraevents.FailedAccount, len(msg.Failures))
		for i, f := range msg.Failures {
			failed[i] = infraevents.FailedAccount{
				AccountID:   f.Account.ID,
				AccountName: f.Account.Name,
				Error:       f.Err,
			}
		}
		event.EventType = infraevents.RunFailed
		event.Payload = infraevents.RunFailedPayload{
			Recipient: msg.Recipient,
			Locator:   msg.Locator,
			Failed:    failed,
		}
	default:
		event.EventType = infraevents.AccountExported
		event.Payload = infraevents.AccountExportedPayload{
			AccountID:   msg.Account.ID,
			AccountName: msg.Account.Name,
			Recipient:   msg.Recipient,
			Locator:     msg.Locator,
			Rows:        msg.Rows,
		}
	}

	return event
}
