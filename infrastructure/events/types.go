// Package events defines the report lifecycle events published to Redis Streams.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream for report events.
const StreamName = "sitelink-report-events"

// EventType represents the type of report event.
type EventType string

const (
	// AccountExported indicates an account's batch was appended to the destination.
	AccountExported EventType = "ACCOUNT_EXPORTED"
	// RunFailed indicates a run finished with at least one failed account.
	RunFailed EventType = "RUN_FAILED"
)

// ReportEvent is the envelope for all report events.
type ReportEvent struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// AccountExportedPayload contains data for ACCOUNT_EXPORTED events.
type AccountExportedPayload struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Recipient   string `json:"recipient"`
	Locator     string `json:"locator"`
	Rows        int    `json:"rows"`
}

// FailedAccount is one entry of a RUN_FAILED payload.
type FailedAccount struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Error       string `json:"error"`
}

// RunFailedPayload contains data for RUN_FAILED events.
type RunFailedPayload struct {
	Recipient string          `json:"recipient"`
	Locator   string          `json:"locator"`
	Failed    []FailedAccount `json:"failed"`
}
