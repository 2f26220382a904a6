package notify

import (
	"context"
	"errors"

	infralogger "github.com/jonesrussell/sitelink-report/infrastructure/logger"
)

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	log infralogger.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log infralogger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, msg Message) error {
	l.log.Info("Notification",
		infralogger.String("kind", string(msg.Kind)),
		infralogger.String("recipient", msg.Recipient),
		infralogger.String("subject", msg.Subject),
		infralogger.String("locator", msg.Locator),
	)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
