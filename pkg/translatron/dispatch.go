package translatron

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Action is a side effect run once for every processed message, such as
// persisting the record or forwarding it to other phones. Handle must not
// modify record.
type Action interface {
	Handle(ctx context.Context, record *TextRecord) error
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, record *TextRecord) error

// Handle calls f(ctx, record).
func (f ActionFunc) Handle(ctx context.Context, record *TextRecord) error {
	return f(ctx, record)
}

// ActionName returns the name an action reports through a Name method, or
// its Go type otherwise.
func ActionName(a Action) string {
	if named, ok := a.(interface{ Name() string }); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", a)
}

// Dispatch runs actions in order against record. The first failing action
// stops the dispatch; its error is returned as-is and later actions are
// not run. Earlier actions are not undone.
func Dispatch(ctx context.Context, record *TextRecord, actions []Action, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.New()
	}

	for i, action := range actions {
		name := ActionName(action)
		start := time.Now()
		err := action.Handle(ctx, record)
		observeAction(name, start, err)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"message_id":   record.MessageID,
				"action":       name,
				"action_index": i,
				"skipped":      len(actions) - i - 1,
			}).Error("Action failed, aborting dispatch")
			return err
		}
		logger.WithFields(logrus.Fields{
			"message_id": record.MessageID,
			"action":     name,
		}).Debug("Action completed")
	}
	return nil
}
