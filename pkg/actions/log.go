package actions

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/translatron"
)

// LogRecord writes each record as a single structured log entry.
type LogRecord struct {
	logger *logrus.Logger
}

func NewLogRecord(logger *logrus.Logger) *LogRecord {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogRecord{logger: logger}
}

func (a *LogRecord) Name() string { return string(ActionLog) }

func (a *LogRecord) Handle(ctx context.Context, record *translatron.TextRecord) error {
	langs := make([]string, 0, len(record.Translations))
	for _, t := range record.Translations {
		langs = append(langs, t.Lang)
	}

	a.logger.WithFields(logrus.Fields{
		"message_id":      record.MessageID,
		"conversation_id": record.ConversationID,
		"sender":          record.Sender,
		"recipient":       record.Recipient,
		"original_lang":   record.OriginalLang,
		"translations":    langs,
		"timestamp":       record.Timestamp,
	}).Info("Message translated")
	return nil
}
