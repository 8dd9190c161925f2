// Package translatron turns Twilio SMS webhooks into translated message
// records and hands each record to an ordered list of actions.
//
// A request moves through parse, signature validation, normalization,
// translation and dispatch. Only an invalid signature is answered normally
// (403); every other failure is returned to the hosting layer.
package translatron

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/translate"
)

// Config holds everything a Translatron needs. It is read once by New.
type Config struct {
	// Translator detects languages and translates message text.
	Translator translate.Translator
	// Actions run in order for every accepted message.
	Actions []Action
	// Languages are the target languages, in output order.
	Languages []string
	// Secrets supplies the Twilio auth token.
	Secrets SecretSource
	// Scheme and Path locate the webhook for signature validation.
	// They default to "https" and "/".
	Scheme string
	Path   string
	// Normalizer builds message details. The zero value uses the wall
	// clock and random UUIDs.
	Normalizer Normalizer
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// Translatron is the webhook pipeline. Its configuration never changes after
// New, so Handle may be called from many goroutines.
type Translatron struct {
	translator translate.Translator
	actions    []Action
	languages  []string
	validator  *Validator
	normalizer Normalizer
	logger     *logrus.Logger
}

// New creates a Translatron from cfg.
func New(cfg Config) (*Translatron, error) {
	if cfg.Translator == nil {
		return nil, errors.New("translator is required")
	}
	if cfg.Secrets == nil {
		return nil, errors.New("secret source is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	actions := append([]Action(nil), cfg.Actions...)
	languages := append([]string(nil), cfg.Languages...)

	names := make([]string, 0, len(actions))
	for _, a := range actions {
		names = append(names, ActionName(a))
	}
	cfg.Logger.WithFields(logrus.Fields{
		"languages": languages,
		"actions":   names,
	}).Info("Created translatron pipeline")

	return &Translatron{
		translator: cfg.Translator,
		actions:    actions,
		languages:  languages,
		validator:  NewValidator(cfg.Secrets, cfg.Scheme, cfg.Path),
		normalizer: cfg.Normalizer,
		logger:     cfg.Logger,
	}, nil
}

// Languages returns a copy of the configured target languages.
func (t *Translatron) Languages() []string {
	return append([]string(nil), t.languages...)
}

// Validator returns the signature validator the pipeline uses.
func (t *Translatron) Validator() *Validator {
	return t.validator
}

// Handle processes one webhook event. It returns the 200 acknowledgement
// after every action succeeded, the 403 response when the signature does
// not verify, and an error for anything else.
func (t *Translatron) Handle(ctx context.Context, event InboundEvent) (Response, error) {
	start := time.Now()

	params, err := ParseEventParams(event)
	if err != nil {
		t.logger.WithError(err).Error("Failed to parse webhook event")
		observeRequest(outcomeDecodeError, start)
		return Response{}, err
	}

	valid, err := t.validator.Validate(params, event.Headers)
	if err != nil {
		t.logger.WithError(err).Error("Cannot validate webhook signature")
		observeRequest(outcomeConfigError, start)
		return Response{}, err
	}
	if !valid {
		host, _ := event.Header("Host")
		t.logger.WithFields(logrus.Fields{
			"host": host,
		}).Warn("Rejected webhook with invalid signature")
		observeRequest(outcomeForbidden, start)
		return ForbiddenResponse(), nil
	}

	details := t.normalizer.Normalize(params)
	log := t.logger.WithFields(logrus.Fields{
		"message_id":      details.MessageID,
		"conversation_id": details.ConversationID,
	})
	log.WithFields(logrus.Fields{
		"sender":      details.Sender,
		"recipient":   details.Recipient,
		"text_length": len(details.Text),
		"timestamp":   details.Timestamp,
	}).Info("Received SMS")

	translations, detected, err := DetectAndTranslate(ctx, t.translator, details.Text, t.languages, t.logger)
	if err != nil {
		log.WithError(err).Error("Translation failed")
		observeRequest(outcomeTranslation, start)
		return Response{}, err
	}
	translationsPerMessage.Observe(float64(len(translations)))

	record := BuildRecord(details, translations, detected)

	if err := Dispatch(ctx, record, t.actions, t.logger); err != nil {
		observeRequest(outcomeAction, start)
		return Response{}, err
	}

	log.WithFields(logrus.Fields{
		"original_lang": record.OriginalLang,
		"translations":  len(record.Translations),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Message processed")
	observeRequest(outcomeOK, start)

	return SuccessResponse(), nil
}
