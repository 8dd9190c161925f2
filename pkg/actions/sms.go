package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/translatron"
)

// MessageSender delivers one outbound SMS.
type MessageSender interface {
	SendMessage(ctx context.Context, from, to, body string) error
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	client *twilio.RestClient
}

func NewTwilioSender(accountSID, authToken string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

func (s *TwilioSender) SendMessage(ctx context.Context, from, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio create message to %s: %w", to, err)
	}
	return nil
}

// Delivery is one outbound message planned for a record.
type Delivery struct {
	To   string
	Lang string
	Body string
}

// SMSForwarder relays each message to the other phones sharing the Twilio
// number it was sent to, each in that phone's language.
type SMSForwarder struct {
	sender        MessageSender
	users         config.UserDirectory
	defaultNumber string
	logger        *logrus.Logger
}

// NewSMSForwarder returns a forwarder over users. defaultNumber selects the
// group, and the sending number, for records whose recipient has no group.
func NewSMSForwarder(sender MessageSender, users config.UserDirectory, defaultNumber string, logger *logrus.Logger) *SMSForwarder {
	if logger == nil {
		logger = logrus.New()
	}
	return &SMSForwarder{
		sender:        sender,
		users:         users,
		defaultNumber: defaultNumber,
		logger:        logger,
	}
}

func (f *SMSForwarder) Name() string { return string(ActionSMS) }

// Plan returns the sending number and the deliveries for record, ordered by
// phone number. The sender never receives its own message. Members whose
// language has no translation get the original text.
func (f *SMSForwarder) Plan(record *translatron.TextRecord) (string, []Delivery) {
	from := record.Recipient
	members, ok := f.users[from]
	if !ok && f.defaultNumber != "" {
		from = f.defaultNumber
		members = f.users[from]
	}

	phones := make([]string, 0, len(members))
	for phone := range members {
		if phone != record.Sender {
			phones = append(phones, phone)
		}
	}
	sort.Strings(phones)

	deliveries := make([]Delivery, 0, len(phones))
	for _, phone := range phones {
		lang := members[phone].Lang
		body, ok := record.TranslationFor(lang)
		if !ok {
			body = record.OriginalText
		}
		deliveries = append(deliveries, Delivery{To: phone, Lang: lang, Body: body})
	}
	return from, deliveries
}

// Handle sends every planned delivery. A failed send does not stop the
// remaining ones; the failures are returned joined.
func (f *SMSForwarder) Handle(ctx context.Context, record *translatron.TextRecord) error {
	from, deliveries := f.Plan(record)
	if len(deliveries) == 0 {
		f.logger.WithFields(logrus.Fields{
			"message_id": record.MessageID,
			"recipient":  record.Recipient,
		}).Debug("No phones to forward to")
		return nil
	}

	var errs []error
	for _, d := range deliveries {
		entry := f.logger.WithFields(logrus.Fields{
			"message_id": record.MessageID,
			"sender":     record.Sender,
			"to":         d.To,
			"lang":       d.Lang,
		})
		if err := f.sender.SendMessage(ctx, from, d.To, d.Body); err != nil {
			entry.WithError(err).Warn("Failed to forward message")
			errs = append(errs, err)
			continue
		}
		entry.Info("Forwarded message")
	}
	return errors.Join(errs...)
}
