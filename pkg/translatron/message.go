package translatron

import (
	"net/url"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the ISO-8601 UTC layout used for message timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// MessageDetails is the normalized view of one inbound SMS.
type MessageDetails struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	Recipient      string `json:"recipient"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp"`
}

// Normalizer turns parsed form fields into MessageDetails. Now and NewID
// default to the wall clock and random UUIDs.
type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

// Normalize extracts From, To and Body, stamps a fresh id and the current
// UTC time, and keys the conversation by sender. Missing fields become "".
func (n Normalizer) Normalize(params url.Values) MessageDetails {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	newID := uuid.NewString
	if n.NewID != nil {
		newID = n.NewID
	}

	sender := params.Get("From")
	return MessageDetails{
		MessageID:      newID(),
		ConversationID: sender,
		Sender:         sender,
		Recipient:      params.Get("To"),
		Text:           params.Get("Body"),
		Timestamp:      now().UTC().Format(TimestampLayout),
	}
}
