package translatron

// Translation is the message text rendered in one target language.
type Translation struct {
	Lang string `json:"lang"`
	Text string `json:"text"`
}

// TextRecord is the unit persisted and forwarded for every processed SMS.
// Actions receive a shared pointer and must treat it as read-only.
type TextRecord struct {
	MessageID      string        `json:"message_id"`
	ConversationID string        `json:"conversation_id"`
	Sender         string        `json:"sender"`
	Recipient      string        `json:"recipient"`
	OriginalLang   string        `json:"original_lang"`
	OriginalText   string        `json:"original_text"`
	Translations   []Translation `json:"translations"`
	Timestamp      string        `json:"timestamp"`
}

// TranslationFor returns the text of the record in lang, counting the
// original text as the rendering in OriginalLang.
func (r *TextRecord) TranslationFor(lang string) (string, bool) {
	if lang == r.OriginalLang {
		return r.OriginalText, true
	}
	for _, t := range r.Translations {
		if t.Lang == lang {
			return t.Text, true
		}
	}
	return "", false
}

// BuildRecord assembles the record for a normalized message.
func BuildRecord(details MessageDetails, translations []Translation, detectedLang string) *TextRecord {
	if translations == nil {
		translations = []Translation{}
	}
	return &TextRecord{
		MessageID:      details.MessageID,
		ConversationID: details.ConversationID,
		Sender:         details.Sender,
		Recipient:      details.Recipient,
		OriginalLang:   detectedLang,
		OriginalText:   details.Text,
		Translations:   translations,
		Timestamp:      details.Timestamp,
	}
}
