package translate

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DefaultNoneLanguage is the language NoneTranslator reports when none is configured.
const DefaultNoneLanguage = "en"

// NoneTranslator is a passthrough backend. It reports a fixed language for
// every text and returns text unchanged. Useful for local runs and for
// generating test events without a translation service.
type NoneTranslator struct {
	language string
	logger   *logrus.Logger
}

// NewNoneTranslator creates a passthrough translator that detects language.
func NewNoneTranslator(language string, logger *logrus.Logger) *NoneTranslator {
	if language == "" {
		language = DefaultNoneLanguage
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &NoneTranslator{language: language, logger: logger}
}

// DetectLanguage always returns the configured language.
func (n *NoneTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	return n.language, nil
}

// Translate returns text unchanged.
func (n *NoneTranslator) Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error) {
	n.logger.WithFields(logrus.Fields{
		"target_lang":   targetLang,
		"detected_lang": detectedLang,
	}).Debug("Passthrough translation")
	return text, nil
}

// CheckHealth always succeeds.
func (n *NoneTranslator) CheckHealth(ctx context.Context) error {
	return nil
}
