package translatron

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/translate"
)

// DetectAndTranslate detects the language of text and translates it into
// each target, in order, skipping the detected language itself. The first
// backend failure aborts with a *TranslationError and no translations.
func DetectAndTranslate(ctx context.Context, tr translate.Translator, text string, targets []string, logger *logrus.Logger) ([]Translation, string, error) {
	if logger == nil {
		logger = logrus.New()
	}

	detected, err := tr.DetectLanguage(ctx, text)
	if err != nil {
		return nil, "", &TranslationError{Op: "detect", Err: err}
	}
	logger.WithFields(logrus.Fields{
		"detected_lang": detected,
	}).Info("Detected language")

	translations := make([]Translation, 0, len(targets))
	for _, target := range targets {
		if target == detected {
			continue
		}
		out, err := tr.Translate(ctx, text, target, detected)
		if err != nil {
			return nil, "", &TranslationError{Op: "translate", Lang: target, Err: err}
		}
		logger.WithFields(logrus.Fields{
			"target_lang": target,
			"text_length": len(out),
		}).Debug("Translated message")
		translations = append(translations, Translation{Lang: target, Text: out})
	}

	return translations, detected, nil
}
