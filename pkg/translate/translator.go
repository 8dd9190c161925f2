package translate

import (
	"context"
	"strings"
)

// Translator defines the capability the message pipeline needs from a
// machine translation backend. Implementations are constructed once at
// process start and shared across requests, so they must be safe for
// concurrent use.
type Translator interface {
	// DetectLanguage returns the language code of text (e.g. "en").
	DetectLanguage(ctx context.Context, text string) (string, error)

	// Translate translates text into targetLang. detectedLang is the
	// language returned by DetectLanguage and is passed as a source hint.
	Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error)
}

// HealthChecker is implemented by backends that can report readiness.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// LanguageLister is implemented by backends that can enumerate the
// language codes they support.
type LanguageLister interface {
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// LanguageMapper handles conversion between the language codes callers
// configure and the codes a backend accepts. Backends like LibreTranslate
// only understand base ISO 639-1 codes, while configuration may use BCP 47
// tags such as "fr-CA".
type LanguageMapper struct{}

// NewLanguageMapper creates a new language mapper instance.
func NewLanguageMapper() *LanguageMapper {
	return &LanguageMapper{}
}

// ToBackendCode converts a configured language code to backend format.
// Examples:
//   - "EN" -> "en"
//   - "fr-CA" -> "fr"
//   - "zh_TW" -> "zh"
func (lm *LanguageMapper) ToBackendCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))

	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}

	return lang
}

// UnsupportedLanguages returns the entries of wanted whose backend code is
// not in supported, preserving the order of wanted.
func (lm *LanguageMapper) UnsupportedLanguages(wanted, supported []string) []string {
	known := make(map[string]struct{}, len(supported))
	for _, code := range supported {
		known[lm.ToBackendCode(code)] = struct{}{}
	}

	var missing []string
	for _, lang := range wanted {
		if _, ok := known[lm.ToBackendCode(lang)]; !ok {
			missing = append(missing, lang)
		}
	}
	return missing
}
