package translate

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineNone passes text through untranslated.
	EngineNone EngineType = "none"
	// EngineLibreTranslate uses LibreTranslate as the backend.
	EngineLibreTranslate EngineType = "libretranslate"
	// EngineArgos uses Argos Translate as the backend.
	EngineArgos EngineType = "argos"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// BaseURL is the base URL for the translation engine API.
	// Defaults to the engine's default URL if not specified.
	BaseURL string
	// APIKey is sent to engines that require one (LibreTranslate).
	APIKey string
	// FixedLanguage is the language EngineNone reports from detection.
	FixedLanguage string
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
// The engine is resolved once here; callers keep the returned instance for
// the life of the process. Every backend is wrapped with metrics.
func NewTranslator(cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
	}).Info("Creating translator instance")

	var tr Translator
	switch cfg.Engine {
	case EngineNone:
		tr = NewNoneTranslator(cfg.FixedLanguage, cfg.Logger)
	case EngineLibreTranslate:
		tr = NewLibreTranslateClient(cfg.BaseURL, cfg.APIKey, cfg.Logger)
	case EngineArgos:
		tr = NewArgosClient(cfg.BaseURL, cfg.Logger)
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}

	return Instrument(tr, string(cfg.Engine)), nil
}

// ParseEngineType parses a string into an EngineType.
// Returns an error if the string is not a valid engine type.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return EngineNone, nil
	case "libretranslate":
		return EngineLibreTranslate, nil
	case "argos":
		return EngineArgos, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: none, libretranslate, argos)", s)
	}
}
