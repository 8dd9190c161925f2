// Package app wires configuration into a ready-to-serve webhook pipeline.
// Both the HTTP server and the Lambda entrypoint start from here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dasmlab/translatron/pkg/actions"
	"github.com/dasmlab/translatron/pkg/config"
	"github.com/dasmlab/translatron/pkg/translate"
	"github.com/dasmlab/translatron/pkg/translatron"
)

// App owns the pipeline and the backend clients behind it.
type App struct {
	Config     *config.Config
	Translator translate.Translator
	Pipeline   *translatron.Translatron

	actions *actions.Set
	logger  *logrus.Logger
}

// New builds the translator, the configured actions and the pipeline.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if logger == nil {
		logger = logrus.New()
	}

	engine, err := translate.ParseEngineType(cfg.Translator.Provider)
	if err != nil {
		return nil, err
	}
	tr, err := translate.NewTranslator(translate.Config{
		Engine:        engine,
		BaseURL:       cfg.Translator.BaseURL,
		APIKey:        cfg.Translator.APIKey,
		FixedLanguage: cfg.Translator.FixedLanguage,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	set, err := actions.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pipeline, err := translatron.New(translatron.Config{
		Translator: tr,
		Actions:    set.Actions,
		Languages:  cfg.Languages,
		Secrets:    cfg.Twilio,
		Scheme:     cfg.Server.PublicScheme,
		Path:       cfg.Server.WebhookPath,
		Logger:     logger,
	})
	if err != nil {
		_ = set.Close()
		return nil, err
	}

	return &App{
		Config:     cfg,
		Translator: tr,
		Pipeline:   pipeline,
		actions:    set,
		logger:     logger,
	}, nil
}

// Health reports whether the translation backend is reachable.
func (a *App) Health(ctx context.Context) error {
	if hc, ok := a.Translator.(translate.HealthChecker); ok {
		return hc.CheckHealth(ctx)
	}
	return nil
}

// StartupCheck logs the translator health and warns about target languages
// the backend does not list. Neither problem stops startup; the health
// error is returned so callers can decide.
func (a *App) StartupCheck(ctx context.Context) error {
	a.logger.Info("Checking translator health...")
	if err := a.Health(ctx); err != nil {
		a.logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
		a.logger.Warn("Translation requests may fail until the translator is ready")
		return err
	}
	a.logger.Info("Translator health check passed")

	missing, err := UnsupportedTargets(ctx, a.Translator, a.Config.Languages)
	switch {
	case errors.Is(err, translate.ErrLanguagesUnavailable):
	case err != nil:
		a.logger.WithError(err).Warn("Could not list translator languages")
	case len(missing) > 0:
		a.logger.WithFields(logrus.Fields{
			"languages": missing,
		}).Warn("Target languages not supported by translator")
	}
	return nil
}

// UnsupportedTargets returns the configured languages tr does not list.
func UnsupportedTargets(ctx context.Context, tr translate.Translator, languages []string) ([]string, error) {
	ll, ok := tr.(translate.LanguageLister)
	if !ok {
		return nil, translate.ErrLanguagesUnavailable
	}
	supported, err := ll.SupportedLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list supported languages: %w", err)
	}
	return translate.NewLanguageMapper().UnsupportedLanguages(languages, supported), nil
}

// Close releases the action backends.
func (a *App) Close() error {
	return a.actions.Close()
}
