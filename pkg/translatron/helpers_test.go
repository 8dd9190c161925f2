package translatron

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// fakeTranslator detects a fixed language and renders "[lang] text" unless
// an explicit translation is configured.
type fakeTranslator struct {
	mu        sync.Mutex
	detected  string
	texts     map[string]string
	detectErr error
	failLang  string
	calls     []string
	hints     []string
}

func (f *fakeTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	if f.detectErr != nil {
		return "", f.detectErr
	}
	return f.detected, nil
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, targetLang)
	f.hints = append(f.hints, detectedLang)
	if targetLang == f.failLang {
		return "", errors.New("provider unavailable")
	}
	if out, ok := f.texts[targetLang]; ok {
		return out, nil
	}
	return "[" + targetLang + "] " + text, nil
}

// recordingAction remembers every record it was handed.
type recordingAction struct {
	mu   sync.Mutex
	name string
	err  error
	seen []*TextRecord
}

func (a *recordingAction) Name() string { return a.name }

func (a *recordingAction) Handle(ctx context.Context, record *TextRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = append(a.seen, record)
	return a.err
}
