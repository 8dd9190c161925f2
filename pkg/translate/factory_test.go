package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineType(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineType
		wantErr bool
	}{
		{in: "none", want: EngineNone},
		{in: "", want: EngineNone},
		{in: "LibreTranslate", want: EngineLibreTranslate},
		{in: " argos ", want: EngineArgos},
		{in: "amazon", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseEngineType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewTranslatorUnknownEngine(t *testing.T) {
	_, err := NewTranslator(Config{Engine: "babelfish", Logger: quietLogger()})
	assert.Error(t, err)
}

func TestNewTranslatorNone(t *testing.T) {
	tr, err := NewTranslator(Config{Engine: EngineNone, FixedLanguage: "es", Logger: quietLogger()})
	require.NoError(t, err)

	lang, err := tr.DetectLanguage(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "es", lang)

	out, err := tr.Translate(context.Background(), "anything", "fr", "es")
	require.NoError(t, err)
	assert.Equal(t, "anything", out)

	hc, ok := tr.(HealthChecker)
	require.True(t, ok)
	assert.NoError(t, hc.CheckHealth(context.Background()))

	ll, ok := tr.(LanguageLister)
	require.True(t, ok)
	_, err = ll.SupportedLanguages(context.Background())
	assert.ErrorIs(t, err, ErrLanguagesUnavailable)
}

type failingTranslator struct{}

func (failingTranslator) DetectLanguage(ctx context.Context, text string) (string, error) {
	return "", errors.New("detect down")
}

func (failingTranslator) Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error) {
	return "", errors.New("translate down")
}

func TestInstrumentPassesErrorsThrough(t *testing.T) {
	tr := Instrument(failingTranslator{}, "test")

	_, err := tr.DetectLanguage(context.Background(), "x")
	assert.EqualError(t, err, "detect down")

	_, err = tr.Translate(context.Background(), "x", "es", "en")
	assert.EqualError(t, err, "translate down")

	assert.NoError(t, tr.(HealthChecker).CheckHealth(context.Background()))
}

func TestArgosClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/detect", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"language":"fr"}`))
	})
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translated_text":"Hello"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewArgosClient(srv.URL, quietLogger())

	lang, err := client.DetectLanguage(context.Background(), "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	out, err := client.Translate(context.Background(), "Bonjour", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Hello", out)

	assert.NoError(t, client.CheckHealth(context.Background()))

	langs, err := client.SupportedLanguages(context.Background())
	require.NoError(t, err)
	assert.Contains(t, langs, "fa")
}

func TestLanguageMapper(t *testing.T) {
	lm := NewLanguageMapper()
	assert.Equal(t, "en", lm.ToBackendCode("EN"))
	assert.Equal(t, "fr", lm.ToBackendCode("fr-CA"))
	assert.Equal(t, "zh", lm.ToBackendCode("zh_TW"))

	missing := lm.UnsupportedLanguages([]string{"en", "fr-CA", "tlh", "es"}, []string{"en", "fr"})
	assert.Equal(t, []string{"tlh", "es"}, missing)
}
