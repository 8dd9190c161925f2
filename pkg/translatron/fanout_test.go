package translatron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectAndTranslate(t *testing.T) {
	tr := &fakeTranslator{detected: "en", texts: map[string]string{"es": "Hola mundo", "fr": "Bonjour le monde"}}

	got, lang, err := DetectAndTranslate(context.Background(), tr, "Hello world", []string{"en", "es", "fr"}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "en", lang)
	assert.Equal(t, []Translation{{Lang: "es", Text: "Hola mundo"}, {Lang: "fr", Text: "Bonjour le monde"}}, got)
	assert.Equal(t, []string{"en", "en"}, tr.hints)
}

func TestDetectAndTranslateSkipsDetectedLanguageInOrder(t *testing.T) {
	tr := &fakeTranslator{detected: "es"}

	got, lang, err := DetectAndTranslate(context.Background(), tr, "Hola mundo", []string{"fr", "es", "en", "de"}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "es", lang)
	assert.Equal(t, []string{"fr", "en", "de"}, tr.calls)
	require.Len(t, got, 3)
	assert.Equal(t, "fr", got[0].Lang)
	assert.Equal(t, "en", got[1].Lang)
	assert.Equal(t, "de", got[2].Lang)
}

func TestDetectAndTranslateLanguageNotInTargets(t *testing.T) {
	tr := &fakeTranslator{detected: "zh"}

	got, _, err := DetectAndTranslate(context.Background(), tr, "你好世界", []string{"en", "es", "fr"}, quietLogger())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestDetectAndTranslateMatchIsCaseSensitive(t *testing.T) {
	tr := &fakeTranslator{detected: "en"}

	got, _, err := DetectAndTranslate(context.Background(), tr, "Hello", []string{"EN"}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []Translation{{Lang: "EN", Text: "[EN] Hello"}}, got)
}

func TestDetectAndTranslateNoTargets(t *testing.T) {
	for _, targets := range [][]string{nil, {"en"}} {
		got, lang, err := DetectAndTranslate(context.Background(), &fakeTranslator{detected: "en"}, "Hello", targets, quietLogger())
		require.NoError(t, err)
		assert.Equal(t, "en", lang)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestDetectAndTranslateDetectFailure(t *testing.T) {
	tr := &fakeTranslator{detectErr: errors.New("comprehend throttled")}

	got, lang, err := DetectAndTranslate(context.Background(), tr, "Hello", []string{"es"}, quietLogger())

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "detect", terr.Op)
	assert.Nil(t, got)
	assert.Empty(t, lang)
	assert.Empty(t, tr.calls)
}

func TestDetectAndTranslateTranslateFailureReturnsNoPartialResults(t *testing.T) {
	tr := &fakeTranslator{detected: "en", failLang: "fr"}

	got, _, err := DetectAndTranslate(context.Background(), tr, "Hello", []string{"es", "fr", "de"}, quietLogger())

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "translate", terr.Op)
	assert.Equal(t, "fr", terr.Lang)
	assert.Contains(t, err.Error(), "provider unavailable")
	assert.Nil(t, got)
	assert.Equal(t, []string{"es", "fr"}, tr.calls)
}
