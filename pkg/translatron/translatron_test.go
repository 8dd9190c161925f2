package translatron

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const authToken = "test_token_123"

func signedEvent(t *testing.T, body, secret string, base64Body bool) InboundEvent {
	t.Helper()

	params, err := url.ParseQuery(body)
	require.NoError(t, err)

	ev := InboundEvent{
		Body: body,
		Headers: map[string]string{
			"Host":               "example.com",
			"x-twilio-signature": ComputeSignature("https://example.com/", params, secret),
		},
	}
	if base64Body {
		ev.Body = base64.StdEncoding.EncodeToString([]byte(body))
		ev.IsBase64Encoded = true
	}
	return ev
}

type pipelineFixture struct {
	tr      *fakeTranslator
	first   *recordingAction
	second  *recordingAction
	handler *Translatron
}

func newPipeline(t *testing.T, languages []string, secrets SecretSource) *pipelineFixture {
	t.Helper()

	var seq int64
	f := &pipelineFixture{
		tr:     &fakeTranslator{detected: "en", texts: map[string]string{"es": "Hola mundo", "fr": "Bonjour le monde"}},
		first:  &recordingAction{name: "store"},
		second: &recordingAction{name: "forward"},
	}
	handler, err := New(Config{
		Translator: f.tr,
		Actions:    []Action{f.first, f.second},
		Languages:  languages,
		Secrets:    secrets,
		Normalizer: Normalizer{
			NewID: func() string {
				return "msg-" + strconv.FormatInt(atomic.AddInt64(&seq, 1), 10)
			},
		},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	f.handler = handler
	return f
}

func TestNewRequiresTranslatorAndSecrets(t *testing.T) {
	_, err := New(Config{Secrets: StaticSecret("x")})
	assert.Error(t, err)

	_, err = New(Config{Translator: &fakeTranslator{}})
	assert.Error(t, err)
}

func TestHandleScenarioAValidSignature(t *testing.T) {
	f := newPipeline(t, []string{"en", "es", "fr"}, StaticSecret(authToken))

	resp, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, authToken, false))
	require.NoError(t, err)

	assert.Equal(t, SuccessResponse(), resp)
	require.Len(t, f.first.seen, 1)
	require.Len(t, f.second.seen, 1)
	assert.Same(t, f.first.seen[0], f.second.seen[0])

	record := f.first.seen[0]
	assert.Equal(t, "msg-1", record.MessageID)
	assert.Equal(t, "+15551234567", record.Sender)
	assert.Equal(t, "+15551234567", record.ConversationID)
	assert.Equal(t, "+15559876543", record.Recipient)
	assert.Equal(t, "Hello world", record.OriginalText)
	assert.Equal(t, "en", record.OriginalLang)
	assert.Equal(t, []Translation{{Lang: "es", Text: "Hola mundo"}, {Lang: "fr", Text: "Bonjour le monde"}}, record.Translations)
}

func TestHandleScenarioBWrongSecret(t *testing.T) {
	f := newPipeline(t, []string{"en", "es", "fr"}, StaticSecret(authToken))

	resp, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, "wrong_token_456", false))
	require.NoError(t, err)

	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "Forbidden: Invalid Twilio request signature", resp.Body)
	assert.Empty(t, f.first.seen)
	assert.Empty(t, f.second.seen)
	assert.Empty(t, f.tr.calls)
}

func TestHandleScenarioCBase64Body(t *testing.T) {
	f := newPipeline(t, []string{"en", "es", "fr"}, StaticSecret(authToken))

	resp, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, authToken, true))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	require.Len(t, f.first.seen, 1)
	assert.Equal(t, "+15551234567", f.first.seen[0].Sender)
	assert.Equal(t, "Hello world", f.first.seen[0].OriginalText)
}

func TestHandleScenarioDNoTranslations(t *testing.T) {
	f := newPipeline(t, []string{"en"}, StaticSecret(authToken))

	resp, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, authToken, false))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	require.Len(t, f.first.seen, 1)
	require.Len(t, f.second.seen, 1)
	assert.Empty(t, f.first.seen[0].Translations)
	assert.Empty(t, f.tr.calls)
}

func TestHandleIsIdempotentExceptIDAndTime(t *testing.T) {
	f := newPipeline(t, []string{"en", "es", "fr"}, StaticSecret(authToken))
	ev := signedEvent(t, scenarioBody, authToken, false)

	_, err := f.handler.Handle(context.Background(), ev)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = f.handler.Handle(context.Background(), ev)
	require.NoError(t, err)

	require.Len(t, f.first.seen, 2)
	a, b := *f.first.seen[0], *f.first.seen[1]
	assert.NotEqual(t, a.MessageID, b.MessageID)
	assert.NotEqual(t, a.Timestamp, b.Timestamp)

	a.MessageID, b.MessageID = "", ""
	a.Timestamp, b.Timestamp = "", ""
	assert.Equal(t, a, b)
}

func TestHandleConcurrentRequests(t *testing.T) {
	f := newPipeline(t, []string{"en", "es", "fr"}, StaticSecret(authToken))
	ev := signedEvent(t, scenarioBody, authToken, false)

	const requests = 32
	statuses := make([]int, requests)
	errs := make([]error, requests)

	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.handler.Handle(context.Background(), ev)
			statuses[i], errs[i] = resp.StatusCode, err
		}(i)
	}
	wg.Wait()

	for i := 0; i < requests; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 200, statuses[i])
	}

	require.Len(t, f.first.seen, requests)
	require.Len(t, f.second.seen, requests)
	assert.Len(t, f.tr.calls, 2*requests)

	ids := make(map[string]bool, requests)
	for _, record := range f.first.seen {
		ids[record.MessageID] = true
		assert.Equal(t, []Translation{{Lang: "es", Text: "Hola mundo"}, {Lang: "fr", Text: "Bonjour le monde"}}, record.Translations)
	}
	assert.Len(t, ids, requests)
}

func TestHandleMalformedBase64PropagatesDecodeError(t *testing.T) {
	f := newPipeline(t, []string{"es"}, StaticSecret(authToken))

	_, err := f.handler.Handle(context.Background(), InboundEvent{Body: "invalid-base64!@#", IsBase64Encoded: true})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Empty(t, f.first.seen)
}

func TestHandleMissingSecretIsNotForbidden(t *testing.T) {
	f := newPipeline(t, []string{"es"}, StaticSecret(""))

	resp, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, authToken, false))
	assert.ErrorIs(t, err, ErrConfigurationMissing)
	assert.NotEqual(t, 403, resp.StatusCode)
	assert.Empty(t, f.first.seen)
}

func TestHandleMissingSignatureHeaderIsForbidden(t *testing.T) {
	f := newPipeline(t, []string{"es"}, StaticSecret(authToken))

	resp, err := f.handler.Handle(context.Background(), InboundEvent{
		Body:    scenarioBody,
		Headers: map[string]string{"Host": "example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, ForbiddenResponse(), resp)
}

func TestHandleTranslationFailureSkipsActions(t *testing.T) {
	f := newPipeline(t, []string{"es", "fr"}, StaticSecret(authToken))
	f.tr.failLang = "fr"

	_, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, authToken, false))

	var terr *TranslationError
	require.ErrorAs(t, err, &terr)
	assert.Empty(t, f.first.seen)
	assert.Empty(t, f.second.seen)
}

func TestHandleActionFailurePropagates(t *testing.T) {
	f := newPipeline(t, []string{"es"}, StaticSecret(authToken))
	boom := errors.New("conditional check failed")
	f.first.err = boom

	resp, err := f.handler.Handle(context.Background(), signedEvent(t, scenarioBody, authToken, false))

	assert.Same(t, boom, err)
	assert.Zero(t, resp.StatusCode)
	assert.Len(t, f.first.seen, 1)
	assert.Empty(t, f.second.seen)
}

func TestLanguagesReturnsCopy(t *testing.T) {
	f := newPipeline(t, []string{"es", "fr"}, StaticSecret(authToken))
	langs := f.handler.Languages()
	langs[0] = "xx"
	assert.Equal(t, []string{"es", "fr"}, f.handler.Languages())
}
