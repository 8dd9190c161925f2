package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultArgosURL is the default base URL for the Argos Translate HTTP wrapper.
	DefaultArgosURL = "http://127.0.0.1:5000"
	// DefaultArgosTimeout is the default timeout for HTTP requests.
	DefaultArgosTimeout = 10 * time.Second
)

// argosLanguages is what the stock Argos package index ships with.
var argosLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "zh", "ja", "ko",
	"ar", "hi", "tr", "pl", "nl", "sv", "da", "fi", "cs", "fa",
	"ro", "hu", "bg", "el", "uk", "id", "vi", "he", "ga", "sk",
}

// ArgosClient implements the Translator interface using Argos Translate.
// Argos is a library, so this client talks to the small HTTP wrapper we
// deploy next to it (POST /detect, POST /translate, GET /health).
type ArgosClient struct {
	baseURL    string
	httpClient *http.Client
	mapper     *LanguageMapper
	logger     *logrus.Logger
}

// NewArgosClient creates a new Argos Translate client.
func NewArgosClient(baseURL string, logger *logrus.Logger) *ArgosClient {
	if baseURL == "" {
		baseURL = DefaultArgosURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &ArgosClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultArgosTimeout,
		},
		mapper: NewLanguageMapper(),
		logger: logger,
	}
}

type argosDetectRequest struct {
	Text string `json:"text"`
}

type argosDetectResponse struct {
	Language string `json:"language"`
}

type argosTranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

type argosTranslateResponse struct {
	TranslatedText string `json:"translated_text"`
}

// DetectLanguage asks the wrapper which language text is in.
func (c *ArgosClient) DetectLanguage(ctx context.Context, text string) (string, error) {
	var resp argosDetectResponse
	if err := c.post(ctx, "/detect", argosDetectRequest{Text: text}, &resp); err != nil {
		return "", err
	}
	if resp.Language == "" {
		return "", ErrNoDetection
	}
	return resp.Language, nil
}

// Translate translates text into targetLang from detectedLang.
func (c *ArgosClient) Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": detectedLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Argos")

	reqPayload := argosTranslateRequest{
		Text:       text,
		SourceLang: c.mapper.ToBackendCode(detectedLang),
		TargetLang: c.mapper.ToBackendCode(targetLang),
	}

	var argosResp argosTranslateResponse
	if err := c.post(ctx, "/translate", reqPayload, &argosResp); err != nil {
		return "", err
	}
	return argosResp.TranslatedText, nil
}

func (c *ArgosClient) post(ctx context.Context, path string, payload, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": url,
		}).Error("Argos request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"path":        path,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Debug("Argos request completed")

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CheckHealth verifies that the Argos wrapper answers on /health.
func (c *ArgosClient) CheckHealth(ctx context.Context) error {
	url := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// SupportedLanguages returns the language codes installed with stock Argos packages.
func (c *ArgosClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	out := make([]string, len(argosLanguages))
	copy(out, argosLanguages)
	return out, nil
}
