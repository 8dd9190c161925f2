package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultLibreTranslateURL is the default base URL for LibreTranslate API.
	DefaultLibreTranslateURL = "http://localhost:5000"
	// DefaultLibreTranslateTimeout is the default timeout for HTTP requests.
	// SMS bodies are short, so this stays well below webhook delivery timeouts.
	DefaultLibreTranslateTimeout = 10 * time.Second
)

// ErrNoDetection is returned when a backend cannot name a language for the text.
var ErrNoDetection = errors.New("no language detected")

// LibreTranslateClient implements the Translator interface using LibreTranslate.
// LibreTranslate is a self-hosted, open-source machine translation API.
type LibreTranslateClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	mapper     *LanguageMapper
	logger     *logrus.Logger
}

// NewLibreTranslateClient creates a new LibreTranslate client.
// baseURL should point to the LibreTranslate server (default: http://localhost:5000).
func NewLibreTranslateClient(baseURL, apiKey string, logger *logrus.Logger) *LibreTranslateClient {
	if baseURL == "" {
		baseURL = DefaultLibreTranslateURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &LibreTranslateClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultLibreTranslateTimeout,
		},
		mapper: NewLanguageMapper(),
		logger: logger,
	}
}

// translateRequest represents a LibreTranslate API request.
type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"` // e.g., "en" or "auto"
	Target string `json:"target"` // e.g., "fr"
	Format string `json:"format"` // "text" or "html"
	APIKey string `json:"api_key,omitempty"`
}

// translateResponse represents a LibreTranslate API response.
type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// detectRequest represents a LibreTranslate /detect request.
type detectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

// detectResponse is one candidate from the /detect endpoint, best first.
type detectResponse struct {
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language"`
}

// languagesResponse represents the response from the /languages endpoint.
type languagesResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DetectLanguage returns the highest-confidence language LibreTranslate reports for text.
func (c *LibreTranslateClient) DetectLanguage(ctx context.Context, text string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"text_length": len(text),
	}).Debug("Detecting language with LibreTranslate")

	var candidates []detectResponse
	if err := c.postJSON(ctx, "/detect", detectRequest{Q: text, APIKey: c.apiKey}, &candidates); err != nil {
		return "", err
	}
	if len(candidates) == 0 || candidates[0].Language == "" {
		c.logger.Error("LibreTranslate returned no detection candidates")
		return "", ErrNoDetection
	}

	c.logger.WithFields(logrus.Fields{
		"language":   candidates[0].Language,
		"confidence": candidates[0].Confidence,
	}).Debug("Language detected")

	return candidates[0].Language, nil
}

// Translate translates text into targetLang using detectedLang as the source.
// An empty detectedLang lets LibreTranslate auto-detect.
func (c *LibreTranslateClient) Translate(ctx context.Context, text, targetLang, detectedLang string) (string, error) {
	source := "auto"
	if detectedLang != "" {
		source = c.mapper.ToBackendCode(detectedLang)
	}
	target := c.mapper.ToBackendCode(targetLang)

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
		"text_length": len(text),
	}).Debug("Translating text with LibreTranslate")

	reqPayload := translateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
		APIKey: c.apiKey,
	}

	startTime := time.Now()
	var ltResp translateResponse
	if err := c.postJSON(ctx, "/translate", reqPayload, &ltResp); err != nil {
		return "", err
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Translation completed successfully")

	return ltResp.TranslatedText, nil
}

// postJSON sends payload to path and decodes a 200 response into out.
func (c *LibreTranslateClient) postJSON(ctx context.Context, path string, payload, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		c.logger.WithError(err).Error("Failed to encode LibreTranslate request")
		return fmt.Errorf("encode request: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create LibreTranslate request")
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url": url,
		}).Error("LibreTranslate request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.WithFields(logrus.Fields{
			"url":         url,
			"status_code": resp.StatusCode,
			"response":    string(bodyBytes),
		}).Error("LibreTranslate request returned non-OK status")
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.WithError(err).Error("Failed to decode LibreTranslate response")
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CheckHealth verifies that LibreTranslate is ready and operational.
func (c *LibreTranslateClient) CheckHealth(ctx context.Context) error {
	c.logger.Debug("Checking LibreTranslate health")

	// The /languages endpoint doubles as a health check.
	if _, err := c.SupportedLanguages(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	c.logger.Debug("LibreTranslate health check passed")
	return nil
}

// SupportedLanguages returns a list of language codes supported by LibreTranslate.
func (c *LibreTranslateClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	c.logger.Debug("Fetching supported languages from LibreTranslate")

	url := c.baseURL + "/languages"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.WithError(err).Error("Failed to create languages request")
		return nil, fmt.Errorf("create languages request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).Error("Failed to fetch supported languages")
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
		}).Error("Languages request returned non-OK status")
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var languages []languagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&languages); err != nil {
		c.logger.WithError(err).Error("Failed to decode languages response")
		return nil, fmt.Errorf("decode response: %w", err)
	}

	codes := make([]string, 0, len(languages))
	for _, lang := range languages {
		codes = append(codes, lang.Code)
	}

	c.logger.WithFields(logrus.Fields{
		"count": len(codes),
	}).Debug("Fetched supported languages")

	return codes, nil
}
