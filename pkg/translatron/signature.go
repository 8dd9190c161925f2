package translatron

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const (
	// SignatureHeader carries the Twilio request signature.
	SignatureHeader = "X-Twilio-Signature"

	defaultScheme = "https"
	defaultPath   = "/"
)

// SecretSource supplies the shared secret used to sign webhook requests.
// An empty secret, or an error wrapping ErrConfigurationMissing, means no
// secret is configured.
type SecretSource interface {
	AuthToken() (string, error)
}

// StaticSecret is a SecretSource with a fixed value.
type StaticSecret string

// AuthToken returns the secret, or ErrConfigurationMissing when it is empty.
func (s StaticSecret) AuthToken() (string, error) {
	if s == "" {
		return "", ErrConfigurationMissing
	}
	return string(s), nil
}

// Validator checks that a webhook request was signed by Twilio. The origin
// URL is rebuilt from a trusted scheme and path plus the request's Host
// header; nothing else about the URL comes from the request.
type Validator struct {
	secrets SecretSource
	scheme  string
	path    string
}

// NewValidator returns a Validator for requests delivered to
// scheme://<Host>path. Empty scheme and path default to "https" and "/".
func NewValidator(secrets SecretSource, scheme, path string) *Validator {
	if scheme == "" {
		scheme = defaultScheme
	}
	if path == "" {
		path = defaultPath
	}
	return &Validator{secrets: secrets, scheme: scheme, path: path}
}

// URL returns the origin URL a request with the given Host was signed for.
func (v *Validator) URL(host string) string {
	return v.scheme + "://" + host + v.path
}

// Validate reports whether headers carry a valid signature for params.
// A missing signature header or a mismatch yields false with a nil error.
// A missing secret yields an error wrapping ErrConfigurationMissing.
func (v *Validator) Validate(params url.Values, headers map[string]string) (bool, error) {
	if v.secrets == nil {
		return false, ErrConfigurationMissing
	}
	secret, err := v.secrets.AuthToken()
	if err != nil {
		if errors.Is(err, ErrConfigurationMissing) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", ErrConfigurationMissing, err)
	}
	if secret == "" {
		return false, ErrConfigurationMissing
	}

	signature, ok := headerValue(headers, SignatureHeader)
	if !ok || signature == "" {
		return false, nil
	}

	host, _ := headerValue(headers, "Host")
	expected := ComputeSignature(v.URL(host), params, secret)

	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// ComputeSignature returns the base64 HMAC-SHA1 Twilio computes for a POST to
// rawURL with the given form params.
func ComputeSignature(rawURL string, params url.Values, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	_, _ = mac.Write([]byte(canonicalString(rawURL, params)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// canonicalString appends name+value for every param, names sorted and
// values of repeated names sorted, to rawURL.
func canonicalString(rawURL string, params url.Values) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(rawURL)
	for _, name := range names {
		values := append([]string(nil), params[name]...)
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(name)
			b.WriteString(value)
		}
	}
	return b.String()
}
