package translatron

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// InboundEvent is the raw webhook delivery handed over by the hosting layer.
// The JSON shape matches an API Gateway proxy event.
type InboundEvent struct {
	Body            string            `json:"body"`
	IsBase64Encoded bool              `json:"isBase64Encoded"`
	Headers         map[string]string `json:"headers"`
}

// Header looks up a header value ignoring case.
func (e InboundEvent) Header(name string) (string, bool) {
	return headerValue(e.Headers, name)
}

func headerValue(headers map[string]string, name string) (string, bool) {
	if v, ok := headers[name]; ok {
		return v, true
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// ParseEventParams decodes the event body into form fields. Repeated fields
// keep their order. An empty body yields an empty set of params.
//
// The only failure is a base64-flagged body that is not valid base64 (or
// not UTF-8 once decoded); the returned error wraps ErrDecode. Pairs with
// broken percent-escapes are dropped; the signature check decides whether
// what remains is trustworthy.
func ParseEventParams(event InboundEvent) (url.Values, error) {
	body := event.Body
	if event.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("%w: body is not valid UTF-8", ErrDecode)
		}
		body = string(raw)
	}

	if body == "" {
		return url.Values{}, nil
	}

	// ParseQuery keeps every well-formed pair even when it reports an error.
	params, _ := url.ParseQuery(body)
	return params, nil
}
