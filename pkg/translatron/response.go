package translatron

import "net/http"

const (
	// SuccessBody is the empty TwiML document acknowledging a message.
	SuccessBody = "<Response></Response>"
	// ForbiddenBody is returned when the request signature does not verify.
	ForbiddenBody = "Forbidden: Invalid Twilio request signature"
)

// Response is the transport-level acknowledgement of a webhook event.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers"`
}

// SuccessResponse acknowledges a processed message with empty TwiML.
func SuccessResponse() Response {
	return Response{
		StatusCode: http.StatusOK,
		Body:       SuccessBody,
		Headers:    map[string]string{"Content-Type": "application/xml"},
	}
}

// ForbiddenResponse rejects a request whose signature did not verify.
func ForbiddenResponse() Response {
	return Response{
		StatusCode: http.StatusForbidden,
		Body:       ForbiddenBody,
		Headers:    map[string]string{"Content-Type": "text/plain; charset=utf-8"},
	}
}
