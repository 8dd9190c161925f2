package translatron

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when a base64-flagged body cannot be decoded.
	ErrDecode = errors.New("decode event body")

	// ErrConfigurationMissing is returned when the shared secret needed for
	// signature validation is not configured. It is never reported as an
	// invalid signature.
	ErrConfigurationMissing = errors.New("signature secret not configured")
)

// TranslationError reports a failure from the translation backend.
type TranslationError struct {
	// Op is "detect" or "translate".
	Op string
	// Lang is the target language for translate failures.
	Lang string
	Err  error
}

func (e *TranslationError) Error() string {
	if e.Lang == "" {
		return fmt.Sprintf("translation %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("translation %s to %s: %v", e.Op, e.Lang, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
