package translate

import (
	"errors"
	"fmt"
)

// ErrMissingField marks a main-field response that lacks one of the
// required keys.
var ErrMissingField = errors.New("response missing required field")

// TranslationError reports a failed main-field translation. Op names the
// stage that failed (request, status, decode, content).
type TranslationError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TranslationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("translate %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("translate %s: %v", e.Op, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}

// IsTranslationError reports whether err wraps a *TranslationError.
func IsTranslationError(err error) bool {
	var te *TranslationError
	return errors.As(err, &te)
}
