package gemini

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAuthRequired indicates the provider rejected the API key, or no key was
// configured. The session layer reacts by asking the user to select a key.
var ErrAuthRequired = errors.New("provider API key missing or invalid")

// ErrGenerationFailed indicates a call completed but returned no usable
// inline content (image or video).
var ErrGenerationFailed = errors.New("generation returned no content")

// statusError converts an upstream HTTP failure into an error value,
// classifying key problems as ErrAuthRequired.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if status == 401 || status == 403 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrAuthRequired, status, msg)
	}
	// The video API reports an invalid key as a missing entity.
	if strings.Contains(msg, "Requested entity was not found") {
		return fmt.Errorf("%w: %s", ErrAuthRequired, msg)
	}
	return fmt.Errorf("unexpected status %d: %s", status, msg)
}
