// Package translate sends transcripts to a locally hosted text-generation
// service and returns the completion as the translation.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceUnavailable marks transport-level failures reaching the
	// translation service.
	ErrServiceUnavailable = errors.New("translation service unreachable")

	// ErrTranslationFailed marks requests the service accepted but answered
	// with an error status.
	ErrTranslationFailed = errors.New("translation request failed")

	// ErrEmptyTranslation marks responses with no usable completion text.
	ErrEmptyTranslation = errors.New("translation service returned no text")
)

type Request struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}

type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// BuildPrompt renders the single instruction sent to the model. The
// transcript passes through verbatim.
func BuildPrompt(req Request) string {
	return fmt.Sprintf("Translate the following text from %s to %s: %s",
		strings.TrimSpace(req.SourceLanguage),
		strings.TrimSpace(req.TargetLanguage),
		req.Text)
}
