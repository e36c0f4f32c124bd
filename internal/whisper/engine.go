// Package whisper adapts external whisper.cpp transcription engines.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EngineKind names a supported transcription backend. The set is closed;
// adding a backend means adding a constant and its adapter here.
type EngineKind string

const EngineWhisperCPP EngineKind = "whisper_cpp"

var (
	// ErrUnsupportedEngine is returned for transcription model names outside
	// the supported set, before any subprocess is launched.
	ErrUnsupportedEngine = errors.New("unsupported transcription model")

	// ErrTranscriptionFailed wraps a non-zero exit of the external engine,
	// including whatever it wrote to stderr.
	ErrTranscriptionFailed = errors.New("transcription failed")
)

type TranscriptionRequest struct {
	AudioPath string
	ModelPath string
	Language  string
}

type Engine interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (string, error)
}

// ParseEngineKind validates a transcription model name from the CLI.
func ParseEngineKind(name string) (EngineKind, error) {
	switch EngineKind(strings.TrimSpace(name)) {
	case EngineWhisperCPP:
		return EngineWhisperCPP, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedEngine, name, EngineWhisperCPP)
	}
}
