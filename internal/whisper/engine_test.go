package whisper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEngineKind(t *testing.T) {
	t.Parallel()

	kind, err := ParseEngineKind("whisper_cpp")
	require.NoError(t, err)
	require.Equal(t, EngineWhisperCPP, kind)

	kind, err = ParseEngineKind(" whisper_cpp ")
	require.NoError(t, err)
	require.Equal(t, EngineWhisperCPP, kind)
}

func TestParseEngineKindRejectsUnknownModels(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "vosk", "whisper", "WHISPER_CPP"} {
		_, err := ParseEngineKind(name)
		require.Error(t, err, "expected %q to be rejected", name)
		require.ErrorIs(t, err, ErrUnsupportedEngine)
	}
}
