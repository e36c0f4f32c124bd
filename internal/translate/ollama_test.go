package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionJSON(content string) string {
	body := map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   "llama3",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
	raw, _ := json.Marshal(body)
	return string(raw)
}

func newTranslatorFor(srvURL string) *OllamaTranslator {
	return NewOllamaTranslator(OllamaConfig{Host: srvURL, Model: "llama3"}, nil)
}

func TestOllamaTranslatorReturnsCompletionText(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON(" Привет мир ")))
	}))
	defer srv.Close()

	translation, err := newTranslatorFor(srv.URL).Translate(context.Background(), Request{
		Text:           "Hello world",
		SourceLanguage: "english",
		TargetLanguage: "russian",
	})
	require.NoError(t, err)
	require.Equal(t, "Привет мир", translation)

	require.Equal(t, "llama3", captured.Model)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Equal(t, "user", captured.Messages[1].Role)
	require.Contains(t, captured.Messages[1].Content, "english")
	require.Contains(t, captured.Messages[1].Content, "russian")
	require.Contains(t, captured.Messages[1].Content, "Hello world")
}

func TestOllamaTranslatorRejectsEmptyCompletion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "blank content", body: completionJSON("  ")},
		{name: "no choices", body: `{"id":"chatcmpl-test","object":"chat.completion","created":0,"model":"llama3","choices":[]}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTranslatorFor(srv.URL).Translate(context.Background(), Request{
				Text:           "Hello world",
				SourceLanguage: "english",
				TargetLanguage: "russian",
			})
			require.ErrorIs(t, err, ErrEmptyTranslation)
		})
	}
}

func TestOllamaTranslatorMapsErrorStatusToTranslationFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model failed to load","type":"server_error"}}`))
	}))
	defer srv.Close()

	_, err := newTranslatorFor(srv.URL).Translate(context.Background(), Request{
		Text:           "Hello world",
		SourceLanguage: "english",
		TargetLanguage: "russian",
	})
	require.ErrorIs(t, err, ErrTranslationFailed)
}

func TestOllamaTranslatorMapsTransportFailureToUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	unreachable := srv.URL
	srv.Close()

	_, err := newTranslatorFor(unreachable).Translate(context.Background(), Request{
		Text:           "Hello world",
		SourceLanguage: "english",
		TargetLanguage: "russian",
	})
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestOllamaTranslatorValidatesRequest(t *testing.T) {
	t.Parallel()

	translator := NewOllamaTranslator(OllamaConfig{}, nil)

	_, err := translator.Translate(context.Background(), Request{SourceLanguage: "english", TargetLanguage: "russian"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "transcript text is required")

	_, err = translator.Translate(context.Background(), Request{Text: "Hello"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "languages are required")
}
