package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3"
)

// The system message pins the model to answering with the translation only;
// without it chat models tend to prepend commentary.
const systemPrompt = "You are a translation engine. Reply with only the translated text, no quotes and no commentary."

type OllamaConfig struct {
	Host  string
	Model string
}

// OllamaTranslator talks to Ollama through its OpenAI-compatible endpoint
// (<host>/v1). One request per translation, no retries.
type OllamaTranslator struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

func NewOllamaTranslator(cfg OllamaConfig, logger *zap.Logger) *OllamaTranslator {
	if logger == nil {
		logger = zap.NewNop()
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = DefaultHost
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(
		// Trailing slash matters: relative endpoint paths are resolved
		// against the base URL.
		option.WithBaseURL(strings.TrimRight(host, "/")+"/v1/"),
		// Ollama ignores the key but the client requires one.
		option.WithAPIKey("ollama"),
		option.WithMaxRetries(0),
	)

	return &OllamaTranslator{client: client, model: model, logger: logger}
}

func (t *OllamaTranslator) Translate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", errors.New("transcript text is required")
	}
	if strings.TrimSpace(req.SourceLanguage) == "" || strings.TrimSpace(req.TargetLanguage) == "" {
		return "", errors.New("source and target languages are required")
	}

	t.logger.Debug("requesting translation",
		zap.String("model", t.model),
		zap.String("from", req.SourceLanguage),
		zap.String("to", req.TargetLanguage),
	)

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(req)),
		},
		Model: openai.ChatModel(t.model),
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyTranslation
	}

	translation := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translation == "" {
		return "", ErrEmptyTranslation
	}

	return translation, nil
}
