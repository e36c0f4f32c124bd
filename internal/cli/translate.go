package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmueller/voxlate/internal/audio"
	"github.com/fmueller/voxlate/internal/download"
	"github.com/fmueller/voxlate/internal/translate"
	"github.com/fmueller/voxlate/internal/whisper"
	"go.uber.org/zap"
)

// whisper-cli emits this token instead of text when it hears nothing.
const blankAudioToken = "[BLANK_AUDIO]"

var (
	errLiveUnsupported = errors.New("live transcription is not supported; pass --pre_recorded and a recorded audio file")
	errAudioNotFound   = errors.New("audio file not found")
	errNoUsableText    = errors.New("transcription produced no usable text")
)

// runTranslate is the whole pipeline: validate, transcribe, translate,
// print. Every failure terminates the run; nothing is retried.
func (a *appState) runTranslate(ctx context.Context) error {
	kind, err := whisper.ParseEngineKind(a.transcriptionModel)
	if err != nil {
		return err
	}

	if !a.preRecorded {
		return errLiveUnsupported
	}

	audioPath := filepath.Clean(a.file)
	if _, err := os.Stat(audioPath); err != nil {
		return fmt.Errorf("%w: %s", errAudioNotFound, audioPath)
	}

	a.log().Info("starting translation run",
		zap.String("engine", string(kind)),
		zap.String("file", audioPath),
		zap.String("input_language", a.inputLanguage),
		zap.String("output_language", a.outputLanguage),
		zap.String("llm_model", a.llmModel),
	)
	started := time.Now()

	if err := a.rejectSilentAudio(audioPath); err != nil {
		return err
	}

	transcribeFn := a.transcribeFn
	if transcribeFn == nil {
		transcribeFn = a.transcribeAudio
	}
	translateFn := a.translateFn
	if translateFn == nil {
		translateFn = a.translateText
	}

	transcript, err := transcribeFn(ctx, audioPath)
	if err != nil {
		return err
	}
	if isBlankTranscript(transcript) {
		return errNoUsableText
	}

	translation, err := translateFn(ctx, translate.Request{
		Text:           transcript,
		SourceLanguage: a.inputLanguage,
		TargetLanguage: a.outputLanguage,
	})
	if err != nil {
		return err
	}
	if strings.TrimSpace(translation) == "" {
		return translate.ErrEmptyTranslation
	}

	fmt.Fprintln(a.outWriter(), translation)
	a.log().Info("translation run finished", zap.Duration("elapsed", time.Since(started)))
	return nil
}

func (a *appState) transcribeAudio(ctx context.Context, audioPath string) (string, error) {
	model, err := a.ensureModelAvailable(ctx)
	if err != nil {
		return "", err
	}

	engine, err := whisper.NewBinaryEngine(a.log())
	if err != nil {
		return "", err
	}

	a.log().Info("transcribing...",
		zap.String("audio", audioPath),
		zap.String("model", model.Path),
		zap.String("language", a.inputLanguage),
	)
	stopSpinner := startSpinner(a.progressEnabled(), "Transcribing")
	started := time.Now()

	transcript, err := engine.Transcribe(ctx, whisper.TranscriptionRequest{
		AudioPath: audioPath,
		ModelPath: model.Path,
		Language:  a.inputLanguage,
	})
	stopSpinner()
	if err != nil {
		a.log().Warn("transcription failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", err
	}
	a.log().Info("transcription finished", zap.Duration("elapsed", time.Since(started)))

	return transcript, nil
}

func (a *appState) translateText(ctx context.Context, req translate.Request) (string, error) {
	translator := translate.NewOllamaTranslator(translate.OllamaConfig{
		Host:  a.ollamaHost,
		Model: a.llmModel,
	}, a.log())

	a.log().Info("translating...",
		zap.String("from", req.SourceLanguage),
		zap.String("to", req.TargetLanguage),
		zap.String("model", a.llmModel),
	)
	stopSpinner := startSpinner(a.progressEnabled(), "Translating")
	started := time.Now()

	translation, err := translator.Translate(ctx, req)
	stopSpinner()
	if err != nil {
		a.log().Warn("translation failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return "", err
	}
	a.log().Info("translation finished", zap.Duration("elapsed", time.Since(started)))

	return translation, nil
}

func (a *appState) ensureModelAvailable(ctx context.Context) (whisper.ResolvedModel, error) {
	modelDir, err := a.modelStorageDir()
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	resolved, err := whisper.ResolveModel(a.model, modelDir)
	if err != nil {
		return whisper.ResolvedModel{}, err
	}

	if !resolved.NeedsDownload {
		return resolved, nil
	}

	if !a.autoDownload {
		return whisper.ResolvedModel{}, fmt.Errorf("model %q is missing at %s; run `voxlate setup --model %s` or use --auto-download=true", resolved.Name, resolved.Path, resolved.Name)
	}

	a.log().Info("model not found, downloading", zap.String("model", resolved.Name), zap.String("destination", resolved.Path))
	if err := download.Fetch(ctx, download.Options{
		URL:            resolved.URL,
		Destination:    resolved.Path,
		ExpectedSHA256: resolved.SHA256,
		NoProgress:     a.noProgress,
		Logger:         a.log(),
	}); err != nil {
		return whisper.ResolvedModel{}, fmt.Errorf("download model %q: %w", resolved.Name, err)
	}

	resolved.NeedsDownload = false
	return resolved, nil
}

func (a *appState) rejectSilentAudio(audioPath string) error {
	if !a.silenceGate {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(audioPath), ".wav") {
		return nil
	}

	silent, metrics, err := audio.IsSilentWAV(audioPath, a.silenceDBFS)
	if err != nil {
		a.log().Warn("silence gate analysis failed; continuing", zap.Error(err), zap.String("audio", audioPath))
		return nil
	}
	if !silent {
		return nil
	}

	a.log().Info("audio considered silent",
		zap.String("audio", audioPath),
		zap.Float64("rms_dbfs", metrics.RMSdBFS),
		zap.Float64("peak_dbfs", metrics.PeakdBFS),
		zap.Float64("threshold_dbfs", a.silenceDBFS),
	)
	return fmt.Errorf("%w: audio is silent", errNoUsableText)
}

func isBlankTranscript(transcript string) bool {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return true
	}
	return strings.EqualFold(trimmed, blankAudioToken)
}
