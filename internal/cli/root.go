// Package cli wires the transcription and translation adapters into the
// voxlate command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fmueller/voxlate/internal/logging"
	"github.com/fmueller/voxlate/internal/platform"
	"github.com/fmueller/voxlate/internal/translate"
	"github.com/fmueller/voxlate/internal/version"
	"github.com/fmueller/voxlate/internal/whisper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	// pipeline flags
	file               string
	transcriptionModel string
	preRecorded        bool
	inputLanguage      string
	outputLanguage     string

	// ambient flags
	verbose      bool
	jsonLogs     bool
	noProgress   bool
	model        string
	modelDir     string
	autoDownload bool
	ollamaHost   string
	llmModel     string
	silenceGate  bool
	silenceDBFS  float64

	logger *zap.Logger
	out    io.Writer

	transcribeFn func(ctx context.Context, audioPath string) (string, error)
	translateFn  func(ctx context.Context, req translate.Request) (string, error)
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		model:        whisper.DefaultModel,
		autoDownload: true,
		ollamaHost:   translate.DefaultHost,
		llmModel:     translate.DefaultModel,
		silenceGate:  true,
		silenceDBFS:  -65,
	}
	app.transcribeFn = app.transcribeAudio
	app.translateFn = app.translateText

	return newRootCmd(app)
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "voxlate",
		Short:         "Transcribe a recorded audio file with whisper.cpp and translate it with a local LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			app.inputLanguage = sanitizeLanguage(app.inputLanguage)
			app.outputLanguage = sanitizeLanguage(app.outputLanguage)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if app.out == nil {
				app.out = cmd.OutOrStdout()
			}
			return app.runTranslate(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindPipelineFlags(cmd, app)
	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindModelFlags(cmd, app)
	bindServiceFlags(cmd, app)
	bindSilenceFlags(cmd, app)

	for _, name := range []string{"file", "transcription_model", "input_language", "output_language"} {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindPipelineFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.file, "file", "", "Path to the audio file to transcribe")
	cmd.Flags().StringVar(&app.transcriptionModel, "transcription_model", "", `Transcription engine (only "whisper_cpp" is supported)`)
	cmd.Flags().BoolVar(&app.preRecorded, "pre_recorded", false, "Operate on a pre-recorded audio file (the only supported mode)")
	cmd.Flags().StringVarP(&app.inputLanguage, "input_language", "i", "", `Language spoken in the audio, e.g. "english"`)
	cmd.Flags().StringVarP(&app.outputLanguage, "output_language", "o", "", `Language to translate into, e.g. "russian"`)
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.Flags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindModelFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.model, "model", app.model, "Whisper model name or model file path")
	cmd.Flags().StringVar(&app.modelDir, "model-dir", app.modelDir, "Directory where whisper models are stored")
	cmd.Flags().BoolVar(&app.autoDownload, "auto-download", app.autoDownload, "Automatically download missing whisper models")
}

func bindServiceFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().StringVar(&app.ollamaHost, "ollama-host", app.ollamaHost, "Base URL of the local Ollama service")
	cmd.Flags().StringVar(&app.llmModel, "llm-model", app.llmModel, "Ollama model used for translation")
}

func bindSilenceFlags(cmd *cobra.Command, app *appState) {
	cmd.Flags().BoolVar(&app.silenceGate, "silence-gate", app.silenceGate, "Detect near-silent WAV audio and fail before transcription")
	cmd.Flags().Float64Var(&app.silenceDBFS, "silence-threshold-dbfs", app.silenceDBFS, "Silence gate threshold in dBFS")
}

func (a *appState) modelStorageDir() (string, error) {
	dir, err := platform.ResolveModelDir(a.modelDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory %s: %w", dir, err)
	}
	return dir, nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

func sanitizeLanguage(input string) string {
	return strings.TrimSpace(strings.ToLower(input))
}
