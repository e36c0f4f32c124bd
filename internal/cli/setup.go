package cli

import (
	"fmt"

	"github.com/fmueller/voxlate/internal/download"
	"github.com/fmueller/voxlate/internal/whisper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSetupCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download and verify the whisper model and check the engine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			modelDir, err := app.modelStorageDir()
			if err != nil {
				return err
			}

			resolved, err := whisper.ResolveModel(app.model, modelDir)
			if err != nil {
				return err
			}
			if resolved.IsCustomPath {
				return fmt.Errorf("setup expects a named model; got custom path %s", resolved.Path)
			}

			if !resolved.NeedsDownload {
				if err := download.VerifyFileChecksum(resolved.Path, resolved.SHA256); err != nil {
					app.log().Warn("model checksum verification failed; downloading fresh copy", zap.String("model", resolved.Name), zap.Error(err))
					resolved.NeedsDownload = true
				}
			}

			if resolved.NeedsDownload {
				app.log().Info("downloading model", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
				if err := download.Fetch(cmd.Context(), download.Options{
					URL:            resolved.URL,
					Destination:    resolved.Path,
					ExpectedSHA256: resolved.SHA256,
					NoProgress:     app.noProgress,
					Logger:         app.log(),
				}); err != nil {
					return fmt.Errorf("download model %s: %w", resolved.Name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Model %s installed at %s\n", resolved.Name, resolved.Path)
			} else {
				app.log().Info("model already present", zap.String("model", resolved.Name), zap.String("path", resolved.Path))
				fmt.Fprintf(cmd.OutOrStdout(), "Model %s already present at %s\n", resolved.Name, resolved.Path)
			}

			reportEngineStatus(cmd, app)
			return nil
		},
	}

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindModelFlags(cmd, app)

	return cmd
}

// reportEngineStatus is informative only; a missing engine is a deployment
// problem the user fixes outside this tool.
func reportEngineStatus(cmd *cobra.Command, app *appState) {
	engine, err := whisper.NewBinaryEngine(app.log())
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Whisper engine not found: %v\n", err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Whisper engine found at %s\n", engine.Executable)
}
