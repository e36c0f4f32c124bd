package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PathEnvVar points at a whisper-cli executable outside the install layout.
// Where the engine lives is a deployment concern, not pipeline configuration.
const PathEnvVar = "VOXLATE_WHISPER_PATH"

// BinaryEngine runs a whisper-cli executable as a blocking subprocess. It is
// the adapter behind EngineWhisperCPP.
type BinaryEngine struct {
	Executable string
	Logger     *zap.Logger
}

func NewBinaryEngine(logger *zap.Logger) (*BinaryEngine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if override := strings.TrimSpace(os.Getenv(PathEnvVar)); override != "" {
		if err := ensureExecutable(override); err != nil {
			return nil, fmt.Errorf("%s is not executable: %w", PathEnvVar, err)
		}
		return &BinaryEngine{Executable: override, Logger: logger}, nil
	}

	self, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve voxlate executable path: %w", err)
	}

	whisperExe, err := ResolveEnginePath(self)
	if err != nil {
		return nil, err
	}

	return &BinaryEngine{Executable: whisperExe, Logger: logger}, nil
}

// ResolveEnginePath locates whisper-cli relative to the voxlate binary,
// falling back to PATH.
func ResolveEnginePath(selfExecutable string) (string, error) {
	binDir := filepath.Dir(selfExecutable)
	engineName := engineBinaryName()

	candidates := []string{
		filepath.Join(binDir, "..", "libexec", "whisper", engineName),
		filepath.Join(binDir, engineName),
	}
	for _, candidate := range candidates {
		if err := ensureExecutable(candidate); err == nil {
			return candidate, nil
		}
	}

	if fromPath, err := exec.LookPath(engineName); err == nil {
		return fromPath, nil
	}

	return "", fmt.Errorf("whisper engine not found near %s or on PATH; install %s or set %s", selfExecutable, engineName, PathEnvVar)
}

func (b *BinaryEngine) Transcribe(ctx context.Context, req TranscriptionRequest) (string, error) {
	if strings.TrimSpace(req.AudioPath) == "" {
		return "", errors.New("audio path is required")
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return "", errors.New("model path is required")
	}

	if err := ensureExecutable(b.Executable); err != nil {
		return "", fmt.Errorf("whisper engine missing or not executable: %w", err)
	}

	outBase := filepath.Join(os.TempDir(), fmt.Sprintf("voxlate-%d", time.Now().UnixNano()))
	txtOut := outBase + ".txt"

	args := []string{"-m", req.ModelPath, "-f", req.AudioPath, "-nt", "-otxt", "-of", outBase}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}

	cmd := exec.CommandContext(ctx, b.Executable, args...)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	b.logger().Debug("running whisper engine", zap.String("engine", b.Executable), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		errText := strings.TrimSpace(stderr.String())
		if errText == "" {
			return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
		return "", fmt.Errorf("%w: %v: %s", ErrTranscriptionFailed, err, errText)
	}

	defer os.Remove(txtOut)
	content, err := os.ReadFile(txtOut)
	if err != nil {
		return "", fmt.Errorf("%w: read engine output: %v", ErrTranscriptionFailed, err)
	}

	return strings.TrimSpace(string(content)), nil
}

func (b *BinaryEngine) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func engineBinaryName() string {
	if runtime.GOOS == "windows" {
		return "whisper-cli.exe"
	}
	return "whisper-cli"
}

func ensureExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
