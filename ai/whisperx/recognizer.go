// Package whisperx implements ai.SpeechRecognizer by running WhisperX through uvx.
package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/poiesic/scribe/ai"
)

const (
	// UVXCommand launches WhisperX in an isolated Python environment.
	UVXCommand = "uvx"

	// OutputFormat is the WhisperX output written next to the audio.
	OutputFormat = "json"

	// OutputDirName is the subdirectory of the audio's directory that receives output.
	OutputDirName = "whisperx"

	cpuComputeType = "int8"
)

// Recognizer runs WhisperX on local WAV files.
type Recognizer struct {
	cfg           ai.Config
	commandRunner func(ctx context.Context, name string, args ...string) error
	logger        *slog.Logger
}

var _ ai.SpeechRecognizer = (*Recognizer)(nil)

// NewRecognizer creates a recognizer from the speech settings in cfg.
func NewRecognizer(cfg *ai.Config) *Recognizer {
	if cfg == nil {
		cfg = ai.DefaultConfig()
	}
	c := *cfg
	c.Normalize()
	defaults := ai.DefaultConfig()
	if c.SpeechModel == "" {
		c.SpeechModel = defaults.SpeechModel
	}
	if c.SpeechDevice == "" {
		c.SpeechDevice = defaults.SpeechDevice
	}
	return &Recognizer{
		cfg:    c,
		logger: slog.Default().With("component", "whisperx", "model", c.SpeechModel),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Recognizer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	r.commandRunner = runner
}

// Transcribe runs WhisperX over audioPath and joins the recognized segments.
// WhisperX writes into a directory next to the audio, removed on return.
func (r *Recognizer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := ai.CheckAudio(audioPath); err != nil {
		return "", err
	}

	outputDir := filepath.Join(filepath.Dir(audioPath), OutputDirName)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("transcribe: ensure output dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(outputDir); err != nil {
			r.logger.Warn("failed to remove recognizer output", "dir", outputDir, "err", err)
		}
	}()

	r.logger.Info("running speech recognition", "audio", audioPath)
	if err := r.run(ctx, UVXCommand, r.buildArgs(audioPath, outputDir)...); err != nil {
		return "", fmt.Errorf("%w: %w", ai.ErrRecognitionFailed, err)
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	segments, err := LoadSegments(filepath.Join(outputDir, base+"."+OutputFormat))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ai.ErrRecognitionFailed, err)
	}
	return JoinSegments(segments), nil
}

func (r *Recognizer) run(ctx context.Context, name string, args ...string) error {
	if r.commandRunner != nil {
		return r.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (r *Recognizer) buildArgs(source, outputDir string) []string {
	args := []string{
		"whisperx",
		source,
		"--model", r.cfg.SpeechModel,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--device", r.cfg.SpeechDevice,
	}
	if r.cfg.SpeechDevice != "cuda" {
		args = append(args, "--compute_type", cpuComputeType)
	}
	if r.cfg.SpeechLanguage != "" {
		args = append(args, "--language", r.cfg.SpeechLanguage)
	}
	return args
}

// Segment is one recognized span from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type payload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments reads the segments of a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return p.Segments, nil
}

// JoinSegments concatenates non-empty segment texts with single spaces.
func JoinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
