package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// FFmpegCommand is the default ffmpeg binary.
	FFmpegCommand = "ffmpeg"

	// FFprobeCommand is the default ffprobe binary.
	FFprobeCommand = "ffprobe"

	// SampleRate of the canonical WAV.
	SampleRate = 16000
)

// FFmpegTranscoder probes and converts audio with ffmpeg and ffprobe.
type FFmpegTranscoder struct {
	ffmpeg  string
	ffprobe string
	runner  CommandRunner
}

// NewFFmpegTranscoder creates a transcoder. Empty binary names use the defaults.
func NewFFmpegTranscoder(ffmpegBinary, ffprobeBinary string) *FFmpegTranscoder {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	if ffprobeBinary == "" {
		ffprobeBinary = FFprobeCommand
	}
	return &FFmpegTranscoder{
		ffmpeg:  ffmpegBinary,
		ffprobe: ffprobeBinary,
		runner:  ExecRunner,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *FFmpegTranscoder) WithCommandRunner(runner CommandRunner) {
	t.runner = runner
}

// Probe returns ffprobe's JSON description of src.
func (t *FFmpegTranscoder) Probe(ctx context.Context, src string) ([]byte, error) {
	out, err := t.runner(ctx, t.ffprobe, buildProbeArgs(src)...)
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	if !json.Valid(out) {
		return nil, fmt.Errorf("ffprobe: invalid json output for %s", src)
	}
	return out, nil
}

// ToWAV writes the canonical WAV for src to dest. Output is bit-exact so
// repeated runs over the same source hash identically.
func (t *FFmpegTranscoder) ToWAV(ctx context.Context, src, dest string) error {
	if _, err := t.runner(ctx, t.ffmpeg, buildWAVArgs(src, dest)...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

func buildProbeArgs(src string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		src,
	}
}

func buildWAVArgs(src, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", "pcm_s16le",
		"-map_metadata", "-1",
		"-fflags", "+bitexact",
		"-flags:a", "+bitexact",
		dest,
	}
}

type probeDocument struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ProbeDuration extracts the container duration in seconds from ffprobe JSON.
// It returns 0 when the document carries no usable duration.
func ProbeDuration(probe []byte) float64 {
	var doc probeDocument
	if err := json.Unmarshal(probe, &doc); err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(doc.Format.Duration, 64)
	if err != nil {
		return 0
	}
	return d
}
