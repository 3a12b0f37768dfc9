package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/scribe/captions"
	"github.com/poiesic/scribe/core"
)

const (
	// YTDLPCommand is the default downloader binary.
	YTDLPCommand = "yt-dlp"

	// DefaultCaptionLangs is the yt-dlp subtitle language pattern.
	DefaultCaptionLangs = "en.*"

	// AudioFormat prefers m4a and falls back to whatever best audio exists.
	AudioFormat = "bestaudio[ext=m4a]/bestaudio"

	// SourceStem is the file stem yt-dlp writes downloads under.
	SourceStem = "source"

	// InfoName is the info document yt-dlp writes next to the audio.
	InfoName = SourceStem + ".info.json"

	// DerivedAudioName is the canonical WAV derived in the scratch directory.
	DerivedAudioName = "audio.wav"

	// NormalizedCaptionName is the normalized caption copy in the scratch directory.
	NormalizedCaptionName = "captions.norm.en.vtt"
)

// audioExtensions are tried in order before falling back to any other file.
var audioExtensions = []string{".m4a", ".webm", ".mp3", ".opus", ".mkv"}

// YTDLPFetcher downloads audio, captions and metadata with yt-dlp.
type YTDLPFetcher struct {
	binary       string
	captionLangs string
	runner       CommandRunner
	logger       *slog.Logger
}

// FetcherOption configures a YTDLPFetcher.
type FetcherOption func(*YTDLPFetcher)

// WithBinary overrides the yt-dlp executable.
func WithBinary(path string) FetcherOption {
	return func(f *YTDLPFetcher) {
		if path != "" {
			f.binary = path
		}
	}
}

// WithCaptionLangs sets the subtitle language pattern passed to --sub-langs.
func WithCaptionLangs(langs string) FetcherOption {
	return func(f *YTDLPFetcher) {
		if langs != "" {
			f.captionLangs = langs
		}
	}
}

// WithFetchRunner sets a custom command runner (for testing).
func WithFetchRunner(runner CommandRunner) FetcherOption {
	return func(f *YTDLPFetcher) {
		if runner != nil {
			f.runner = runner
		}
	}
}

// WithFetchLogger sets a custom logger.
func WithFetchLogger(logger *slog.Logger) FetcherOption {
	return func(f *YTDLPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewYTDLPFetcher creates a fetcher with the given options.
func NewYTDLPFetcher(opts ...FetcherOption) *YTDLPFetcher {
	f := &YTDLPFetcher{
		binary:       YTDLPCommand,
		captionLangs: DefaultCaptionLangs,
		runner:       ExecRunner,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With("component", "ytdlp")
	return f
}

// Fetch downloads item into dir and scans the result.
func (f *YTDLPFetcher) Fetch(ctx context.Context, item core.SourceItem, dir string) (*core.FetchedAssets, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	url := item.WatchURL()
	f.logger.Info("fetching source", "source_id", item.ID, "url", url)
	if _, err := f.runner(ctx, f.binary, f.buildArgs(url, dir)...); err != nil {
		return nil, fmt.Errorf("yt-dlp %s: %w", item.ID, err)
	}
	return ScanDir(dir)
}

func (f *YTDLPFetcher) buildArgs(url, dir string) []string {
	return []string{
		"-f", AudioFormat,
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", f.captionLangs,
		"--write-info-json",
		"--no-part",
		"-o", filepath.Join(dir, SourceStem+".%(ext)s"),
		url,
	}
}

// ScanDir inspects a scratch directory after a download. It fails with
// ErrNoAudio when no audio file can be located.
func ScanDir(dir string) (*core.FetchedAssets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scratch dir: %w", err)
	}

	assets := &core.FetchedAssets{Dir: dir}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		files = append(files, name)
		if captions.IsCaptionFile(name) && name != NormalizedCaptionName {
			assets.CaptionCandidates = append(assets.CaptionCandidates, name)
		}
	}
	slices.Sort(files)
	slices.Sort(assets.CaptionCandidates)

	audio := locateAudio(files)
	if audio == "" {
		return nil, fmt.Errorf("%w in %s", ErrNoAudio, dir)
	}
	assets.AudioPath = filepath.Join(dir, audio)

	infoPath := filepath.Join(dir, InfoName)
	info, err := ParseInfo(infoPath)
	switch {
	case err == nil:
		assets.InfoPath = infoPath
		assets.Info = info
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}
	return assets, nil
}

// locateAudio picks source.<ext> by preference, else the first sorted file
// that is not metadata, captions, a lock or the derived WAV.
func locateAudio(sorted []string) string {
	for _, ext := range audioExtensions {
		if slices.Contains(sorted, SourceStem+ext) {
			return SourceStem + ext
		}
	}
	for _, name := range sorted {
		switch strings.ToLower(filepath.Ext(name)) {
		case ".json", ".vtt", ".lock":
			continue
		}
		if name == DerivedAudioName {
			continue
		}
		return name
	}
	return ""
}

type infoDocument struct {
	ChannelID   string            `json:"channel_id"`
	Channel     string            `json:"channel"`
	Duration    float64           `json:"duration"`
	HTTPHeaders map[string]string `json:"http_headers"`
}

// ParseInfo reads the fields the pipeline keeps from a yt-dlp info document.
func ParseInfo(path string) (core.SourceInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.SourceInfo{}, fmt.Errorf("read info json: %w", err)
	}
	var doc infoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.SourceInfo{}, fmt.Errorf("parse info json: %w", err)
	}
	return core.SourceInfo{
		ChannelID:    doc.ChannelID,
		ChannelTitle: doc.Channel,
		DurationSec:  doc.Duration,
		ETag:         doc.HTTPHeaders["ETag"],
	}, nil
}
