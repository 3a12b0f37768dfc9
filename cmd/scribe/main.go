// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/scribe"
	"github.com/poiesic/scribe/config"
)

const configKey = "config"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scribe",
		Usage: "Ingest, transcribe and search video transcripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (default ./scribe.toml, then ~/.config/scribe/config.toml)",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			ingestCommand(),
			transcribeCommand(),
			indexCommand(),
			searchCommand(),
			statusCommand(),
			discoverCommand(),
			exportCommand(),
			configCommand(),
		},
	}
}

// setup loads the configuration and installs the logger. An explicit
// --log-level wins over the configured level.
func setup(c *cli.Context) error {
	cfg, _, _, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg

	level := cfg.Logging.Level
	if c.IsSet("log-level") || level == "" {
		level = c.String("log-level")
	}
	return setupLogger(level)
}

func setupLogger(levelStr string) error {
	levelStr = strings.ToLower(levelStr)

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func loadedConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	defaults := config.Default()
	return &defaults
}

// openScribe opens the configured stores. Caller must Close the result.
func openScribe(c *cli.Context) (*scribe.Scribe, error) {
	s, err := scribe.Open(c.Context, loadedConfig(c))
	if err != nil {
		return nil, fmt.Errorf("failed to open stores: %w", err)
	}
	return s, nil
}
