package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/scribe/config"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/manifest"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "List ingest records",
		Action: statusAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show records in this status (audio_ingested, transcribed, failed)",
			},
			&cli.IntFlag{
				Name:  "runs",
				Usage: "Also show the N most recent batch runs",
			},
		},
	}
}

func statusAction(c *cli.Context) error {
	status := core.Status(c.String("status"))
	if status != "" {
		if err := core.ValidateStatus(status); err != nil {
			return err
		}
	}

	s, err := openScribe(c)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.Records().List(c.Context, status)
	if err != nil {
		return err
	}

	counts := map[core.Status]int{}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		counts[r.Status]++
		rows = append(rows, []string{
			r.SourceID,
			truncate(r.Title, 48),
			string(r.Status),
			string(r.TranscriptOrigin),
			formatDuration(r.DurationSec),
			formatTime(r.UpdatedAt),
			truncate(r.LastError, 48),
		})
	}

	w := c.App.Writer
	if len(rows) > 0 {
		fmt.Fprintln(w, renderTable(
			[]string{"Source", "Title", "Status", "Origin", "Duration", "Updated", "Last error"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}
	fmt.Fprintf(w, "%d records (%d audio_ingested, %d transcribed, %d failed)\n",
		len(records), counts[core.StatusAudioIngested], counts[core.StatusTranscribed], counts[core.StatusFailed])

	if n := c.Int("runs"); n > 0 {
		runs, err := s.Runs().RecentRuns(c.Context, n)
		if err != nil {
			return err
		}
		runRows := make([][]string, 0, len(runs))
		for _, run := range runs {
			runRows = append(runRows, []string{
				run.ID,
				run.Command,
				formatTime(run.StartedAt),
				strconv.Itoa(run.Total),
				strconv.Itoa(run.Succeeded),
				strconv.Itoa(run.Failed),
				strconv.Itoa(run.Skipped),
			})
		}
		fmt.Fprintln(w, renderTable(
			[]string{"Run", "Command", "Started", "Total", "Succeeded", "Failed", "Skipped"},
			runRows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
		))
	}
	return nil
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:   "discover",
		Usage:  "Build a manifest from YouTube playlist or channel feeds",
		Action: discoverAction,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "feed",
				Usage: "RSS or Atom feed URL (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "playlist",
				Usage: "YouTube playlist id (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "channel",
				Usage: "YouTube channel id (repeatable)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Manifest to write (default stdout)",
			},
		},
	}
}

func discoverAction(c *cli.Context) error {
	urls := append([]string(nil), c.StringSlice("feed")...)
	for _, id := range c.StringSlice("playlist") {
		urls = append(urls, manifest.PlaylistFeedURL(id))
	}
	for _, id := range c.StringSlice("channel") {
		urls = append(urls, manifest.ChannelFeedURL(id))
	}
	if len(urls) == 0 {
		return errors.New("at least one of --feed, --playlist or --channel is required")
	}

	items, err := manifest.NewDiscoverer(nil).DiscoverAll(c.Context, urls)
	if len(items) == 0 {
		if err == nil {
			err = manifest.ErrEmptyFeed
		}
		return err
	}

	if out := c.String("out"); out != "" {
		if werr := manifest.WriteFile(out, items); werr != nil {
			return werr
		}
		fmt.Fprintf(os.Stderr, "Wrote %d items to %s\n", len(items), out)
	} else if werr := manifest.Write(c.App.Writer, items); werr != nil {
		return werr
	}
	// Partial feed failures still produce a manifest but fail the command.
	return err
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:   "export",
		Usage:  "Write every record with its transcript as CSV",
		Action: exportAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "CSV file to write (default stdout)",
			},
		},
	}
}

func exportAction(c *cli.Context) error {
	s, err := openScribe(c)
	if err != nil {
		return err
	}
	defer s.Close()

	var w io.Writer = c.App.Writer
	out := c.String("out")
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	n, err := manifest.Export(c.Context, w, s.Records(), s.Blobs(), s.Config().Pipeline.Namespace)
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", n, out)
	}
	return nil
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect or create the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a sample configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination (default ~/.config/scribe/config.toml)",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace an existing file",
					},
				},
				Action: configInitAction,
			},
			{
				Name:  "show",
				Usage: "Print the effective configuration",
				Action: func(c *cli.Context) error {
					data, err := loadedConfig(c).Encode()
					if err != nil {
						return err
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
		},
	}
}

func configInitAction(c *cli.Context) error {
	path := c.String("path")
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("overwrite") {
		return fmt.Errorf("%s already exists (use --overwrite to replace it)", path)
	}
	if err := config.WriteSample(path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote sample configuration to %s\n", path)
	return nil
}

func formatDuration(sec float64) string {
	if sec <= 0 {
		return ""
	}
	return (time.Duration(sec) * time.Second).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}
