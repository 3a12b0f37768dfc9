package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/scribe"
	"github.com/poiesic/scribe/batch"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/ingestion"
	"github.com/poiesic/scribe/manifest"
	"github.com/poiesic/scribe/search"
	"github.com/poiesic/scribe/transcript"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:   "ingest",
		Usage:  "Download, normalize and store every item of a manifest",
		Action: ingestAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Usage:    "CSV manifest with video_id,title columns",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Number of items processed at once (overrides batch.concurrency)",
			},
			&cli.IntFlag{
				Name:  "max-attempts",
				Usage: "Tries per item (overrides batch.max_attempts)",
			},
			&cli.BoolFlag{
				Name:  "transcribe",
				Usage: "Resolve transcripts while the scratch assets are still local",
			},
		},
	}
}

func ingestAction(c *cli.Context) error {
	items, err := manifest.ReadFile(c.String("manifest"))
	if err != nil {
		return err
	}
	byID := make(map[string]core.SourceItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	cfg := loadedConfig(c)
	if c.IsSet("concurrency") {
		cfg.Batch.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("max-attempts") {
		cfg.Batch.MaxAttempts = c.Int("max-attempts")
	}

	s, err := openScribe(c)
	if err != nil {
		return err
	}
	defer s.Close()

	pipeline, err := s.NewIngestionPipeline(c.Bool("transcribe"))
	if err != nil {
		return err
	}
	runner, err := s.NewRunner(batch.TerminalWriter(os.Stderr))
	if err != nil {
		return err
	}

	run, err := runner.Run(c.Context, "ingest", manifest.IDs(items), func(ctx context.Context, runID, id string) error {
		_, err := pipeline.Ingest(ctx, byID[id], &ingestion.IngestOptions{RunID: runID})
		return err
	})
	printRun(c.App.Writer, run)
	return err
}

func transcribeCommand() *cli.Command {
	return &cli.Command{
		Name:   "transcribe",
		Usage:  "Resolve transcripts for ingested items",
		Action: transcribeAction,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Source id to transcribe (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Transcribe every record in status audio_ingested",
			},
		},
	}
}

func transcribeAction(c *cli.Context) error {
	s, err := openScribe(c)
	if err != nil {
		return err
	}
	defer s.Close()

	ids, err := selectIDs(c, s, core.StatusAudioIngested)
	if err != nil {
		return err
	}
	orchestrator, err := s.NewOrchestrator()
	if err != nil {
		return err
	}
	runner, err := s.NewRunner(batch.TerminalWriter(os.Stderr))
	if err != nil {
		return err
	}

	run, err := runner.Run(c.Context, "transcribe", ids, func(ctx context.Context, _, id string) error {
		_, err := orchestrator.Attach(ctx, id)
		if transcript.IsUnresolved(err) {
			return fmt.Errorf("%w: %w", batch.ErrSkipped, err)
		}
		return err
	})
	printRun(c.App.Writer, run)
	return err
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:   "index",
		Usage:  "Chunk and embed transcripts for search",
		Action: indexAction,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Source id to index (repeatable, default every transcribed record)",
			},
		},
	}
}

func indexAction(c *cli.Context) error {
	s, err := openScribe(c)
	if err != nil {
		return err
	}
	defer s.Close()

	ids := c.StringSlice("id")
	if len(ids) == 0 {
		if ids, err = listIDs(c, s, core.StatusTranscribed); err != nil {
			return err
		}
	}
	indexer, err := s.NewIndexer()
	if err != nil {
		return err
	}
	runner, err := s.NewRunner(batch.TerminalWriter(os.Stderr))
	if err != nil {
		return err
	}

	run, err := runner.Run(c.Context, "index", ids, func(ctx context.Context, _, id string) error {
		_, err := indexer.Index(ctx, id)
		if errors.Is(err, search.ErrNotTranscribed) {
			return fmt.Errorf("%w: %w", batch.ErrSkipped, err)
		}
		return err
	})
	printRun(c.App.Writer, run)
	return err
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find transcript chunks similar to a query",
		ArgsUsage: "QUERY",
		Action:    searchAction,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.Float64Flag{
				Name:  "min-similarity",
				Usage: "Minimum cosine similarity of a hit",
				Value: float64(search.DefaultMinSimilarity),
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "Print each search stage to stderr",
			},
		},
	}
}

func searchAction(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("search query is required")
	}
	if c.Int("limit") < 1 {
		return errors.New("limit must be greater than 0")
	}

	s, err := openScribe(c)
	if err != nil {
		return err
	}
	defer s.Close()

	searcher, err := s.NewSearcher(search.WithMinSimilarity(float32(c.Float64("min-similarity"))))
	if err != nil {
		return err
	}
	var monitor search.SearchMonitor
	if c.Bool("explain") {
		monitor = &explainMonitor{w: os.Stderr}
	}
	results, err := searcher.FindSimilarWithMonitor(c.Context, query, c.Int("limit"), monitor)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No matches")
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%.3f", result.Score),
			result.Chunk.SourceID,
			fmt.Sprintf("%d", result.Chunk.Seq),
			truncate(result.Chunk.Text, 96),
		})
	}
	fmt.Fprintln(c.App.Writer, renderTable(
		[]string{"Score", "Source", "Chunk", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
	))
	return nil
}

// selectIDs returns the --id values, or with --all every record in status.
func selectIDs(c *cli.Context, s *scribe.Scribe, status core.Status) ([]string, error) {
	ids := c.StringSlice("id")
	switch {
	case len(ids) > 0 && c.Bool("all"):
		return nil, errors.New("--id and --all are mutually exclusive")
	case len(ids) > 0:
		return ids, nil
	case c.Bool("all"):
		return listIDs(c, s, status)
	default:
		return nil, errors.New("one of --id or --all is required")
	}
}

func listIDs(c *cli.Context, s *scribe.Scribe, status core.Status) ([]string, error) {
	records, err := s.Records().List(c.Context, status)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.SourceID
	}
	return ids, nil
}

func printRun(w io.Writer, run *core.Run) {
	if run == nil {
		return
	}
	fmt.Fprintf(w, "%s run %s: %d total, %d succeeded, %d failed, %d skipped\n",
		run.Command, run.ID, run.Total, run.Succeeded, run.Failed, run.Skipped)
}
