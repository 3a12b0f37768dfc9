package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/poiesic/scribe/core"
)

const feedBase = "https://www.youtube.com/feeds/videos.xml"

// ErrEmptyFeed is returned when a feed yields no usable video entries.
var ErrEmptyFeed = errors.New("feed contains no videos")

// PlaylistFeedURL returns the Atom feed of a YouTube playlist.
func PlaylistFeedURL(playlistID string) string {
	return feedBase + "?playlist_id=" + url.QueryEscape(playlistID)
}

// ChannelFeedURL returns the Atom feed of a YouTube channel.
func ChannelFeedURL(channelID string) string {
	return feedBase + "?channel_id=" + url.QueryEscape(channelID)
}

// Discoverer turns RSS/Atom feeds into manifest items.
type Discoverer struct {
	feedParser *gofeed.Parser
	logger     *slog.Logger
}

// NewDiscoverer creates a discoverer. A nil logger means slog.Default().
func NewDiscoverer(logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{
		feedParser: gofeed.NewParser(),
		logger:     logger.With("component", "discover"),
	}
}

// Discover fetches and parses feedURL.
func (d *Discoverer) Discover(ctx context.Context, feedURL string) ([]core.SourceItem, error) {
	feed, err := d.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feedURL, err)
	}
	return d.items(feed)
}

// DiscoverReader parses a feed document from r.
func (d *Discoverer) DiscoverReader(r io.Reader) ([]core.SourceItem, error) {
	feed, err := d.feedParser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return d.items(feed)
}

// DiscoverAll merges the items of several feeds, dropping repeated ids.
// A failing feed is logged and skipped; the joined errors are returned
// alongside whatever was found.
func (d *Discoverer) DiscoverAll(ctx context.Context, feedURLs []string) ([]core.SourceItem, error) {
	var (
		items []core.SourceItem
		errs  []error
	)
	seen := make(map[string]bool)
	for _, feedURL := range feedURLs {
		found, err := d.Discover(ctx, feedURL)
		if err != nil {
			d.logger.Warn("feed discovery failed", "feed", feedURL, "err", err)
			errs = append(errs, err)
			continue
		}
		for _, item := range found {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			items = append(items, item)
		}
		d.logger.Info("feed discovered", "feed", feedURL, "videos", len(found))
	}
	return items, errors.Join(errs...)
}

func (d *Discoverer) items(feed *gofeed.Feed) ([]core.SourceItem, error) {
	if feed == nil || len(feed.Items) == 0 {
		return nil, ErrEmptyFeed
	}
	items := make([]core.SourceItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		id := VideoID(entry)
		if id == "" || core.ValidateSourceID(id) != nil {
			d.logger.Debug("skipping feed entry without video id", "link", entry.Link)
			continue
		}
		items = append(items, core.SourceItem{ID: id, Title: strings.TrimSpace(entry.Title)})
	}
	if len(items) == 0 {
		return nil, ErrEmptyFeed
	}
	return items, nil
}

// VideoID extracts the YouTube id of a feed entry from its yt:videoId
// extension, falling back to the v parameter or last path segment of its link.
func VideoID(entry *gofeed.Item) string {
	if entry == nil {
		return ""
	}
	if values := entry.Extensions["yt"]["videoId"]; len(values) > 0 && values[0].Value != "" {
		return strings.TrimSpace(values[0].Value)
	}
	if strings.HasPrefix(entry.GUID, "yt:video:") {
		return strings.TrimPrefix(entry.GUID, "yt:video:")
	}
	link, err := url.Parse(entry.Link)
	if err != nil || entry.Link == "" {
		return ""
	}
	if v := link.Query().Get("v"); v != "" {
		return v
	}
	if link.Host == "youtu.be" || strings.HasPrefix(link.Path, "/shorts/") {
		segments := strings.Split(strings.Trim(link.Path, "/"), "/")
		return segments[len(segments)-1]
	}
	return ""
}
