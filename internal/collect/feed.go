package collect

import (
	"log"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/mfeller/sectordigest/internal/news"
)

const maxPerFeed = 20

// FeedConfig represents a single feed configuration.
type FeedConfig struct {
	URL  string
	Name string
}

// FeedParser parses RSS/Atom feeds into the normalized article shape.
type FeedParser struct {
	feeds []FeedConfig
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser(feeds []FeedConfig) *FeedParser {
	return &FeedParser{feeds: feeds}
}

// Fetch parses all configured feeds and returns entries within daysBack
// days. A feed that fails to parse is logged and skipped.
func (fp *FeedParser) Fetch(daysBack int) []news.Article {
	cutoff := time.Now().AddDate(0, 0, -daysBack)
	var all []news.Article

	parser := gofeed.NewParser()
	for _, fc := range fp.feeds {
		feed, err := parser.ParseURL(fc.URL)
		if err != nil {
			log.Printf("Failed to parse feed %s: %v", fc.URL, err)
			continue
		}

		name := fc.Name
		if name == "" {
			name = feed.Title
		}

		count := 0
		for _, item := range feed.Items {
			if count >= maxPerFeed {
				break
			}
			article := feedItemToArticle(item, name)
			if article == nil {
				continue
			}
			if withinWindow(item, cutoff) {
				all = append(all, *article)
				count++
			}
		}
		log.Printf("Parsed %d entries from %s (within %d days)", count, name, daysBack)
	}

	return all
}

func feedItemToArticle(item *gofeed.Item, source string) *news.Article {
	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if itemURL == "" || title == "" {
		return nil
	}

	var publishedAt string
	if item.PublishedParsed != nil {
		publishedAt = item.PublishedParsed.Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		publishedAt = item.UpdatedParsed.Format(time.RFC3339)
	}

	description := htmlToText(item.Description)
	content := htmlToText(item.Content)
	if content == "" {
		content = description
	}

	return &news.Article{
		Title:       title,
		Description: description,
		Content:     content,
		Source:      source,
		URL:         itemURL,
		PublishedAt: publishedAt,
	}
}

func withinWindow(item *gofeed.Item, cutoff time.Time) bool {
	ts := item.PublishedParsed
	if ts == nil {
		ts = item.UpdatedParsed
	}
	if ts == nil {
		return true // benefit of the doubt
	}
	return !ts.Before(cutoff)
}
