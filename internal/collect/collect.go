package collect

import (
	"log"

	"github.com/mfeller/sectordigest/internal/config"
	"github.com/mfeller/sectordigest/internal/news"
)

// Source produces normalized raw articles. All sources degrade to an empty
// slice on failure; ingestion is best-effort per source.
type Source interface {
	Fetch(daysBack int) []news.Article
}

// Result holds the counters of a collection run.
type Result struct {
	TotalFound int
	Sources    map[string]int
}

// Collector fans out across all configured content sources and merges their
// output into one flat article batch.
type Collector struct {
	sources  []Source
	daysBack int
}

// NewCollector wires up the sources enabled in the config.
func NewCollector(cfg *config.Config) *Collector {
	c := &Collector{daysBack: cfg.Sources.DaysBack}
	if c.daysBack <= 0 {
		c.daysBack = 1
	}

	if cfg.Sources.Guardian.Enabled {
		guardian := NewGuardianClient(cfg.Sources.Guardian.APIKeyEnv, cfg.Sources.Guardian.Query)
		if guardian.IsConfigured() {
			c.sources = append(c.sources, guardian)
		} else {
			log.Println("Guardian source enabled but no API key set, skipping")
		}
	}

	if len(cfg.Sources.Feeds) > 0 {
		feeds := make([]FeedConfig, len(cfg.Sources.Feeds))
		for i, f := range cfg.Sources.Feeds {
			feeds[i] = FeedConfig{URL: f.URL, Name: f.Name}
		}
		c.sources = append(c.sources, NewFeedParser(feeds))
	}

	for _, sc := range cfg.Sources.Scrapers {
		c.sources = append(c.sources, NewSiteScraper(sc.Name, sc.ArchiveURL))
	}

	return c
}

// Collect fetches from every source and returns the combined batch.
func (c *Collector) Collect() ([]news.Article, *Result) {
	r := &Result{Sources: make(map[string]int)}
	var all []news.Article

	for _, source := range c.sources {
		articles := source.Fetch(c.daysBack)
		all = append(all, articles...)
		r.TotalFound += len(articles)
		for _, a := range articles {
			r.Sources[a.Source]++
		}
	}

	log.Printf("Collection complete: %d articles from %d sources", r.TotalFound, len(c.sources))
	return all, r
}
