package aggregate

import (
	"context"
	"log"

	"github.com/mfeller/sectordigest/internal/news"
)

// Classifier assigns a sector, topic and importance to a single article given
// the topics discovered so far. Implemented by classify.Classifier.
type Classifier interface {
	Classify(ctx context.Context, title, description string, candidates []news.TopicRef) news.Classification
}

// Result holds the counters of an aggregation pass.
type Result struct {
	Processed int
	Skipped   int
	Topics    int
}

// Aggregator groups stored articles into per-sector topics by classifying
// them one at a time against the taxonomy accumulated so far.
type Aggregator struct {
	classifier Classifier
}

// New creates a new aggregator.
func New(classifier Classifier) *Aggregator {
	return &Aggregator{classifier: classifier}
}

// Aggregate visits every article exactly once and folds it into the sector
// topic map. Classification calls are strictly sequential: each call sees the
// topics created by all articles processed before it, which is what lets the
// model reuse an existing topic name instead of minting a near-duplicate.
// Visit order follows the map's iteration order; the contract does not
// require determinism across runs, only single-visit.
//
// An article whose classified sector falls outside the fixed set is skipped.
// The classifier already normalizes unknown sectors to General, so this check
// only fires for implementations that bypass that normalization. One
// article's failure never aborts the pass; whatever accumulated is returned.
func (a *Aggregator) Aggregate(ctx context.Context, articles map[string]news.Article) (news.SectorTopicMap, *Result) {
	topicMap := news.NewSectorTopicMap()
	r := &Result{}

	for fingerprint, article := range articles {
		candidates := topicMap.Candidates()
		c := a.classifier.Classify(ctx, article.Title, article.Description, candidates)

		if !news.ValidSector(c.Sector) {
			log.Printf("Skipping %q: sector %q is outside the fixed set", article.Title, c.Sector)
			r.Skipped++
			continue
		}

		topic, ok := topicMap[c.Sector][c.TopicName]
		if !ok {
			topic = &news.TopicAccumulator{}
			topicMap[c.Sector][c.TopicName] = topic
			r.Topics++
		}
		topic.Add(fingerprint, c.Importance)
		r.Processed++

		log.Printf("Classified %q as %s / %s (importance %d)", article.Title, c.Sector, c.TopicName, c.Importance)
	}

	log.Printf("Aggregation complete: %d articles into %d topics, %d skipped", r.Processed, r.Topics, r.Skipped)
	return topicMap, r
}
