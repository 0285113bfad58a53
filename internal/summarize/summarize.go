package summarize

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/mfeller/sectordigest/internal/llm"
	"github.com/mfeller/sectordigest/internal/news"
)

const synthesisPrompt = `Synthesize the following news content into a comprehensive summary that preserves information but avoids redundancy and is concise. Identify the core topic, provide key details, and integrate information from all sources. Focus on being informative without unnecessary fluff or quotes, unless a quote is integral to the topic. The summary should give a full picture of the specific topic.

Content:
%s`

// Placeholder stands in for a synthesized summary when the model call fails.
// A failed synthesis never drops the topic.
const Placeholder = "Summary could not be generated due to an error."

const landingTopicCount = 3

// Result holds the counters of a summarization pass.
type Result struct {
	Summarized   int
	Dropped      int
	Placeholders int
}

// Summarizer collapses each topic's member articles into one synthesized
// summary and assembles the final per-sector output.
type Summarizer struct {
	provider  llm.Provider
	maxTokens int
}

// New creates a summarizer. maxTokens bounds each synthesized summary.
func New(provider llm.Provider, maxTokens int) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Summarizer{provider: provider, maxTokens: maxTokens}
}

// Summarize produces the final sector content from the aggregated topic map
// and the article store. Every fixed sector appears in the output, empty ones
// with no topics and an empty landing summary. Topics whose member articles
// are all missing from the store are dropped with a warning.
func (s *Summarizer) Summarize(ctx context.Context, topicMap news.SectorTopicMap, articles map[string]news.Article) (map[string]news.SectorSummary, *Result) {
	out := make(map[string]news.SectorSummary, len(news.Sectors))
	r := &Result{}

	for _, sector := range news.Sectors {
		topics := s.summarizeSector(ctx, sector, topicMap[sector], articles, r)

		// Lowest average importance first; the landing summary is built from
		// the head of this order.
		sort.Slice(topics, func(i, j int) bool { return topics[i].Importance < topics[j].Importance })

		out[sector] = news.SectorSummary{
			LandingSummary: buildLandingSummary(topics),
			Topics:         topics,
		}
	}

	log.Printf("Summarization complete: %d topics summarized, %d dropped, %d placeholders",
		r.Summarized, r.Dropped, r.Placeholders)
	return out, r
}

func (s *Summarizer) summarizeSector(ctx context.Context, sector string, topics map[string]*news.TopicAccumulator, articles map[string]news.Article, r *Result) []news.TopicSummary {
	out := []news.TopicSummary{}

	for name, acc := range topics {
		var texts, sources, urls []string
		var last *news.Article
		for _, fp := range acc.Fingerprints {
			a, ok := articles[fp]
			if !ok {
				continue
			}
			texts = append(texts, a.Content)
			sources = append(sources, a.Source)
			urls = append(urls, a.URL)
			last = &a
		}

		if len(texts) == 0 {
			log.Printf("No valid content for topic %q in sector %q, dropping", name, sector)
			r.Dropped++
			continue
		}

		summary := s.synthesize(ctx, texts)
		if summary == Placeholder {
			r.Placeholders++
		}

		out = append(out, news.TopicSummary{
			Name:        name,
			Description: last.Description,
			Summary:     summary,
			Sources:     sources,
			URLs:        urls,
			Importance:  mean(acc.Importance),
		})
		r.Summarized++
	}

	return out
}

// synthesize runs the content-synthesis model over the combined member texts.
func (s *Summarizer) synthesize(ctx context.Context, texts []string) string {
	if s.provider == nil {
		return Placeholder
	}

	prompt := fmt.Sprintf(synthesisPrompt, strings.Join(texts, "\n\n"))
	responseText, err := s.provider.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		log.Printf("Error synthesizing summary: %v", err)
		return Placeholder
	}
	return strings.TrimSpace(responseText)
}

// buildLandingSummary concatenates the descriptions of up to the first three
// topics in sorted order, each terminated with a period and a space.
func buildLandingSummary(topics []news.TopicSummary) string {
	n := len(topics)
	if n > landingTopicCount {
		n = landingTopicCount
	}

	var b strings.Builder
	for _, t := range topics[:n] {
		if strings.HasSuffix(t.Description, ".") {
			b.WriteString(t.Description + " ")
		} else {
			b.WriteString(t.Description + ". ")
		}
	}
	return b.String()
}

func mean(samples []int) float64 {
	if len(samples) == 0 {
		return 1
	}
	sum := 0
	for _, v := range samples {
		sum += v
	}
	return float64(sum) / float64(len(samples))
}
