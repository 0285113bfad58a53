package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/mfeller/sectordigest/internal/aggregate"
	"github.com/mfeller/sectordigest/internal/classify"
	"github.com/mfeller/sectordigest/internal/collect"
	"github.com/mfeller/sectordigest/internal/config"
	"github.com/mfeller/sectordigest/internal/llm"
	"github.com/mfeller/sectordigest/internal/news"
	"github.com/mfeller/sectordigest/internal/store"
	"github.com/mfeller/sectordigest/internal/summarize"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	Steps []StepResult
}

// Failed reports whether any step errored.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Err != nil {
			return true
		}
	}
	return false
}

// Ingester produces the raw article batch for a run.
type Ingester interface {
	Collect() ([]news.Article, *collect.Result)
}

// Synthesizer produces the final sector content from aggregated topics.
type Synthesizer interface {
	Summarize(ctx context.Context, topicMap news.SectorTopicMap, articles map[string]news.Article) (map[string]news.SectorSummary, *summarize.Result)
}

// Pipeline sequences the store, aggregate and summarize stages over the
// artifact store. Stages run strictly one after another; each reads only
// artifacts the previous one finished writing.
type Pipeline struct {
	store      *store.Store
	collector  Ingester
	classifier aggregate.Classifier
	summarizer Synthesizer
}

// New wires a pipeline from configuration.
func New(cfg *config.Config, st *store.Store) *Pipeline {
	provider := llm.CreateProvider(
		cfg.LLM.Provider,
		cfg.LLM.Model,
		cfg.LLM.OllamaURL,
		cfg.LLM.OpenAIModel,
		cfg.LLM.APIKeyEnv,
	)

	return &Pipeline{
		store:      st,
		collector:  collect.NewCollector(cfg),
		classifier: classify.New(provider),
		summarizer: summarize.New(provider, cfg.LLM.MaxSummaryTokens),
	}
}

// NewWithComponents wires a pipeline from explicit components.
func NewWithComponents(st *store.Store, collector Ingester, classifier aggregate.Classifier, summarizer Synthesizer) *Pipeline {
	return &Pipeline{
		store:      st,
		collector:  collector,
		classifier: classifier,
		summarizer: summarizer,
	}
}

// Run executes the full pipeline. A failing stage stops the run, but stage
// artifacts written so far stay in place for the next invocation.
func (p *Pipeline) Run(ctx context.Context) *Result {
	r := &Result{}

	step := p.runStore()
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	step = p.runAggregate(ctx)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r
	}

	r.Steps = append(r.Steps, p.runSummarize(ctx))
	return r
}

func (p *Pipeline) runStore() StepResult {
	log.Println("Step 1/3: Collecting and storing articles...")

	articles, result := p.collector.Collect()
	stored := news.StoreArticles(articles)

	if err := p.store.SaveJSON(store.ArtifactArticles, stored); err != nil {
		return StepResult{Name: "Store", Err: err}
	}
	return StepResult{
		Name:    "Store",
		Summary: fmt.Sprintf("Stored %d unique articles (%d fetched)", len(stored), result.TotalFound),
	}
}

func (p *Pipeline) runAggregate(ctx context.Context) StepResult {
	log.Println("Step 2/3: Classifying articles into sector topics...")

	var articles map[string]news.Article
	if err := p.store.LoadJSON(store.ArtifactArticles, &articles); err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}

	topicMap, result := aggregate.New(p.classifier).Aggregate(ctx, articles)

	if err := p.store.SaveJSON(store.ArtifactSectorTopicMap, topicMap); err != nil {
		return StepResult{Name: "Aggregate", Err: err}
	}
	return StepResult{
		Name:    "Aggregate",
		Summary: fmt.Sprintf("Grouped %d articles into %d topics (%d skipped)", result.Processed, result.Topics, result.Skipped),
	}
}

func (p *Pipeline) runSummarize(ctx context.Context) StepResult {
	log.Println("Step 3/3: Summarizing sector topics...")

	var topicMap news.SectorTopicMap
	if err := p.store.LoadJSON(store.ArtifactSectorTopicMap, &topicMap); err != nil {
		return StepResult{Name: "Summarize", Err: err}
	}
	var articles map[string]news.Article
	if err := p.store.LoadJSON(store.ArtifactArticles, &articles); err != nil {
		return StepResult{Name: "Summarize", Err: err}
	}

	content, result := p.summarizer.Summarize(ctx, topicMap, articles)

	if err := p.store.SaveJSON(store.ArtifactFinalContent, content); err != nil {
		return StepResult{Name: "Summarize", Err: err}
	}
	return StepResult{
		Name:    "Summarize",
		Summary: fmt.Sprintf("Summarized %d topics (%d dropped, %d placeholders)", result.Summarized, result.Dropped, result.Placeholders),
	}
}
