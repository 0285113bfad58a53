package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mfeller/sectordigest/internal/llm"
	"github.com/mfeller/sectordigest/internal/news"
)

const classifyPrompt = `Given the following news article title and description, first classify it into ONE of these primary market sectors:
%s
You must fit the provided article into one of these sectors, as closely as possible. If it does not fit into any of these sectors or has no clear connection to any of them, return "General".

Then identify the core topic of this article. The topic should turn the article title into a general, unbiased topic that encapsulates the same idea.
Consider these existing topics across all sectors (if any):
%s

If this article's topic is substantially similar to an existing topic, use the exact "topic_name" of that existing topic.
If it is a distinct new topic or has important distinctions from existing topics, create a concise, descriptive "topic_name" for it.
Aim for granularity: similar articles should group, but distinct narratives should stay separate.

Lastly, rank the importance of the topic from 1 to 10, 10 being the most important, based on how much this topic is likely to impact its sector or the overall market.

Title: %s
Description: %s

Respond with ONLY this JSON:
{
    "sector": "Sector Name",
    "topic_name": "New or Existing Topic Name",
    "topic_importance": "1-10"
}`

const (
	// FallbackTopic is where an article lands when classification fails outright.
	FallbackTopic = "Uncategorized News"

	fallbackImportance = 10
	defaultImportance  = 5
)

// Classifier assigns a sector, topic and importance score to one article at a
// time, reusing existing topic names when the article matches one. It never
// returns an error: any failure degrades to the General/uncategorized fallback
// so a batch keeps moving.
type Classifier struct {
	provider llm.Provider
}

// New creates a classifier backed by the given provider.
func New(provider llm.Provider) *Classifier {
	return &Classifier{provider: provider}
}

// Classify assigns a sector and topic to one article. candidates is the full
// set of (sector, topic) pairs discovered so far in the current run, across
// all sectors, so the model can recognize cross-sector duplicates.
func (c *Classifier) Classify(ctx context.Context, title, description string, candidates []news.TopicRef) news.Classification {
	if c.provider == nil {
		log.Printf("No LLM provider; classifying %q as fallback", title)
		return fallback()
	}

	prompt := fmt.Sprintf(classifyPrompt,
		strings.Join(news.Sectors, ", "),
		formatCandidates(candidates),
		title, description)

	responseText, err := c.provider.Generate(ctx, prompt, 256)
	if err != nil {
		log.Printf("Error classifying %q: %v", title, err)
		return fallback()
	}

	var raw struct {
		Sector     string `json:"sector"`
		TopicName  string `json:"topic_name"`
		Importance any    `json:"topic_importance"`
	}
	if err := llm.DecodeJSON(responseText, &raw); err != nil {
		log.Printf("Unparsable classification for %q: %v", title, err)
		return fallback()
	}
	if raw.TopicName == "" {
		log.Printf("Classification for %q missing topic name", title)
		return fallback()
	}

	// Structural parse succeeded; apply the coercion policy.
	sector := raw.Sector
	if !news.ValidSector(sector) {
		log.Printf("Model returned unknown sector %q for %q, defaulting to %s", sector, title, news.GeneralSector)
		sector = news.GeneralSector
	}

	importance, ok := parseImportance(raw.Importance)
	if !ok || importance < 1 || importance > 10 {
		log.Printf("Model returned invalid importance %v for %q, defaulting to %d", raw.Importance, raw.TopicName, defaultImportance)
		importance = defaultImportance
	}

	return news.Classification{
		Sector:     sector,
		TopicName:  raw.TopicName,
		Importance: importance,
	}
}

func fallback() news.Classification {
	return news.Classification{
		Sector:     news.GeneralSector,
		TopicName:  FallbackTopic,
		Importance: fallbackImportance,
	}
}

// formatCandidates renders the partial taxonomy as JSON for the prompt.
func formatCandidates(candidates []news.TopicRef) string {
	if len(candidates) == 0 {
		return "None"
	}
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "None"
	}
	return string(data)
}

// parseImportance accepts the number or string the model happens to emit.
func parseImportance(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
