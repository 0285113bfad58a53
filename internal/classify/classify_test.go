package classify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mfeller/sectordigest/internal/news"
)

// mockProvider implements llm.Provider for testing.
type mockProvider struct {
	response string
	err      error
}

func (m *mockProvider) Generate(_ context.Context, _ string, _ int) (string, error) {
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

// promptCapture records the prompt it was asked to complete.
type promptCapture struct {
	prompt   string
	response string
}

func (p *promptCapture) Generate(_ context.Context, prompt string, _ int) (string, error) {
	p.prompt = prompt
	return p.response, nil
}

func (p *promptCapture) IsConfigured() bool { return true }

func classifyResponse(sector, topic string, importance any) string {
	resp, _ := json.Marshal(map[string]any{
		"sector":           sector,
		"topic_name":       topic,
		"topic_importance": importance,
	})
	return string(resp)
}

func TestClassifyValidResponse(t *testing.T) {
	c := New(&mockProvider{response: classifyResponse("Finance & Economy", "Rate Cuts", 7)})
	got := c.Classify(context.Background(), "Fed signals cuts", "The central bank...", nil)

	if got.Sector != "Finance & Economy" {
		t.Errorf("expected Finance & Economy, got %q", got.Sector)
	}
	if got.TopicName != "Rate Cuts" {
		t.Errorf("expected Rate Cuts, got %q", got.TopicName)
	}
	if got.Importance != 7 {
		t.Errorf("expected importance 7, got %d", got.Importance)
	}
}

func TestClassifyStringImportance(t *testing.T) {
	c := New(&mockProvider{response: classifyResponse("Energy & Materials", "Oil Supply Shock", "8")})
	got := c.Classify(context.Background(), "OPEC cuts output", "", nil)

	if got.Importance != 8 {
		t.Errorf("expected importance 8, got %d", got.Importance)
	}
}

func TestClassifyImportanceOutOfRange(t *testing.T) {
	c := New(&mockProvider{response: classifyResponse("Energy & Materials", "Oil Supply Shock", "15")})
	got := c.Classify(context.Background(), "OPEC cuts output", "", nil)

	if got.Importance != 5 {
		t.Errorf("expected out-of-range importance coerced to 5, got %d", got.Importance)
	}
	if got.Sector != "Energy & Materials" || got.TopicName != "Oil Supply Shock" {
		t.Error("importance coercion must not touch sector or topic")
	}
}

func TestClassifyUnparsableImportance(t *testing.T) {
	c := New(&mockProvider{response: classifyResponse("Energy & Materials", "Oil Supply Shock", "very high")})
	got := c.Classify(context.Background(), "OPEC cuts output", "", nil)

	if got.Importance != 5 {
		t.Errorf("expected unparsable importance coerced to 5, got %d", got.Importance)
	}
}

func TestClassifyUnknownSector(t *testing.T) {
	c := New(&mockProvider{response: classifyResponse("Sports", "Transfer Window", 6)})
	got := c.Classify(context.Background(), "Striker signs record deal", "", nil)

	if got.Sector != news.GeneralSector {
		t.Errorf("expected unknown sector coerced to General, got %q", got.Sector)
	}
	if got.TopicName != "Transfer Window" {
		t.Errorf("sector coercion must keep the topic name, got %q", got.TopicName)
	}
	if got.Importance != 6 {
		t.Errorf("sector coercion must keep the importance, got %d", got.Importance)
	}
}

func TestClassifyNonJSONResponse(t *testing.T) {
	c := New(&mockProvider{response: "I cannot classify this article."})
	got := c.Classify(context.Background(), "Some title", "", nil)

	assertFallback(t, got)
}

func TestClassifyProviderError(t *testing.T) {
	c := New(&mockProvider{err: errors.New("connection refused")})
	got := c.Classify(context.Background(), "Some title", "", nil)

	assertFallback(t, got)
}

func TestClassifyMissingTopicName(t *testing.T) {
	c := New(&mockProvider{response: classifyResponse("Finance & Economy", "", 3)})
	got := c.Classify(context.Background(), "Some title", "", nil)

	assertFallback(t, got)
}

func TestClassifyNilProvider(t *testing.T) {
	c := New(nil)
	got := c.Classify(context.Background(), "Some title", "", nil)

	assertFallback(t, got)
}

func TestClassifyFencedResponse(t *testing.T) {
	fenced := "```json\n" + classifyResponse("Technology & Software", "Cloud Outages", 4) + "\n```"
	c := New(&mockProvider{response: fenced})
	got := c.Classify(context.Background(), "AWS region down", "", nil)

	if got.TopicName != "Cloud Outages" {
		t.Errorf("expected fenced JSON to parse, got topic %q", got.TopicName)
	}
}

func TestClassifyPromptIncludesCandidates(t *testing.T) {
	capture := &promptCapture{response: classifyResponse("Finance & Economy", "Rate Cuts", 7)}
	c := New(capture)

	candidates := []news.TopicRef{
		{Sector: "Finance & Economy", TopicName: "Rate Cuts"},
		{Sector: "Technology & Software", TopicName: "Cloud Outages"},
	}
	c.Classify(context.Background(), "Fed signals cuts", "The central bank...", candidates)

	// The model sees topics from every sector, not just the article's own.
	if !strings.Contains(capture.prompt, "Rate Cuts") || !strings.Contains(capture.prompt, "Cloud Outages") {
		t.Error("expected prompt to list all candidate topics across sectors")
	}
	if !strings.Contains(capture.prompt, "Fed signals cuts") {
		t.Error("expected prompt to contain the article title")
	}
	if !strings.Contains(capture.prompt, news.GeneralSector) {
		t.Error("expected prompt to list the sectors")
	}
}

func TestClassifyPromptWithoutCandidates(t *testing.T) {
	capture := &promptCapture{response: classifyResponse("Finance & Economy", "Rate Cuts", 7)}
	c := New(capture)
	c.Classify(context.Background(), "Fed signals cuts", "", nil)

	if !strings.Contains(capture.prompt, "None") {
		t.Error("expected empty candidate list rendered as None")
	}
}

func assertFallback(t *testing.T, got news.Classification) {
	t.Helper()
	if got.Sector != news.GeneralSector {
		t.Errorf("expected fallback sector General, got %q", got.Sector)
	}
	if got.TopicName != FallbackTopic {
		t.Errorf("expected fallback topic %q, got %q", FallbackTopic, got.TopicName)
	}
	if got.Importance != 10 {
		t.Errorf("expected fallback importance 10, got %d", got.Importance)
	}
}
