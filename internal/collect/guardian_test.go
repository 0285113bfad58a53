package collect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func guardianFixture(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api-key") == "" {
			t.Error("expected api-key query parameter")
		}
		if r.URL.Query().Get("from-date") == "" {
			t.Error("expected from-date query parameter")
		}

		resp := map[string]any{
			"response": map[string]any{
				"results": []map[string]any{
					{
						"webTitle":           "Fed signals cuts",
						"webUrl":             "https://www.theguardian.com/business/fed",
						"webPublicationDate": "2026-08-30T07:00:00Z",
						"fields": map[string]any{
							"body":      "<p>The central bank signaled cuts.</p><p>Markets rallied.</p>",
							"trailText": "Editorial: The <em>Fed</em> moves",
						},
					},
					{
						"webTitle": "",
						"webUrl":   "https://www.theguardian.com/broken",
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestGuardianFetch(t *testing.T) {
	srv := httptest.NewServer(guardianFixture(t))
	defer srv.Close()

	c := &GuardianClient{
		apiKey:  "test-key",
		query:   "finance",
		baseURL: srv.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	articles := c.Fetch(1)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article (entry without title dropped), got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "Fed signals cuts" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if a.Source != "The Guardian" {
		t.Errorf("unexpected source %q", a.Source)
	}
	if a.Content != "The central bank signaled cuts.\nMarkets rallied." {
		t.Errorf("unexpected content %q", a.Content)
	}
	if a.Description != "The Fed moves" {
		t.Errorf("expected editorial prefix stripped and tags flattened, got %q", a.Description)
	}
	if a.PublishedAt != "2026-08-30T07:00:00Z" {
		t.Errorf("unexpected publishedAt %q", a.PublishedAt)
	}
}

func TestGuardianFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &GuardianClient{
		apiKey:  "test-key",
		baseURL: srv.URL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}

	if articles := c.Fetch(1); articles != nil {
		t.Errorf("expected nil on server error, got %d articles", len(articles))
	}
}

func TestGuardianFetchWithoutKey(t *testing.T) {
	c := &GuardianClient{client: &http.Client{}}
	if articles := c.Fetch(1); articles != nil {
		t.Errorf("expected nil without an API key, got %d articles", len(articles))
	}
	if c.IsConfigured() {
		t.Error("expected IsConfigured false without a key")
	}
}

func TestExtractBodyTextFallback(t *testing.T) {
	// No paragraph tags: falls back to the full text.
	if got := extractBodyText("<div>plain text</div>"); got != "plain text" {
		t.Errorf("unexpected fallback text %q", got)
	}
	if got := extractBodyText(""); got != "" {
		t.Errorf("expected empty result for empty body, got %q", got)
	}
}
