package collect

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func archivePage(entries ...string) string {
	return `<html><body><ul class="archive-cards">` + strings.Join(entries, "") + `</ul></body></html>`
}

func archiveEntry(href string, published time.Time) string {
	return fmt.Sprintf(
		`<li><figure class="wp-block-post-featured-image"><a href="%s"></a></figure><time datetime="%s"></time></li>`,
		href, published.Format(time.RFC3339))
}

const articlePage = `<html><head>
<meta property="og:title" content="GPU Cluster Economics">
</head><body>
<h2 class="wp-block-semianalysis-sub-title">Costs / Utilization / Capacity</h2>
<main><p>Training clusters keep growing.</p><p>Utilization decides the economics.</p></main>
</body></html>`

func newScraperFixture(t *testing.T, archive string) (*SiteScraper, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/archives/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, archive)
	})
	mux.HandleFunc("/posts/gpu-clusters", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articlePage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &SiteScraper{
		name:       "Semianalysis",
		archiveURL: srv.URL + "/archives/",
		client:     srv.Client(),
	}, srv
}

func TestScraperFetch(t *testing.T) {
	now := time.Now()
	scraper, _ := newScraperFixture(t, archivePage(
		archiveEntry("/posts/gpu-clusters", now.Add(-2*time.Hour)),
	))

	articles := scraper.Fetch(1)
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	a := articles[0]
	if a.Title != "GPU Cluster Economics" {
		t.Errorf("unexpected title %q", a.Title)
	}
	if a.Source != "Semianalysis" {
		t.Errorf("unexpected source %q", a.Source)
	}
	if strings.Contains(a.Description, "/") {
		t.Errorf("expected slashes stripped from description, got %q", a.Description)
	}
	if !strings.Contains(a.Content, "Training clusters keep growing.") {
		t.Errorf("expected article body in content, got %q", a.Content)
	}
	if !strings.HasPrefix(a.URL, "http") {
		t.Errorf("expected absolute article URL, got %q", a.URL)
	}
}

func TestScraperStopsAtOldEntry(t *testing.T) {
	now := time.Now()
	scraper, _ := newScraperFixture(t, archivePage(
		archiveEntry("/posts/gpu-clusters", now.AddDate(0, 0, -10)),
		archiveEntry("/posts/gpu-clusters", now.Add(-1*time.Hour)),
	))

	// Newest-first assumption: the first old entry ends the scan, so the
	// later (in-window) entry is never visited.
	if articles := scraper.Fetch(1); len(articles) != 0 {
		t.Errorf("expected scan to stop at the first old entry, got %d articles", len(articles))
	}
}

func TestScraperEmptyArchive(t *testing.T) {
	scraper, _ := newScraperFixture(t, "<html><body><p>nothing here</p></body></html>")

	if articles := scraper.Fetch(1); articles != nil {
		t.Errorf("expected nil for an archive without entries, got %d articles", len(articles))
	}
}

func TestScraperSkipsEntryWithoutTimestamp(t *testing.T) {
	now := time.Now()
	scraper, _ := newScraperFixture(t, archivePage(
		`<li><figure class="wp-block-post-featured-image"><a href="/posts/gpu-clusters"></a></figure></li>`,
		archiveEntry("/posts/gpu-clusters", now.Add(-1*time.Hour)),
	))

	if articles := scraper.Fetch(1); len(articles) != 1 {
		t.Errorf("expected the undated entry skipped, got %d articles", len(articles))
	}
}

func TestAbsoluteURL(t *testing.T) {
	s := &SiteScraper{archiveURL: "https://semianalysis.com/archives/"}

	if got := s.absoluteURL("/posts/x"); got != "https://semianalysis.com/posts/x" {
		t.Errorf("unexpected resolved URL %q", got)
	}
	if got := s.absoluteURL("https://other.com/y"); got != "https://other.com/y" {
		t.Errorf("absolute hrefs must pass through, got %q", got)
	}
}
