package collect

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mfeller/sectordigest/internal/news"
)

const scrapeUserAgent = "sectordigest/1.0 (news aggregator)"

// SiteScraper scrapes an archive listing page and the article pages it links
// to. The listing is assumed newest-first: scraping stops at the first entry
// older than the cutoff.
type SiteScraper struct {
	name       string
	archiveURL string
	client     *http.Client
	delay      time.Duration
}

// NewSiteScraper creates a scraper for one site's archive page.
func NewSiteScraper(name, archiveURL string) *SiteScraper {
	return &SiteScraper{
		name:       name,
		archiveURL: archiveURL,
		client:     &http.Client{Timeout: 20 * time.Second},
		delay:      500 * time.Millisecond,
	}
}

// Fetch scrapes articles published within daysBack days. Any failure on the
// archive page yields an empty slice; a failure on an individual article page
// skips just that article.
func (s *SiteScraper) Fetch(daysBack int) []news.Article {
	cutoff := time.Now().AddDate(0, 0, -daysBack)

	doc, err := s.fetchDocument(s.archiveURL)
	if err != nil {
		log.Printf("Error fetching archive page %s: %v", s.archiveURL, err)
		return nil
	}

	list := doc.Find("ul.archive-cards li")
	if list.Length() == 0 {
		log.Printf("No archive entries found at %s; page structure may have changed", s.archiveURL)
		return nil
	}

	var articles []news.Article
	list.EachWithBreak(func(_ int, li *goquery.Selection) bool {
		published, ok := entryTimestamp(li)
		if !ok {
			return true // no usable timestamp, move on
		}
		if published.Before(cutoff) {
			log.Printf("Reached old article (%s), stopping scrape of %s", published.Format("2006-01-02"), s.name)
			return false
		}

		href, ok := li.Find("figure.wp-block-post-featured-image a").Attr("href")
		if !ok {
			return true
		}
		articleURL := s.absoluteURL(href)

		article, err := s.scrapeArticle(articleURL, published)
		if err != nil {
			log.Printf("Error scraping article %s: %v", articleURL, err)
			return true
		}
		articles = append(articles, *article)

		time.Sleep(s.delay) // be polite between article fetches
		return true
	})

	log.Printf("Scraped %d recent articles from %s", len(articles), s.name)
	return articles
}

func (s *SiteScraper) scrapeArticle(articleURL string, published time.Time) (*news.Article, error) {
	req, err := http.NewRequest("GET", articleURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	description := strings.TrimSpace(doc.Find("h2.wp-block-semianalysis-sub-title").First().Text())
	description = strings.TrimSpace(strings.ReplaceAll(description, "/", ""))

	content := s.extractContent(string(body), articleURL, doc)
	if content == "" {
		log.Printf("No substantial content for %s, falling back to description", articleURL)
		content = description
	}

	return &news.Article{
		Title:       title,
		Description: description,
		Content:     content,
		Source:      s.name,
		URL:         articleURL,
		PublishedAt: published.Format(time.RFC3339),
	}, nil
}

// extractContent tries readability first, then falls back to the paragraphs
// of the page's main element.
func (s *SiteScraper) extractContent(body, articleURL string, doc *goquery.Document) string {
	parsedURL, _ := url.Parse(articleURL)
	if article, err := readability.FromReader(strings.NewReader(body), parsedURL); err == nil {
		if text := strings.TrimSpace(article.TextContent); len(text) > 100 {
			return text
		}
	}

	var paragraphs []string
	doc.Find("main p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	return strings.Join(paragraphs, "\n")
}

func (s *SiteScraper) fetchDocument(pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (s *SiteScraper) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	base, err := url.Parse(s.archiveURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// entryTimestamp reads the <time datetime="..."> attribute of one archive
// entry.
func entryTimestamp(li *goquery.Selection) (time.Time, bool) {
	attr, ok := li.Find("time").Attr("datetime")
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, attr)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
