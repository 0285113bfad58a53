package collect

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mfeller/sectordigest/internal/news"
)

const guardianBaseURL = "https://content.guardianapis.com/search"

var editorialPrefix = regexp.MustCompile(`(?i)^(Editorial|Guardian view):\s*`)

// GuardianClient fetches articles from The Guardian content API.
type GuardianClient struct {
	apiKey  string
	query   string
	baseURL string
	client  *http.Client
}

// NewGuardianClient creates a new Guardian client reading its key from the
// named environment variable.
func NewGuardianClient(apiKeyEnv, query string) *GuardianClient {
	return &GuardianClient{
		apiKey:  os.Getenv(apiKeyEnv),
		query:   query,
		baseURL: guardianBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// IsConfigured returns whether the API key is available.
func (c *GuardianClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Fetch returns articles published within daysBack days. Transport or decode
// failures are logged and yield an empty slice.
func (c *GuardianClient) Fetch(daysBack int) []news.Article {
	if c.apiKey == "" {
		log.Println("Guardian API not configured, skipping")
		return nil
	}

	fromDate := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	params := url.Values{
		"q":           {c.query},
		"api-key":     {c.apiKey},
		"show-fields": {"body,trailText"},
		"page-size":   {"50"},
		"from-date":   {fromDate},
	}

	resp, err := c.client.Get(c.baseURL + "?" + params.Encode())
	if err != nil {
		log.Printf("Guardian API error: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Guardian API HTTP error: %d", resp.StatusCode)
		return nil
	}

	var result struct {
		Response struct {
			Results []struct {
				WebTitle           string `json:"webTitle"`
				WebURL             string `json:"webUrl"`
				WebPublicationDate string `json:"webPublicationDate"`
				Fields             struct {
					Body      string `json:"body"`
					TrailText string `json:"trailText"`
				} `json:"fields"`
			} `json:"results"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("Guardian API decode error: %v", err)
		return nil
	}

	var articles []news.Article
	for _, item := range result.Response.Results {
		if item.WebTitle == "" || item.WebURL == "" {
			continue
		}

		content := extractBodyText(item.Fields.Body)
		if content == "" {
			content = htmlToText(item.Fields.TrailText)
		}

		description := editorialPrefix.ReplaceAllString(htmlToText(item.Fields.TrailText), "")

		articles = append(articles, news.Article{
			Title:       item.WebTitle,
			Description: strings.TrimSpace(description),
			Content:     content,
			Source:      "The Guardian",
			URL:         item.WebURL,
			PublishedAt: item.WebPublicationDate,
		})
	}

	log.Printf("Fetched %d articles from The Guardian", len(articles))
	return articles
}

// extractBodyText pulls readable text out of the API's HTML body field:
// paragraph text joined by newlines, falling back to all text.
func extractBodyText(body string) string {
	if body == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n")
	}
	return strings.TrimSpace(doc.Text())
}

func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
