package news

import (
	"crypto/sha256"
	"encoding/hex"
)

// Article is a normalized article as delivered by any ingestion source.
// All fields are plain strings; PublishedAt keeps whatever timestamp format
// the source emitted, since it only participates in fingerprinting and display.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

// Fingerprint returns the stable dedup key for an article: the hex sha256
// digest of title, url and publication timestamp concatenated. Two fetches of
// the same article always hash to the same key, so repeated ingestion runs
// overwrite rather than duplicate.
func Fingerprint(a Article) string {
	h := sha256.Sum256([]byte(a.Title + a.URL + a.PublishedAt))
	return hex.EncodeToString(h[:])
}

// StoreArticles fingerprints a batch of raw articles into a content-addressed
// map. Last write wins when a run visits the same (title, url, publishedAt)
// twice. Iteration order of the result is not meaningful.
func StoreArticles(articles []Article) map[string]Article {
	stored := make(map[string]Article, len(articles))
	for _, a := range articles {
		stored[Fingerprint(a)] = a
	}
	return stored
}
