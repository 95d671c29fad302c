package analysis

import (
	"sort"
	"time"

	"github.com/arbored/weft/pkg/market"
)

const (
	// newsWindow bounds how old an article may be to count as recent.
	newsWindow = 15 * 24 * time.Hour

	// newsLimit caps the number of articles fed to the model so the
	// prompt stays within context.
	newsLimit = 25
)

// recentNews filters articles to the recency window, sorts them newest
// first, and caps the count.
func recentNews(items []market.NewsItem, now time.Time) []market.NewsItem {
	cutoff := now.Add(-newsWindow)

	recent := make([]market.NewsItem, 0, len(items))
	for _, item := range items {
		// Feeds occasionally carry items without a title or timestamp;
		// skip those rather than fail the node.
		if item.Title == "" || item.PublishedAt.IsZero() {
			continue
		}
		if item.PublishedAt.After(cutoff) {
			recent = append(recent, item)
		}
	}

	sort.Slice(recent, func(i, j int) bool {
		return recent[i].PublishedAt.After(recent[j].PublishedAt)
	})

	if len(recent) > newsLimit {
		recent = recent[:newsLimit]
	}
	return recent
}
