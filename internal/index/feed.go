package index

import (
	"sort"
	"strings"
	"time"
)

// JSONFeedVersion is the JSON Feed format identifier.
const JSONFeedVersion = "https://jsonfeed.org/version/1.1"

// feedItemLimit caps the feed at the most recently updated entries. Only
// this derived view is bounded; the index and history files are not.
const feedItemLimit = 100

// Feed is a JSON Feed 1.1 document derived purely from the current index.
type Feed struct {
	Version     string     `json:"version"`
	Title       string     `json:"title"`
	HomePageURL string     `json:"home_page_url,omitempty"`
	FeedURL     string     `json:"feed_url,omitempty"`
	Items       []FeedItem `json:"items"`
}

// FeedItem is one feed entry per addon.
type FeedItem struct {
	ID            string       `json:"id"`
	URL           string       `json:"url"`
	Title         string       `json:"title"`
	Summary       string       `json:"summary,omitempty"`
	DatePublished *time.Time   `json:"date_published,omitempty"`
	Authors       []FeedAuthor `json:"authors,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
}

// FeedAuthor names one addon author.
type FeedAuthor struct {
	Name string `json:"name"`
}

// BuildFeed derives a feed from the index, newest releases first.
func BuildFeed(idx *Index, title, homePageURL, feedURL string) *Feed {
	items := make([]FeedItem, 0, len(idx.Addons))

	for _, addon := range idx.Addons {
		itemTitle := addon.Name
		var published *time.Time
		if addon.LatestRelease != nil {
			itemTitle = strings.TrimSpace(addon.Name + " " + addon.LatestRelease.Version)
			published = addon.LatestRelease.PublishedAt
		}

		authors := make([]FeedAuthor, 0, len(addon.Authors))
		for _, a := range addon.Authors {
			authors = append(authors, FeedAuthor{Name: a})
		}

		items = append(items, FeedItem{
			ID:            addon.Slug,
			URL:           addon.URL,
			Title:         itemTitle,
			Summary:       addon.Description,
			DatePublished: published,
			Authors:       authors,
			Tags:          addon.Tags,
		})
	}

	// Newest first; undated items keep their index order at the end
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].DatePublished, items[j].DatePublished
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})
	if len(items) > feedItemLimit {
		items = items[:feedItemLimit]
	}

	return &Feed{
		Version:     JSONFeedVersion,
		Title:       title,
		HomePageURL: homePageURL,
		FeedURL:     feedURL,
		Items:       items,
	}
}

// CategoryIndex groups addon slugs by category.
type CategoryIndex struct {
	Version     string              `json:"version"`
	GeneratedAt time.Time           `json:"generated_at"`
	Categories  map[string][]string `json:"categories"`
}

// BuildCategories derives the category index from the compiled index. Slugs
// inherit the index's name ordering within each category.
func BuildCategories(idx *Index) *CategoryIndex {
	categories := make(map[string][]string)
	for _, addon := range idx.Addons {
		categories[addon.Category] = append(categories[addon.Category], addon.Slug)
	}

	return &CategoryIndex{
		Version:     IndexVersion,
		GeneratedAt: idx.GeneratedAt,
		Categories:  categories,
	}
}
