package menucache

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Entry is one image the menu layer wants cached: a source URL and the
// timestamp the remote resource last changed. UpdatedAt drives the staleness
// check in NeedsUpdate.
type Entry struct {
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category is a menu category with its icon image.
type Category struct {
	Name      string    `json:"name"`
	IconURL   string    `json:"icon_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a menu item with its photo.
type Item struct {
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	ImageURL  string    `json:"image_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Feed is the menu document the view layer supplies: which images exist and
// when they last changed.
type Feed struct {
	Categories []Category `json:"categories"`
	Items      []Item     `json:"items"`
}

// ParseFeed parses a JSON menu feed.
func ParseFeed(data []byte) (*Feed, error) {
	var f Feed
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse menu feed")
	}
	return &f, nil
}

// IconEntries returns the category icons as preload entries, in feed order.
// Categories without an icon URL are skipped.
func (f *Feed) IconEntries() []Entry {
	var entries []Entry
	for _, c := range f.Categories {
		if c.IconURL == "" {
			continue
		}
		entries = append(entries, Entry{URL: c.IconURL, UpdatedAt: c.UpdatedAt})
	}
	return entries
}

// ItemEntries returns the item photos as preload entries, in feed order.
// Items without an image URL are skipped.
func (f *Feed) ItemEntries() []Entry {
	var entries []Entry
	for _, i := range f.Items {
		if i.ImageURL == "" {
			continue
		}
		entries = append(entries, Entry{URL: i.ImageURL, UpdatedAt: i.UpdatedAt})
	}
	return entries
}
