// Package feed defines the JSON feed document that mirrors the published
// posts of a site, together with the pure pieces that decide what goes into
// it: the visibility policy and the item formatter.
//
// Nothing in this package performs I/O. Content is supplied through the
// Gateway interface and persistence is handled by the cache package.
package feed

import (
	"bytes"
	"encoding/json"
	"time"
)

// PubDateLayout is the fixed textual format of Item.PubDate.
// Times are always converted to UTC before formatting, so the zone is +0000.
const PubDateLayout = time.RFC1123Z

// Metadata describes the site the document belongs to.
// It is refreshed from the content store on every write.
type Metadata struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Slug        string `json:"slug"`
}

// Document is the single persisted artifact.
// Posts is keyed by post id and always encodes as a JSON object.
type Document struct {
	Metadata
	Posts map[uint64]Item `json:"posts"`
}

// NewDocument returns an empty document for the given site.
func NewDocument(meta Metadata) *Document {
	return &Document{Metadata: meta, Posts: make(map[uint64]Item)}
}

// UnmarshalJSON decodes a document, rejecting shapes that would break the
// "posts is an object" invariant. An empty JSON array is accepted as an
// empty mapping because older writers encoded an empty post list that way.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw struct {
		Metadata
		Posts json.RawMessage `json:"posts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	posts := bytes.TrimSpace(raw.Posts)
	if len(posts) == 0 || bytes.Equal(posts, []byte("null")) {
		return ErrMalformedDocument("posts is missing")
	}

	decoded := make(map[uint64]Item)
	switch posts[0] {
	case '{':
		if err := json.Unmarshal(posts, &decoded); err != nil {
			return ErrMalformedDocument(err.Error())
		}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(posts, &list); err != nil {
			return ErrMalformedDocument(err.Error())
		}
		if len(list) > 0 {
			return ErrMalformedDocument("posts is a non-empty array")
		}
	default:
		return ErrMalformedDocument("posts is not an object")
	}

	d.Metadata = raw.Metadata
	d.Posts = decoded
	return nil
}

// Item is one visible post as exposed to feed readers.
type Item struct {
	ID                 uint64       `json:"id"`
	Title              string       `json:"title"`
	Link               string       `json:"link"`
	Body               string       `json:"body"`
	Author             string       `json:"author"`
	Categories         []string     `json:"categories"`
	PubDate            string       `json:"pubDate"`
	SiteImage          string       `json:"siteImage"`
	SiteImageThumbnail string       `json:"siteImage-thumbnail"`
	Excerpt            string       `json:"excerpt"`
	Custom             CustomFields `json:"custom"`
}

// CustomFields maps a custom field name to its first value.
type CustomFields map[string]string

// UnmarshalJSON accepts an empty array in place of an empty object.
func (c *CustomFields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*c = CustomFields{}
		return nil
	}
	m := make(map[string]string)
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return err
	}
	*c = m
	return nil
}

// Image is a featured image rendition supplied by the content store.
type Image struct {
	URL    string
	Width  int
	Height int
	Alt    string
}

// Record is one content-store entity as seen by the synchronizer.
type Record struct {
	ID          uint64
	Type        string
	Status      string
	ParentID    uint64
	Title       string
	Permalink   string
	Content     string
	Excerpt     string
	AuthorName  string
	Categories  []string
	PublishedAt time.Time
	FullImage   *Image
	Thumbnail   *Image
	// Meta holds every value of every custom field, in storage order.
	Meta map[string][]string
}

// FirstMeta returns the first value stored under key.
func (r *Record) FirstMeta(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	values := r.Meta[key]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
