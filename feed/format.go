package feed

import (
	"fmt"
	"html"
	"strings"
)

// Renderer turns stored post content into the HTML body exposed in the feed.
type Renderer interface {
	Render(content string) string
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(content string) string

// Render calls f(content).
func (f RendererFunc) Render(content string) string { return f(content) }

// Formatter maps a Record to an Item. It never fails: anything missing
// from the record becomes an empty value in the item.
type Formatter struct {
	renderer     Renderer
	excerptWords int
	excerptMore  string
	hidePrivate  bool
}

// FormatterOption customizes a Formatter.
type FormatterOption func(*Formatter)

// WithRenderer replaces the default AutoP body renderer.
func WithRenderer(r Renderer) FormatterOption {
	return func(f *Formatter) {
		if r != nil {
			f.renderer = r
		}
	}
}

// NewFormatter creates a formatter from the feed configuration.
func NewFormatter(cfg *Config, opts ...FormatterOption) *Formatter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	f := &Formatter{
		renderer:     RendererFunc(AutoP),
		excerptWords: cfg.ExcerptWords,
		excerptMore:  cfg.ExcerptMore,
		hidePrivate:  cfg.HidePrivateMeta,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format builds the feed item for r.
//
// Multi-valued custom fields keep only their first value. Consumers depend
// on the flat string->string shape, so this loss is intentional.
func (f *Formatter) Format(r *Record) Item {
	if r == nil {
		return Item{Categories: []string{}, Custom: CustomFields{}}
	}

	body := f.renderer.Render(r.Content)

	item := Item{
		ID:                 r.ID,
		Title:              r.Title,
		Link:               r.Permalink,
		Body:               body,
		Author:             r.AuthorName,
		Categories:         append([]string{}, r.Categories...),
		SiteImage:          ImageTag(r.FullImage, "full"),
		SiteImageThumbnail: ImageTag(r.Thumbnail, "thumbnail"),
		Excerpt:            Excerpt(r.Excerpt, body, f.excerptWords, f.excerptMore),
		Custom:             make(CustomFields, len(r.Meta)),
	}
	if !r.PublishedAt.IsZero() {
		item.PubDate = r.PublishedAt.UTC().Format(PubDateLayout)
	}

	for key, values := range r.Meta {
		if len(values) == 0 {
			continue
		}
		if f.hidePrivate && strings.HasPrefix(key, "_") {
			continue
		}
		item.Custom[key] = values[0]
	}

	return item
}

// ImageTag renders an <img> element for a featured image, or "" when absent.
func ImageTag(img *Image, size string) string {
	if img == nil || img.URL == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("<img ")
	if img.Width > 0 && img.Height > 0 {
		fmt.Fprintf(&b, `width="%d" height="%d" `, img.Width, img.Height)
	}
	fmt.Fprintf(&b, `src="%s" class="attachment-%s size-%s wp-post-image" alt="%s" />`,
		html.EscapeString(img.URL), size, size, html.EscapeString(img.Alt))
	return b.String()
}
