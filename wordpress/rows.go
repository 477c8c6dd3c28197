package wordpress

import (
	"context"
	"strconv"
	"time"

	"github.com/dailyyoga/jsonify/feed"
)

const postColumns = "ID, post_author, post_date_gmt, post_content, post_title, post_excerpt, post_status, post_parent, guid, post_type"

type postRow struct {
	ID      uint64    `gorm:"column:ID"`
	Author  uint64    `gorm:"column:post_author"`
	DateGMT time.Time `gorm:"column:post_date_gmt"`
	Content string    `gorm:"column:post_content"`
	Title   string    `gorm:"column:post_title"`
	Excerpt string    `gorm:"column:post_excerpt"`
	Status  string    `gorm:"column:post_status"`
	Parent  uint64    `gorm:"column:post_parent"`
	GUID    string    `gorm:"column:guid"`
	Type    string    `gorm:"column:post_type"`
}

type metaRow struct {
	PostID uint64 `gorm:"column:post_id"`
	Key    string `gorm:"column:meta_key"`
	Value  string `gorm:"column:meta_value"`
}

type userRow struct {
	ID          uint64 `gorm:"column:ID"`
	DisplayName string `gorm:"column:display_name"`
}

type termRow struct {
	ObjectID uint64 `gorm:"column:object_id"`
	Name     string `gorm:"column:name"`
}

type optionRow struct {
	Name  string `gorm:"column:option_name"`
	Value string `gorm:"column:option_value"`
}

// hydrate turns post rows into records, loading meta, authors, categories
// and featured images with one query each.
func (g *Gateway) hydrate(ctx context.Context, rows []postRow) ([]*feed.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ids := make([]uint64, 0, len(rows))
	authorIDs := make([]uint64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		authorIDs = append(authorIDs, r.Author)
	}

	meta, err := g.meta(ctx, ids, "")
	if err != nil {
		return nil, err
	}
	authors, err := g.authors(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	categories, err := g.categories(ctx, ids)
	if err != nil {
		return nil, err
	}
	images, err := g.images(ctx, meta)
	if err != nil {
		return nil, err
	}
	opts, err := g.options(ctx, "home")
	if err != nil {
		return nil, err
	}

	records := make([]*feed.Record, 0, len(rows))
	for _, r := range rows {
		rec := &feed.Record{
			ID:          r.ID,
			Type:        r.Type,
			Status:      r.Status,
			ParentID:    r.Parent,
			Title:       r.Title,
			Permalink:   permalink(opts["home"], r.ID),
			Content:     r.Content,
			Excerpt:     r.Excerpt,
			AuthorName:  authors[r.Author],
			Categories:  categories[r.ID],
			PublishedAt: r.DateGMT.UTC(),
			Meta:        meta[r.ID],
		}
		if img, ok := images[r.ID]; ok {
			full := img
			thumb := feed.Image{
				URL:    thumbnailURL(img.URL, g.cfg.ThumbnailWidth, g.cfg.ThumbnailHeight),
				Width:  g.cfg.ThumbnailWidth,
				Height: g.cfg.ThumbnailHeight,
				Alt:    img.Alt,
			}
			rec.FullImage = &full
			rec.Thumbnail = &thumb
		}
		records = append(records, rec)
	}
	return records, nil
}

// meta loads custom fields in storage order. A non-empty key restricts
// the query to that field.
func (g *Gateway) meta(ctx context.Context, ids []uint64, key string) (map[uint64]map[string][]string, error) {
	var rows []metaRow
	q := g.db.WithContext(ctx).
		Table(g.cfg.table("postmeta")).
		Select("post_id, COALESCE(meta_key, '') AS meta_key, COALESCE(meta_value, '') AS meta_value").
		Where("post_id IN ?", ids)
	if key != "" {
		q = q.Where("meta_key = ?", key)
	}
	if err := q.Order("meta_id").Find(&rows).Error; err != nil {
		return nil, ErrQuery(g.cfg.table("postmeta"), err)
	}
	out := make(map[uint64]map[string][]string, len(ids))
	for _, r := range rows {
		m := out[r.PostID]
		if m == nil {
			m = make(map[string][]string)
			out[r.PostID] = m
		}
		m[r.Key] = append(m[r.Key], r.Value)
	}
	return out, nil
}

func (g *Gateway) authors(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	var rows []userRow
	err := g.db.WithContext(ctx).
		Table(g.cfg.table("users")).
		Select("ID, display_name").
		Where("ID IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, ErrQuery(g.cfg.table("users"), err)
	}
	out := make(map[uint64]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.DisplayName
	}
	return out, nil
}

// categories returns category names per post, sorted by name
func (g *Gateway) categories(ctx context.Context, ids []uint64) (map[uint64][]string, error) {
	var rows []termRow
	err := g.db.WithContext(ctx).
		Table(g.cfg.table("term_relationships")+" AS tr").
		Select("tr.object_id, t.name").
		Joins("JOIN "+g.cfg.table("term_taxonomy")+" AS tt ON tt.term_taxonomy_id = tr.term_taxonomy_id").
		Joins("JOIN "+g.cfg.table("terms")+" AS t ON t.term_id = tt.term_id").
		Where("tt.taxonomy = ? AND tr.object_id IN ?", "category", ids).
		Order("t.name").
		Find(&rows).Error
	if err != nil {
		return nil, ErrQuery(g.cfg.table("term_relationships"), err)
	}
	out := make(map[uint64][]string, len(ids))
	for _, r := range rows {
		out[r.ObjectID] = append(out[r.ObjectID], r.Name)
	}
	return out, nil
}

// images resolves the featured image of every post that has one
func (g *Gateway) images(ctx context.Context, meta map[uint64]map[string][]string) (map[uint64]feed.Image, error) {
	byPost := make(map[uint64]uint64)
	var attachmentIDs []uint64
	for postID, m := range meta {
		values := m[metaThumbnailID]
		if len(values) == 0 {
			continue
		}
		id, err := strconv.ParseUint(values[0], 10, 64)
		if err != nil || id == 0 {
			continue
		}
		byPost[postID] = id
		attachmentIDs = append(attachmentIDs, id)
	}
	if len(attachmentIDs) == 0 {
		return nil, nil
	}

	var rows []postRow
	err := g.db.WithContext(ctx).
		Table(g.cfg.table("posts")).
		Select(postColumns).
		Where("ID IN ?", attachmentIDs).
		Find(&rows).Error
	if err != nil {
		return nil, ErrQuery(g.cfg.table("posts"), err)
	}
	urls := make(map[uint64]string, len(rows))
	for _, r := range rows {
		if r.GUID != "" {
			urls[r.ID] = r.GUID
		}
	}
	alts, err := g.meta(ctx, attachmentIDs, metaImageAlt)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]feed.Image, len(byPost))
	for postID, attachmentID := range byPost {
		u, ok := urls[attachmentID]
		if !ok {
			continue
		}
		img := feed.Image{URL: u}
		if alt := alts[attachmentID][metaImageAlt]; len(alt) > 0 {
			img.Alt = alt[0]
		}
		out[postID] = img
	}
	return out, nil
}

func (g *Gateway) options(ctx context.Context, names ...string) (map[string]string, error) {
	var rows []optionRow
	err := g.db.WithContext(ctx).
		Table(g.cfg.table("options")).
		Select("option_name, option_value").
		Where("option_name IN ?", names).
		Find(&rows).Error
	if err != nil {
		return nil, ErrQuery(g.cfg.table("options"), err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}
