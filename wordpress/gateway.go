// Package wordpress reads posts and site options straight from a
// WordPress database and exposes them as a feed.Gateway.
package wordpress

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dailyyoga/jsonify/db"
	"github.com/dailyyoga/jsonify/feed"
	"github.com/dailyyoga/jsonify/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statusPublish = "publish"
	typeRevision  = "revision"

	metaThumbnailID = "_thumbnail_id"
	metaImageAlt    = "_wp_attachment_image_alt"
)

var _ feed.Gateway = (*Gateway)(nil)

// Gateway is the read-only view of one WordPress site
type Gateway struct {
	logger logger.Logger
	db     *gorm.DB
	cfg    *Config
}

// New creates a gateway over an open database
func New(log logger.Logger, database db.Database, cfg *Config) (*Gateway, error) {
	if database == nil {
		return nil, ErrNilDatabase
	}
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	gdb, err := database.DB()
	if err != nil {
		return nil, err
	}
	return &Gateway{logger: logger.Named(log, "wordpress"), db: gdb, cfg: cfg}, nil
}

// ListPublished returns up to limit published posts, newest first
func (g *Gateway) ListPublished(ctx context.Context, limit int) ([]*feed.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	var rows []postRow
	err := g.db.WithContext(ctx).
		Table(g.cfg.table("posts")).
		Select(postColumns).
		Where("post_type = ? AND post_status = ?", g.cfg.PostType, statusPublish).
		Order("post_date_gmt DESC").
		Order("ID DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, ErrQuery(g.cfg.table("posts"), err)
	}
	records, err := g.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("published posts listed",
		zap.Int("limit", limit),
		zap.Int("items", len(records)),
		zap.Duration("duration", time.Since(start)),
	)
	return records, nil
}

// GetByID returns the post with id in any status
func (g *Gateway) GetByID(ctx context.Context, id uint64) (*feed.Record, error) {
	row, err := g.post(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := g.hydrate(ctx, []postRow{row})
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// RevisionParent returns the parent of a revision.
// Missing rows and non-revisions report ok=false.
func (g *Gateway) RevisionParent(ctx context.Context, id uint64) (uint64, bool, error) {
	row, err := g.post(ctx, id)
	if errors.Is(err, feed.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if row.Type != typeRevision || row.Parent == 0 {
		return 0, false, nil
	}
	return row.Parent, true, nil
}

// SiteMetadata reads the site title, address, tagline and locale options
func (g *Gateway) SiteMetadata(ctx context.Context) (feed.Metadata, error) {
	opts, err := g.options(ctx, "blogname", "home", "blogdescription", "WPLANG")
	if err != nil {
		return feed.Metadata{}, err
	}
	lang := strings.ReplaceAll(strings.TrimSpace(opts["WPLANG"]), "_", "-")
	if lang == "" {
		lang = g.cfg.DefaultLanguage
	}
	return feed.Metadata{
		Title:       opts["blogname"],
		Link:        opts["home"],
		Description: opts["blogdescription"],
		Language:    lang,
		Slug:        SlugFromHome(opts["home"]),
	}, nil
}

func (g *Gateway) post(ctx context.Context, id uint64) (postRow, error) {
	var row postRow
	err := g.db.WithContext(ctx).
		Table(g.cfg.table("posts")).
		Select(postColumns).
		Where("ID = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return row, feed.ErrRecordNotFound
	}
	if err != nil {
		return row, ErrQuery(g.cfg.table("posts"), err)
	}
	return row, nil
}

// SlugFromHome names a site after the last path segment of its home
// address, falling back to the host for sites served from the root.
func SlugFromHome(home string) string {
	u, err := url.Parse(strings.TrimSpace(home))
	if err != nil {
		return ""
	}
	if seg := path.Base(strings.TrimRight(u.Path, "/")); seg != "." && seg != "/" && seg != "" {
		return seg
	}
	return u.Hostname()
}

// permalink assumes the plain permalink structure; pretty permalinks are not rendered
func permalink(home string, id uint64) string {
	return strings.TrimRight(home, "/") + "/?p=" + strconv.FormatUint(id, 10)
}

// thumbnailURL points at the resized copy WordPress stores next to the
// original upload, e.g. photo.jpg -> photo-150x150.jpg
func thumbnailURL(full string, width, height int) string {
	ext := path.Ext(full)
	if ext == "" || strings.Contains(ext, "/") {
		return full
	}
	return strings.TrimSuffix(full, ext) + "-" + strconv.Itoa(width) + "x" + strconv.Itoa(height) + ext
}
