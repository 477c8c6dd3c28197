package feed

import (
	"strconv"
	"strings"
	"time"
)

// Status is the single classification the synchronizer dispatches on.
type Status int

const (
	StatusDeleted Status = iota
	StatusDraft
	StatusTrashed
	StatusExpired
	StatusPublished
)

func (s Status) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusDraft:
		return "draft"
	case StatusTrashed:
		return "trashed"
	case StatusExpired:
		return "expired"
	case StatusPublished:
		return "published"
	}
	return "status(" + strconv.Itoa(int(s)) + ")"
}

// raw store statuses
const (
	storeStatusPublish = "publish"
	storeStatusTrash   = "trash"
)

// Policy decides whether a record belongs in the feed.
// It is a pure function of the record, its configuration and the time passed in.
type Policy struct {
	postType    string
	expiryField string
}

// NewPolicy creates a visibility policy from the feed configuration.
func NewPolicy(cfg *Config) *Policy {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Policy{postType: cfg.PostType, expiryField: cfg.ExpiryField}
}

// ExpiryField returns the custom field name holding the expiry timestamp.
func (p *Policy) ExpiryField() string {
	return p.expiryField
}

// Classify maps a record to a Status at time now.
// Only StatusPublished is visible.
func (p *Policy) Classify(r *Record, now time.Time) Status {
	if r == nil {
		return StatusDeleted
	}
	if p.postType != "" && r.Type != p.postType {
		return StatusDraft
	}

	switch r.Status {
	case storeStatusTrash:
		return StatusTrashed
	case storeStatusPublish:
		// scheduled but not yet due
		if now.Before(r.PublishedAt) {
			return StatusDraft
		}
		if value, ok := r.FirstMeta(p.expiryField); ok && p.Expired(value, now) {
			return StatusExpired
		}
		return StatusPublished
	default:
		// draft, auto-draft, pending, private, future, inherit and unknown statuses
		return StatusDraft
	}
}

// IsVisible reports whether r should appear in the feed at time now.
func (p *Policy) IsVisible(r *Record, now time.Time) bool {
	return p.Classify(r, now) == StatusPublished
}

// Expired reports whether an expiry field value has been reached at now.
// Values that cannot be parsed never expire.
func (p *Policy) Expired(value string, now time.Time) bool {
	at, ok := ParseExpiry(value)
	if !ok {
		return false
	}
	return !now.Before(at)
}

var expiryLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseExpiry parses an expiry field value: unix seconds, RFC 3339 or a
// UTC "YYYY-MM-DD hh:mm[:ss]" timestamp.
func ParseExpiry(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs <= 0 {
			return time.Time{}, false
		}
		return time.Unix(secs, 0).UTC(), true
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
