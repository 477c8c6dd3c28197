package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventKind is the closed set of mutations the synchronizer reacts to.
// Hosts translate their native hooks into one of these before calling in.
type EventKind string

const (
	EventSaved   EventKind = "saved"
	EventTrashed EventKind = "trashed"
	EventDeleted EventKind = "deleted"
)

// Valid reports whether k is one of the known kinds.
func (k EventKind) Valid() bool {
	switch k {
	case EventSaved, EventTrashed, EventDeleted:
		return true
	}
	return false
}

// Removal reports whether the kind always drops its subject from the feed.
func (k EventKind) Removal() bool {
	return k == EventTrashed || k == EventDeleted
}

// ParseEventKind converts a textual kind into an EventKind.
func ParseEventKind(s string) (EventKind, error) {
	k := EventKind(s)
	if !k.Valid() {
		return "", ErrInvalidEventKind(s)
	}
	return k, nil
}

// MutationEvent triggers one synchronization. A nil SubjectID requests a
// full rebuild. Autosave events are dropped without touching the cache.
type MutationEvent struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	SubjectID  *uint64   `json:"subject_id,omitempty"`
	Autosave   bool      `json:"autosave,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent builds an event with a fresh id.
func NewEvent(kind EventKind, subject *uint64) MutationEvent {
	return MutationEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		SubjectID:  subject,
		OccurredAt: time.Now().UTC(),
	}
}

// Saved is shorthand for a save event about post id.
func Saved(id uint64) MutationEvent { return NewEvent(EventSaved, &id) }

// Trashed is shorthand for a trash event about post id.
func Trashed(id uint64) MutationEvent { return NewEvent(EventTrashed, &id) }

// Deleted is shorthand for a delete event about post id.
func Deleted(id uint64) MutationEvent { return NewEvent(EventDeleted, &id) }

// RebuildRequest asks for the whole feed to be regenerated.
func RebuildRequest() MutationEvent { return NewEvent(EventSaved, nil) }

// HasSubject reports whether the event names a post.
func (e MutationEvent) HasSubject() bool {
	return e.SubjectID != nil && *e.SubjectID != 0
}

// Validate checks the event kind.
func (e MutationEvent) Validate() error {
	if !e.Kind.Valid() {
		return ErrInvalidEventKind(string(e.Kind))
	}
	return nil
}

// Gateway is the content store as consumed by the synchronizer.
type Gateway interface {
	// ListPublished returns up to limit published records, newest first.
	ListPublished(ctx context.Context, limit int) ([]*Record, error)
	// GetByID returns the record in any status, or ErrRecordNotFound.
	GetByID(ctx context.Context, id uint64) (*Record, error)
	// RevisionParent returns the parent id when id is a revision.
	RevisionParent(ctx context.Context, id uint64) (parent uint64, ok bool, err error)
	// SiteMetadata returns the current site configuration.
	SiteMetadata(ctx context.Context) (Metadata, error)
}

// ResolveSubject maps a revision id to its parent. Other ids map to themselves.
func ResolveSubject(ctx context.Context, gw Gateway, id uint64) (effective uint64, revision bool, err error) {
	parent, ok, err := gw.RevisionParent(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if ok && parent != 0 {
		return parent, true, nil
	}
	return id, false, nil
}
