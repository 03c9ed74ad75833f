package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaggedRecord is a named content blob plus an ordered set of tag ids.
// In the block factory a record holds the pre-positioned blocks loaded onto a
// workspace, and its tags are the ids of user-generated shadow blocks.
//
// A TaggedRecord is not safe for concurrent use; the service layer serializes
// mutation through a row lock.
type TaggedRecord struct {
	NamedEntity

	// ID is the storage identity assigned by the database. Zero until persisted.
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time

	content Content
	tags    []string
}

var (
	_ Named      = (*TaggedRecord)(nil)
	_ Exportable = (*TaggedRecord)(nil)
	_ Taggable   = (*TaggedRecord)(nil)
)

// NewTaggedRecord constructs a record with empty content and no tags.
// Returns ErrValidation if name is empty or whitespace.
func NewTaggedRecord(name string) (*TaggedRecord, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	return &TaggedRecord{
		NamedEntity: NewNamedEntity(name),
		content:     NewContent(),
		tags:        []string{},
	}, nil
}

// RestoreTaggedRecord rebuilds a record from stored state. Duplicate tags are
// dropped keeping the first occurrence, and nil content becomes empty content,
// so a restored record always satisfies the record invariants.
func RestoreTaggedRecord(id uuid.UUID, name string, content Content, tags []string, createdAt, updatedAt time.Time) *TaggedRecord {
	r := &TaggedRecord{
		NamedEntity: NewNamedEntity(name),
		ID:          id,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		content:     content,
		tags:        make([]string, 0, len(tags)),
	}
	if r.content == nil {
		r.content = NewContent()
	}
	for _, t := range tags {
		r.AddTag(t)
	}
	return r
}

// Content returns the stored content. The returned map is the record's own;
// callers that intend to modify it should use Clone.
func (r *TaggedRecord) Content() Content {
	return r.content
}

// SetContent replaces the stored content wholesale. No merge is performed.
// Returns ErrInvalidContent for nil content and leaves the record unchanged.
func (r *TaggedRecord) SetContent(c Content) error {
	if c == nil {
		return ErrInvalidContent
	}
	r.content = c
	return nil
}

// Export returns a copy of the content with the record name stamped under
// ExportIDKey, replacing any existing value. The record is not modified.
func (r *TaggedRecord) Export() Content {
	out := r.content.Clone()
	if out == nil {
		out = NewContent()
	}
	out[ExportIDKey] = r.Name()
	return out
}

// AddTag appends tagID unless it is already present.
func (r *TaggedRecord) AddTag(tagID string) {
	if !slices.Contains(r.tags, tagID) {
		r.tags = append(r.tags, tagID)
	}
}

// RemoveTag removes tagID if present, preserving the order of the remaining tags.
func (r *TaggedRecord) RemoveTag(tagID string) {
	if i := slices.Index(r.tags, tagID); i >= 0 {
		r.tags = slices.Delete(r.tags, i, i+1)
	}
}

// HasTag reports whether tagID is currently in the tag set.
func (r *TaggedRecord) HasTag(tagID string) bool {
	return slices.Contains(r.tags, tagID)
}

// Tags returns a copy of the tags in insertion order. Never nil.
func (r *TaggedRecord) Tags() []string {
	if len(r.tags) == 0 {
		return []string{}
	}
	return slices.Clone(r.tags)
}
