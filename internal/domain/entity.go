// Package domain contains the core data types for the workspace contents
// service. This package has zero external dependencies apart from uuid and is
// imported by every other internal package (repo, service, handler).
package domain

// NamedEntity carries the immutable name shared by every named resource.
// The name is fixed at construction; there is no setter.
type NamedEntity struct {
	name string
}

// NewNamedEntity returns a NamedEntity with the given name.
func NewNamedEntity(name string) NamedEntity {
	return NamedEntity{name: name}
}

// Name returns the entity's name.
func (e NamedEntity) Name() string {
	return e.name
}

// Named is implemented by anything identified by a name.
type Named interface {
	Name() string
}

// Exportable is implemented by resources that can hand a serializable value
// to an external writer.
type Exportable interface {
	Export() Content
}

// Taggable is implemented by resources holding an ordered set of tag ids.
type Taggable interface {
	AddTag(tagID string)
	RemoveTag(tagID string)
	HasTag(tagID string) bool
	Tags() []string
}
