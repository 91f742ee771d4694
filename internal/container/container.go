// Package container defines the interfaces the convention engine expects
// from a hierarchical, attribute-bearing container (an HDF5-style file of
// groups, datasets, and attributes).
//
// The engine never performs container I/O itself. It consumes these
// interfaces as opaque capabilities: create a group, create a dataset,
// read and write attributes on any node, and delete a node again when
// attribute validation fails after structural creation. Any backend that
// satisfies them (a real HDF5 binding, the in-memory implementation in
// package memcontainer, ...) can be driven by the binding interceptor.
package container

// Kind distinguishes the node variants of the hierarchy.
type Kind int

const (
	// KindRoot is the container root node.
	KindRoot Kind = iota
	// KindGroup is an interior group node.
	KindGroup
	// KindDataset is a leaf dataset node.
	KindDataset
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindGroup:
		return "group"
	case KindDataset:
		return "dataset"
	default:
		return "unknown"
	}
}

// Node is a single addressable object in the hierarchy: the root, a group,
// or a dataset. Attribute access is string-keyed; values are kept as the
// backend stored them.
type Node interface {
	// Name returns the link name of the node within its parent ("" for root).
	Name() string

	// Path returns the absolute slash-separated path of the node.
	Path() string

	// Kind reports whether the node is the root, a group, or a dataset.
	Kind() Kind

	// SetAttr writes or overwrites a single attribute on the node.
	SetAttr(name string, value any) error

	// GetAttr reads a single attribute. The second result is false when the
	// attribute does not exist.
	GetAttr(name string) (any, bool)

	// HasAttr reports whether the attribute exists on the node.
	HasAttr(name string) bool

	// Attrs returns the attribute names present on the node, sorted.
	Attrs() []string
}

// Group is a node that can hold children. The container root is a Group.
type Group interface {
	Node

	// CreateGroup creates a child group with the given link name.
	CreateGroup(name string) (Group, error)

	// CreateDataset creates a child dataset with the given link name and
	// shape. Data, chunking, and compression are backend concerns and out
	// of scope here.
	CreateDataset(name string, shape []int) (Dataset, error)

	// Delete removes the direct child with the given link name. Used by the
	// binding interceptor to roll back a node whose mandatory metadata
	// failed validation after structural creation.
	Delete(name string) error
}

// Dataset is a leaf node carrying array data. The engine only touches its
// attributes.
type Dataset interface {
	Node

	// Shape returns the dataset extent per dimension.
	Shape() []int
}

// Container is the root capability handed to the binding interceptor.
type Container interface {
	// Root returns the root group of the hierarchy.
	Root() Group
}
