// Package memcontainer provides an ephemeral, thread-safe, in-memory
// implementation of the container interfaces.
//
// It backs the test suites and the CLI dry-run mode, where a convention
// must be exercised against a real node hierarchy without touching an
// actual HDF5 file. Every node carries a uuid object token, mirroring the
// object identifiers of on-disk containers.
//
// An RWMutex per container guards the whole tree. The engine's create path
// is call-and-return and attribute maps are small, so fine-grained locking
// would buy nothing here.
package memcontainer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/matthiasprobst/hdfconv/internal/container"
)

// Container is the in-memory container root.
type Container struct {
	mu   sync.RWMutex
	root *node
}

// New creates an empty in-memory container with a root group.
func New() *Container {
	c := &Container{}
	c.root = &node{
		c:        c,
		kind:     container.KindRoot,
		path:     "/",
		attrs:    map[string]any{},
		children: map[string]*node{},
		token:    uuid.New(),
	}
	return c
}

// Root returns the root group.
func (c *Container) Root() container.Group {
	return c.root
}

// node is a single in-memory tree node. It implements container.Group for
// root and group kinds and container.Dataset for dataset kinds.
type node struct {
	c        *Container
	name     string
	path     string
	kind     container.Kind
	shape    []int
	attrs    map[string]any
	children map[string]*node
	token    uuid.UUID
}

// Name returns the link name of the node ("" for root).
func (n *node) Name() string { return n.name }

// Path returns the absolute slash-separated path.
func (n *node) Path() string { return n.path }

// Kind reports the node variant.
func (n *node) Kind() container.Kind { return n.kind }

// Token returns the object identifier assigned at creation.
func (n *node) Token() uuid.UUID { return n.token }

// SetAttr writes or overwrites a single attribute.
func (n *node) SetAttr(name string, value any) error {
	n.c.mu.Lock()
	defer n.c.mu.Unlock()
	n.attrs[name] = value
	return nil
}

// GetAttr reads a single attribute.
func (n *node) GetAttr(name string) (any, bool) {
	n.c.mu.RLock()
	defer n.c.mu.RUnlock()
	v, ok := n.attrs[name]
	return v, ok
}

// HasAttr reports whether the attribute exists.
func (n *node) HasAttr(name string) bool {
	_, ok := n.GetAttr(name)
	return ok
}

// Attrs returns the attribute names present on the node, sorted.
func (n *node) Attrs() []string {
	n.c.mu.RLock()
	defer n.c.mu.RUnlock()
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shape returns the dataset extent per dimension (nil for groups).
func (n *node) Shape() []int { return n.shape }

// childPath joins a child link name onto this node's path.
func (n *node) childPath(name string) string {
	if n.path == "/" {
		return "/" + name
	}
	return n.path + "/" + name
}

// CreateGroup creates a child group.
func (n *node) CreateGroup(name string) (container.Group, error) {
	child, err := n.createChild(name, container.KindGroup, nil)
	if err != nil {
		return nil, err
	}
	return child, nil
}

// CreateDataset creates a child dataset with the given shape.
func (n *node) CreateDataset(name string, shape []int) (container.Dataset, error) {
	child, err := n.createChild(name, container.KindDataset, shape)
	if err != nil {
		return nil, err
	}
	return child, nil
}

func (n *node) createChild(name string, kind container.Kind, shape []int) (*node, error) {
	if name == "" {
		return nil, fmt.Errorf("cannot create %s with empty name under %q", kind, n.path)
	}
	n.c.mu.Lock()
	defer n.c.mu.Unlock()

	if n.kind == container.KindDataset {
		return nil, fmt.Errorf("cannot create %s under dataset %q", kind, n.path)
	}
	if _, exists := n.children[name]; exists {
		return nil, fmt.Errorf("name %q already exists under %q", name, n.path)
	}

	child := &node{
		c:     n.c,
		name:  name,
		path:  n.childPath(name),
		kind:  kind,
		shape: shape,
		attrs: map[string]any{},
		token: uuid.New(),
	}
	if kind != container.KindDataset {
		child.children = map[string]*node{}
	}
	n.children[name] = child
	return child, nil
}

// Delete removes a direct child link.
func (n *node) Delete(name string) error {
	n.c.mu.Lock()
	defer n.c.mu.Unlock()
	if _, exists := n.children[name]; !exists {
		return fmt.Errorf("no child %q under %q", name, n.path)
	}
	delete(n.children, name)
	return nil
}

// Children returns the link names of the node's children, sorted. Exposed
// for tests and the CLI dry-run report.
func (n *node) Children() []string {
	n.c.mu.RLock()
	defer n.c.mu.RUnlock()
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
