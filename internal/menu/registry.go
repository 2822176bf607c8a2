package menu

import "strings"

// Node represents a menu entry definition within the registry tree.
type Node struct {
	ID       string
	Loader   Loader
	Action   Action
	Children map[string]*Node
}

// Registry exposes lookup utilities for menu definitions.
type Registry struct {
	root  *Node
	nodes map[string]*Node
}

// BuildRegistry constructs the registry from the loader and handler maps.
func BuildRegistry() *Registry {
	nodes := make(map[string]*Node)

	ensure := func(id string) *Node {
		if node, ok := nodes[id]; ok {
			return node
		}
		node := &Node{ID: id, Children: make(map[string]*Node)}
		nodes[id] = node
		return node
	}

	root := ensure("root")
	root.Loader = func(ctx Context) ([]Item, error) { return RootItems(ctx), nil }

	for id, loader := range CategoryLoaders() {
		ensure(id).Loader = loader
	}
	for id, action := range ActionHandlers() {
		ensure(id).Action = action
	}

	for id, node := range nodes {
		if id == "root" {
			continue
		}
		parentID, key := parentKey(id)
		ensure(parentID).Children[key] = node
	}

	return &Registry{root: root, nodes: nodes}
}

// Root returns the registry root node.
func (r *Registry) Root() *Node {
	return r.root
}

// Find locates a node by ID.
func (r *Registry) Find(id string) (*Node, bool) {
	node, ok := r.nodes[id]
	return node, ok
}

// Child resolves a child node under the given parent for the provided key.
func (r *Registry) Child(parentID, key string) (*Node, bool) {
	parent, ok := r.nodes[parentID]
	if !ok {
		return nil, false
	}
	node, ok := parent.Children[key]
	return node, ok
}

// Resolve decides what choosing item on the level parentID does: a child
// with a loader opens a submenu, a child with an action runs it, and
// otherwise the parent's own action is applied to the item.
func (r *Registry) Resolve(parentID string, item Item) (*Node, bool) {
	if child, ok := r.Child(parentID, item.ID); ok && (child.Loader != nil || child.Action != nil) {
		return child, true
	}
	if parent, ok := r.nodes[parentID]; ok && parent.Action != nil {
		return parent, true
	}
	return nil, false
}

func parentKey(id string) (string, string) {
	if id == "" {
		return "root", ""
	}
	if !strings.Contains(id, ":") {
		return "root", id
	}
	idx := strings.LastIndex(id, ":")
	return id[:idx], id[idx+1:]
}
