package posts

import "github.com/ss303/m3ssag1n8/internal/types"

// Node wraps a post with its ordered replies. The node is the sole
// definitive state for its path; a parent exclusively owns the node's
// position in its child list.
type Node struct {
	Post     types.Post
	Children []*Node
}

func newNode(post types.Post) *Node {
	return &Node{Post: post}
}

// before orders nodes by CreatedAt ascending with path as tiebreak.
func before(a, b *Node) bool {
	if a.Post.CreatedAt != b.Post.CreatedAt {
		return a.Post.CreatedAt < b.Post.CreatedAt
	}
	return a.Post.Path < b.Post.Path
}

// insertChild places child in the reply list preserving CreatedAt order.
func (n *Node) insertChild(child *Node) {
	idx := len(n.Children)
	for i, existing := range n.Children {
		if before(child, existing) {
			idx = i
			break
		}
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = child
}

// removeChild detaches and returns the child at path, or nil.
func (n *Node) removeChild(path string) *Node {
	for i, child := range n.Children {
		if child.Post.Path == path {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return child
		}
	}
	return nil
}

// walk visits n and every descendant in depth-first order.
func (n *Node) walk(visit func(*Node)) {
	visit(n)
	for _, child := range n.Children {
		child.walk(visit)
	}
}
