package posts

import (
	"errors"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// Partition names one of the two disjoint views of a channel's posts.
type Partition string

const (
	PartitionGeneral Partition = "general"
	PartitionPinned  Partition = "pinned"
)

var (
	// ErrUnknownPath is returned when an operation names a post the index
	// has never seen.
	ErrUnknownPath = errors.New("unknown post path")
	// ErrUnknownParent is returned when an incoming post replies to a
	// parent the index has never seen. The update must be dropped.
	ErrUnknownParent = errors.New("unknown parent path")
)

// Index is the tree store for one viewed channel. Every known post lives in
// exactly one of the two path→node maps. Root sequences are kept ordered:
// general by CreatedAt, pinned by LastModifiedAt, both ascending. Pin status
// cascades: a post is in the pinned partition when the viewer pinned it or
// when any ancestor placed its subtree there.
//
// The index is not safe for concurrent use; all mutation happens on the one
// event loop driving the client.
type Index struct {
	viewer       string
	general      map[string]*Node
	pinned       map[string]*Node
	generalRoots []*Node
	pinnedRoots  []*Node
}

// NewIndex creates an empty index partitioned for the given viewer.
func NewIndex(viewer string) *Index {
	idx := &Index{viewer: viewer}
	idx.Clear()
	return idx
}

// Clear discards all known posts.
func (idx *Index) Clear() {
	idx.general = make(map[string]*Node)
	idx.pinned = make(map[string]*Node)
	idx.generalRoots = nil
	idx.pinnedRoots = nil
}

// Viewer returns the username the pinned partition is computed for.
func (idx *Index) Viewer() string { return idx.viewer }

// Len returns the number of known posts.
func (idx *Index) Len() int { return len(idx.general) + len(idx.pinned) }

// GeneralRoots returns the root-level general posts, CreatedAt ascending.
// The returned slice is owned by the index; callers must not mutate it.
func (idx *Index) GeneralRoots() []*Node { return idx.generalRoots }

// PinnedRoots returns the pinned subtree roots, LastModifiedAt ascending.
func (idx *Index) PinnedRoots() []*Node { return idx.pinnedRoots }

// Lookup returns the node for path from either partition.
func (idx *Index) Lookup(path string) (*Node, bool) {
	node, _, ok := idx.lookup(path)
	return node, ok
}

// PartitionOf reports which partition currently holds path.
func (idx *Index) PartitionOf(path string) (Partition, bool) {
	_, part, ok := idx.lookup(path)
	return part, ok
}

func (idx *Index) lookup(path string) (*Node, Partition, bool) {
	if node, ok := idx.general[path]; ok {
		return node, PartitionGeneral, true
	}
	if node, ok := idx.pinned[path]; ok {
		return node, PartitionPinned, true
	}
	return nil, "", false
}

// Apply reconciles one validated incoming post into the index. An unknown
// path inserts a new node; a known path only refreshes reactions, pin
// membership, and LastModifiedAt (message and position are immutable under
// reaction changes). A pin membership change relocates the subtree between
// partitions. Returns ErrUnknownParent when a reply names a parent the
// index has never seen; the index is left untouched in that case.
func (idx *Index) Apply(post types.Post) (*Node, error) {
	if node, part, ok := idx.lookup(post.Path); ok {
		idx.updateExisting(node, part, post)
		return node, nil
	}
	return idx.insertNew(post)
}

func (idx *Index) updateExisting(node *Node, part Partition, post types.Post) {
	wasPinned := node.Post.PinnedBy.Has(idx.viewer)
	node.Post.Reactions = post.Reactions
	node.Post.PinnedBy = post.PinnedBy
	node.Post.LastModifiedAt = post.LastModifiedAt

	nowPinned := node.Post.PinnedBy.Has(idx.viewer)
	if wasPinned == nowPinned {
		return
	}
	// The viewer's own pin membership changed; TogglePin decides whether
	// partition placement follows or an ancestor's cascade holds it.
	_ = idx.TogglePin(node.Post.Path, wasPinned)
}

func (idx *Index) insertNew(post types.Post) (*Node, error) {
	node := newNode(post)
	if post.Parent == "" {
		pinnedNow := post.PinnedBy.Has(idx.viewer)
		idx.insertRoot(node, pinnedNow)
		idx.mapFor(pinnedNow)[post.Path] = node
		return node, nil
	}

	parent, parentPart, ok := idx.lookup(post.Parent)
	if !ok {
		return nil, ErrUnknownParent
	}
	parent.insertChild(node)
	idx.mapFor(parentPart == PartitionPinned)[post.Path] = node

	// A reply already pinned by the viewer forms its own pinned subtree
	// unless the parent's subtree has it covered.
	if parentPart == PartitionGeneral && post.PinnedBy.Has(idx.viewer) {
		_ = idx.TogglePin(post.Path, false)
	}
	return node, nil
}

// TogglePin moves the node at path and its entire reply subtree between
// the general and pinned partitions. Descendants keep their relative tree
// positions; only the subtree root is re-seated, by LastModifiedAt in the
// pinned root sequence or by CreatedAt back in its original spot. The
// two maps are updated within this single call so no read can observe a
// post in both or neither partition.
func (idx *Index) TogglePin(path string, previouslyPinned bool) error {
	node, part, ok := idx.lookup(path)
	if !ok {
		return ErrUnknownPath
	}

	if !previouslyPinned {
		if part == PartitionPinned {
			return nil
		}
		idx.detach(node, PartitionGeneral)
		node.walk(func(n *Node) {
			delete(idx.general, n.Post.Path)
			idx.pinned[n.Post.Path] = n
		})
		idx.pinnedRoots = insertOrdered(idx.pinnedRoots, node, byLastModified)
		return nil
	}

	if part == PartitionGeneral {
		return nil
	}
	// Ancestor cascade still holds the subtree pinned; the viewer's own
	// membership change alone does not relocate it. A node that had been
	// detached as its own pinned root folds back under the pinned parent,
	// so the parent's eventual unpin cascade carries it along rather than
	// leaving it stranded in the pinned partition.
	if idx.parentPinned(node.Post.Parent) {
		if hasRoot(idx.pinnedRoots, node.Post.Path) {
			idx.pinnedRoots = removeFromRoots(idx.pinnedRoots, node.Post.Path)
			if parent, _, ok := idx.lookup(node.Post.Parent); ok {
				parent.insertChild(node)
			}
		}
		return nil
	}
	idx.detach(node, PartitionPinned)
	node.walk(func(n *Node) {
		delete(idx.pinned, n.Post.Path)
		idx.general[n.Post.Path] = n
	})
	if parent, _, ok := idx.lookup(node.Post.Parent); ok && node.Post.Parent != "" {
		parent.insertChild(node)
	} else {
		idx.generalRoots = insertOrdered(idx.generalRoots, node, before)
	}
	return nil
}

// detach removes node from whatever currently owns its position: the
// parent's child list or a root sequence.
func (idx *Index) detach(node *Node, part Partition) {
	if node.Post.Parent != "" {
		if parent, _, ok := idx.lookup(node.Post.Parent); ok {
			if parent.removeChild(node.Post.Path) != nil {
				return
			}
		}
	}
	if part == PartitionPinned {
		idx.pinnedRoots = removeFromRoots(idx.pinnedRoots, node.Post.Path)
		return
	}
	idx.generalRoots = removeFromRoots(idx.generalRoots, node.Post.Path)
}

func (idx *Index) insertRoot(node *Node, pinned bool) {
	if pinned {
		idx.pinnedRoots = insertOrdered(idx.pinnedRoots, node, byLastModified)
		return
	}
	idx.generalRoots = insertOrdered(idx.generalRoots, node, before)
}

func (idx *Index) mapFor(pinned bool) map[string]*Node {
	if pinned {
		return idx.pinned
	}
	return idx.general
}

func (idx *Index) parentPinned(parent string) bool {
	if parent == "" {
		return false
	}
	_, ok := idx.pinned[parent]
	return ok
}

func byLastModified(a, b *Node) bool {
	if a.Post.LastModifiedAt != b.Post.LastModifiedAt {
		return a.Post.LastModifiedAt < b.Post.LastModifiedAt
	}
	return a.Post.Path < b.Post.Path
}

func insertOrdered(roots []*Node, node *Node, less func(a, b *Node) bool) []*Node {
	idx := len(roots)
	for i, existing := range roots {
		if less(node, existing) {
			idx = i
			break
		}
	}
	roots = append(roots, nil)
	copy(roots[idx+1:], roots[idx:])
	roots[idx] = node
	return roots
}

func hasRoot(roots []*Node, path string) bool {
	for _, node := range roots {
		if node.Post.Path == path {
			return true
		}
	}
	return false
}

func removeFromRoots(roots []*Node, path string) []*Node {
	for i, node := range roots {
		if node.Post.Path == path {
			return append(roots[:i], roots[i+1:]...)
		}
	}
	return roots
}
