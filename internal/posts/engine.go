package posts

import (
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// Engine is the post synchronization and reconciliation engine for one
// viewed channel. It owns the tree store and the attribution tracker, and
// exposes the mutation primitives used by both optimistic local calls and
// stream-driven deliveries. All methods must run on a single event loop;
// the engine performs no locking.
type Engine struct {
	workspace string
	channel   string
	index     *Index
	tracker   *Tracker
	now       func() int64
}

// NewEngine creates an engine partitioning posts for the given viewer.
func NewEngine(viewer string) *Engine {
	return &Engine{
		index:   NewIndex(viewer),
		tracker: NewTracker(),
		now:     func() int64 { return time.Now().UnixMilli() },
	}
}

// Viewer returns the username the pinned partition is computed for.
func (e *Engine) Viewer() string { return e.index.Viewer() }

// Workspace returns the workspace of the currently displayed channel.
func (e *Engine) Workspace() string { return e.workspace }

// Channel returns the currently displayed channel.
func (e *Engine) Channel() string { return e.channel }

// GeneralRoots returns the root-level general posts, CreatedAt ascending.
func (e *Engine) GeneralRoots() []*Node { return e.index.GeneralRoots() }

// PinnedRoots returns the pinned subtree roots, LastModifiedAt ascending.
func (e *Engine) PinnedRoots() []*Node { return e.index.PinnedRoots() }

// Lookup returns the node for path, if known.
func (e *Engine) Lookup(path string) (*Node, bool) { return e.index.Lookup(path) }

// Len returns the number of known posts.
func (e *Engine) Len() int { return e.index.Len() }

// Clear discards all channel state, e.g. on session teardown.
func (e *Engine) Clear() {
	e.workspace = ""
	e.channel = ""
	e.index.Clear()
	e.tracker = NewTracker()
}

// DisplayAllPosts rebuilds the full tree store and partitions for a channel
// from a snapshot. Documents are applied oldest-first so parents exist
// before their replies; a reply whose parent is missing from the snapshot
// is a store-side defect and is dropped.
func (e *Engine) DisplayAllPosts(workspace, channel string, docs []types.Document) {
	e.workspace = workspace
	e.channel = channel
	e.index.Clear()

	ordered := make([]types.Document, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Meta.CreatedAt != ordered[j].Meta.CreatedAt {
			return ordered[i].Meta.CreatedAt < ordered[j].Meta.CreatedAt
		}
		return ordered[i].Path < ordered[j].Path
	})
	for _, doc := range ordered {
		if _, err := e.index.Apply(types.FromDocument(doc)); err != nil {
			log.Warnf("[reconcile] dropping snapshot post %s: %v", doc.Path, err)
		}
	}
}

// UpdatePosts feeds one incoming stream document through attribution and
// reconciliation. It reports whether the update changed the tree store.
func (e *Engine) UpdatePosts(doc types.Document, deliveryID string) bool {
	update := types.FromDocument(doc)

	var current *types.Post
	if node, ok := e.index.Lookup(update.Path); ok {
		current = &node.Post
	}

	decision := e.tracker.Accept(current, update, deliveryID)
	if !decision.Apply {
		log.Debugf("[reconcile] discarding delivery for %s: %s", update.Path, decision.Reason)
		return false
	}

	if _, err := e.index.Apply(update); err != nil {
		// Unknown parent means delivery ordering broke upstream; keep
		// the last-known-consistent tree rather than a partial insert.
		log.Warnf("[reconcile] dropping update for %s: %v", update.Path, err)
		return false
	}
	return true
}

// AddPost applies the locally-returned document of an optimistic create.
func (e *Engine) AddPost(doc types.Document) error {
	if _, err := e.index.Apply(types.FromDocument(doc)); err != nil {
		return fmt.Errorf("add post %s: %w", doc.Path, err)
	}
	return nil
}

// UpdateReactions applies a locally confirmed optimistic reaction toggle.
// previouslyReacted selects the direction: true removes the viewer from the
// set, false adds them. The node keeps its position among siblings.
func (e *Engine) UpdateReactions(path string, kind types.ReactionKind, previouslyReacted bool) error {
	if !types.ValidReaction(kind) {
		return fmt.Errorf("unsupported reaction %q", kind)
	}
	node, ok := e.index.Lookup(path)
	if !ok {
		return fmt.Errorf("update reactions %s: %w", path, ErrUnknownPath)
	}
	set := node.Post.Reactions[kind]
	if set == nil {
		set = types.UserSet{}
		node.Post.Reactions[kind] = set
	}
	if previouslyReacted {
		set.Remove(e.Viewer())
	} else {
		set.Add(e.Viewer())
	}
	node.Post.LastModifiedAt = e.now()
	return nil
}

// TogglePin applies a locally confirmed optimistic pin toggle for the
// viewer, relocating the subtree between partitions.
func (e *Engine) TogglePin(path string, previouslyPinned bool) error {
	node, ok := e.index.Lookup(path)
	if !ok {
		return fmt.Errorf("toggle pin %s: %w", path, ErrUnknownPath)
	}
	if previouslyPinned {
		node.Post.PinnedBy.Remove(e.Viewer())
	} else {
		node.Post.PinnedBy.Add(e.Viewer())
	}
	node.Post.LastModifiedAt = e.now()
	if err := e.index.TogglePin(path, previouslyPinned); err != nil {
		return fmt.Errorf("toggle pin %s: %w", path, err)
	}
	return nil
}

// ExpectReaction registers the echo a local reaction toggle will produce.
func (e *Engine) ExpectReaction(env types.Envelope, path string, kind types.ReactionKind, previouslyReacted bool) {
	e.tracker.Expect(env, Expectation{
		Path:  path,
		Field: string(kind),
		Add:   !previouslyReacted,
		Value: env.Actor,
	})
}

// ExpectPin registers the echo a local pin toggle will produce.
func (e *Engine) ExpectPin(env types.Envelope, path string, previouslyPinned bool) {
	e.tracker.Expect(env, Expectation{
		Path:  path,
		Field: FieldPins,
		Add:   !previouslyPinned,
		Value: env.Actor,
	})
}

// ForgetExpectation drops a registered echo for a mutation whose request
// failed and will never round-trip.
func (e *Engine) ForgetExpectation(env types.Envelope) {
	e.tracker.Forget(env)
}

// IsErrUnknownParent reports whether err is the reconciler's unknown-parent
// defect, which callers absorb rather than surface.
func IsErrUnknownParent(err error) bool {
	return errors.Is(err, ErrUnknownParent)
}
