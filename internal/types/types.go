package types

import "strings"

// ReactionKind identifies one of the reaction emoji a post can carry.
type ReactionKind string

const (
	ReactionSmile     ReactionKind = ":smile:"
	ReactionLike      ReactionKind = ":like:"
	ReactionFrown     ReactionKind = ":frown:"
	ReactionCelebrate ReactionKind = ":celebrate:"
)

// ReactionKinds returns every supported reaction in display order.
func ReactionKinds() []ReactionKind {
	return []ReactionKind{ReactionSmile, ReactionLike, ReactionFrown, ReactionCelebrate}
}

// ValidReaction reports whether kind is one of the supported reactions.
func ValidReaction(kind ReactionKind) bool {
	switch kind {
	case ReactionSmile, ReactionLike, ReactionFrown, ReactionCelebrate:
		return true
	}
	return false
}

// UserSet is a set of usernames with O(1) membership tests.
type UserSet map[string]struct{}

// NewUserSet builds a set from the given usernames.
func NewUserSet(users ...string) UserSet {
	set := make(UserSet, len(users))
	for _, user := range users {
		set[user] = struct{}{}
	}
	return set
}

// Has reports whether user is a member.
func (s UserSet) Has(user string) bool {
	_, ok := s[user]
	return ok
}

// Add inserts user into the set.
func (s UserSet) Add(user string) {
	s[user] = struct{}{}
}

// Remove deletes user from the set.
func (s UserSet) Remove(user string) {
	delete(s, user)
}

// Clone returns an independent copy of the set.
func (s UserSet) Clone() UserSet {
	copied := make(UserSet, len(s))
	for user := range s {
		copied[user] = struct{}{}
	}
	return copied
}

// Equal reports whether both sets have exactly the same members.
func (s UserSet) Equal(other UserSet) bool {
	if len(s) != len(other) {
		return false
	}
	for user := range s {
		if !other.Has(user) {
			return false
		}
	}
	return true
}

// Diff returns the members added and removed going from s to other.
func (s UserSet) Diff(other UserSet) (added, removed []string) {
	for user := range other {
		if !s.Has(user) {
			added = append(added, user)
		}
	}
	for user := range s {
		if !other.Has(user) {
			removed = append(removed, user)
		}
	}
	return added, removed
}

// Post is the definitive client-side state for one message in a channel.
// Message, Creator, and CreatedAt are write-once; Reactions, PinnedBy, and
// LastModifiedAt mutate over the post's life.
type Post struct {
	Path           string
	Message        string
	Creator        string
	CreatedAt      int64
	Parent         string
	Reactions      map[ReactionKind]UserSet
	PinnedBy       UserSet
	LastModifiedAt int64
}

// NewReactions returns an empty reaction table covering every kind.
func NewReactions() map[ReactionKind]UserSet {
	reactions := make(map[ReactionKind]UserSet, 4)
	for _, kind := range ReactionKinds() {
		reactions[kind] = UserSet{}
	}
	return reactions
}

// ReactionSet returns the member set for kind, never nil.
func (p *Post) ReactionSet(kind ReactionKind) UserSet {
	if p.Reactions == nil {
		return UserSet{}
	}
	if set, ok := p.Reactions[kind]; ok {
		return set
	}
	return UserSet{}
}

// HasReacted reports whether user currently has the given reaction on p.
func (p *Post) HasReacted(kind ReactionKind, user string) bool {
	return p.ReactionSet(kind).Has(user)
}

// IsPinnedBy reports whether user has pinned p.
func (p *Post) IsPinnedBy(user string) bool {
	return p.PinnedBy.Has(user)
}

// Meta carries the store-maintained metadata of a document.
type Meta struct {
	CreatedBy      string `json:"createdBy"`
	CreatedAt      int64  `json:"createdAt"`
	LastModifiedBy string `json:"lastModifiedBy"`
	LastModifiedAt int64  `json:"lastModifiedAt"`
}

// Extensions holds client-defined document extensions.
type Extensions struct {
	Pins []string `json:"pins,omitempty"`
}

// Doc is the wire body of a post document.
type Doc struct {
	Msg        string              `json:"msg"`
	Parent     string              `json:"parent,omitempty"`
	Reactions  map[string][]string `json:"reactions,omitempty"`
	Extensions *Extensions         `json:"extensions,omitempty"`
}

// Document is one `{path, doc, meta}` record as served by the store.
type Document struct {
	Path string `json:"path"`
	Doc  Doc    `json:"doc"`
	Meta Meta   `json:"meta"`
}

// Name returns the last path segment of the document path.
func (d Document) Name() string {
	trimmed := strings.TrimSuffix(d.Path, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// FromDocument converts a wire document into the client Post model.
func FromDocument(d Document) Post {
	post := Post{
		Path:           d.Path,
		Message:        d.Doc.Msg,
		Creator:        d.Meta.CreatedBy,
		CreatedAt:      d.Meta.CreatedAt,
		Parent:         d.Doc.Parent,
		Reactions:      NewReactions(),
		PinnedBy:       UserSet{},
		LastModifiedAt: d.Meta.LastModifiedAt,
	}
	for name, users := range d.Doc.Reactions {
		kind := ReactionKind(name)
		if !ValidReaction(kind) {
			continue
		}
		post.Reactions[kind] = NewUserSet(users...)
	}
	if d.Doc.Extensions != nil {
		post.PinnedBy = NewUserSet(d.Doc.Extensions.Pins...)
	}
	return post
}

// Patch operation kinds understood by the store.
const (
	PatchArrayAdd    = "ArrayAdd"
	PatchArrayRemove = "ArrayRemove"
)

// PatchOp is one operation in an ordered document patch.
type PatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// PatchResult is the store's acknowledgement of a patch.
type PatchResult struct {
	URI         string `json:"uri"`
	PatchFailed bool   `json:"patchFailed"`
	Message     string `json:"message"`
}

// Envelope correlates a locally issued mutation with its eventual echo on
// the subscription stream. It travels as a structured (nonce, actor) pair,
// never as a sliced suffix of some other identifier.
type Envelope struct {
	Nonce string
	Actor string
}

// envelopeSep separates nonce from actor in the encoded form. Nonces are
// UUIDs, so the separator cannot appear inside one.
const envelopeSep = "|"

// ID encodes the envelope into the delivery-identifier form.
func (e Envelope) ID() string {
	if e.Nonce == "" && e.Actor == "" {
		return ""
	}
	return e.Nonce + envelopeSep + e.Actor
}

// ParseEnvelope decodes a delivery identifier back into an envelope.
// The second return is false when id does not carry an envelope.
func ParseEnvelope(id string) (Envelope, bool) {
	idx := strings.Index(id, envelopeSep)
	if idx <= 0 {
		return Envelope{}, false
	}
	return Envelope{Nonce: id[:idx], Actor: id[idx+1:]}, true
}
