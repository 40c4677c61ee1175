package posts

import "github.com/ss303/m3ssag1n8/internal/types"

// FieldPins is the Expectation field name for pin membership changes.
// Reaction expectations use the reaction kind itself as the field.
const FieldPins = "pins"

// Expectation describes the exact delta a locally issued mutation should
// produce when its echo returns on the stream: one user added to or removed
// from one membership set of one post.
type Expectation struct {
	Path  string
	Field string
	Add   bool
	Value string
}

// Decision is the outcome of attributing one stream delivery.
type Decision struct {
	Apply  bool
	Reason string
}

// Tracker correlates locally issued mutations with their stream echoes.
// Each local mutation registers its envelope before the request is sent;
// the matching delivery consumes it. Pending entries are bounded by the
// number of in-flight local mutations.
type Tracker struct {
	pending map[string]Expectation
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]Expectation)}
}

// Expect registers the delta a local mutation will produce, keyed by the
// envelope it was issued under.
func (t *Tracker) Expect(env types.Envelope, exp Expectation) {
	t.pending[env.ID()] = exp
}

// Forget drops a registered expectation, for mutations whose request failed
// and will never echo.
func (t *Tracker) Forget(env types.Envelope) {
	delete(t.pending, env.ID())
}

// Pending returns the number of unconsumed expectations.
func (t *Tracker) Pending() int { return len(t.pending) }

// Accept decides whether an incoming update is a genuinely new external
// change (apply), a harmless echo of a local action, or a duplicate
// delivery carrying no change (discard). current is nil when the post is
// not yet known, which always applies as a new post.
func (t *Tracker) Accept(current *types.Post, update types.Post, deliveryID string) Decision {
	if current == nil {
		return Decision{Apply: true, Reason: "new post"}
	}

	if env, ok := types.ParseEnvelope(deliveryID); ok {
		if exp, pending := t.pending[env.ID()]; pending && exp.Path == update.Path {
			delete(t.pending, env.ID())
			if matchesExpected(current, update, exp) {
				return Decision{Apply: false, Reason: "self-echo"}
			}
			// Our echo arrived carrying more than our own delta:
			// concurrent edits by other viewers rode along.
		}
	}

	if membershipChanged(current, update) {
		return Decision{Apply: true, Reason: "external change"}
	}
	return Decision{Apply: false, Reason: "no membership change"}
}

// matchesExpected reports whether update differs from current by exactly
// the registered delta, or not at all. Both cases mean the change is
// already rendered by the optimistic local application: when the echo
// outruns the local completion the delta is exactly the expected one, and
// when the optimistic application landed first the sets are identical.
func matchesExpected(current *types.Post, update types.Post, exp Expectation) bool {
	for _, kind := range types.ReactionKinds() {
		cur, upd := current.ReactionSet(kind), update.ReactionSet(kind)
		if exp.Field == string(kind) {
			if !deltaIsExpected(cur, upd, exp) {
				return false
			}
			continue
		}
		if !cur.Equal(upd) {
			return false
		}
	}
	cur, upd := current.PinnedBy, update.PinnedBy
	if exp.Field == FieldPins {
		return deltaIsExpected(cur, upd, exp)
	}
	return cur.Equal(upd)
}

func deltaIsExpected(cur, upd types.UserSet, exp Expectation) bool {
	added, removed := cur.Diff(upd)
	if len(added) == 0 && len(removed) == 0 {
		return true
	}
	if exp.Add {
		return len(removed) == 0 && len(added) == 1 && added[0] == exp.Value
	}
	return len(added) == 0 && len(removed) == 1 && removed[0] == exp.Value
}

// membershipChanged reports whether any reaction or pin set differs
// between the stored post and the incoming update.
func membershipChanged(current *types.Post, update types.Post) bool {
	for _, kind := range types.ReactionKinds() {
		if !current.ReactionSet(kind).Equal(update.ReactionSet(kind)) {
			return true
		}
	}
	return !current.PinnedBy.Equal(update.PinnedBy)
}
