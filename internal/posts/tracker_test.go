package posts

import (
	"testing"

	"github.com/ss303/m3ssag1n8/internal/types"
)

func trackedPost(likes ...string) types.Post {
	post := testPost("/A", "", 100)
	post.Reactions[types.ReactionLike] = types.NewUserSet(likes...)
	return post
}

func TestAcceptNewPostAlwaysApplies(t *testing.T) {
	tracker := NewTracker()
	decision := tracker.Accept(nil, trackedPost(), "whatever")
	if !decision.Apply {
		t.Fatalf("unknown path must apply: %s", decision.Reason)
	}
}

func TestAcceptAttributionRules(t *testing.T) {
	env := types.Envelope{Nonce: "n1", Actor: "alice"}

	tests := []struct {
		name      string
		current   types.Post
		update    types.Post
		delivery  string
		expect    *Expectation
		wantApply bool
	}{
		{
			name:      "self echo after optimistic application",
			current:   trackedPost("alice"),
			update:    trackedPost("alice"),
			delivery:  env.ID(),
			expect:    &Expectation{Path: "/A", Field: string(types.ReactionLike), Add: true, Value: "alice"},
			wantApply: false,
		},
		{
			name:      "self echo before optimistic application",
			current:   trackedPost(),
			update:    trackedPost("alice"),
			delivery:  env.ID(),
			expect:    &Expectation{Path: "/A", Field: string(types.ReactionLike), Add: true, Value: "alice"},
			wantApply: false,
		},
		{
			name:      "echo carrying concurrent edits applies",
			current:   trackedPost("alice"),
			update:    trackedPost("alice", "bob"),
			delivery:  env.ID(),
			expect:    &Expectation{Path: "/A", Field: string(types.ReactionLike), Add: true, Value: "alice"},
			wantApply: true,
		},
		{
			name:      "external change applies",
			current:   trackedPost("alice"),
			update:    trackedPost("alice", "bob"),
			delivery:  types.Envelope{Nonce: "n2", Actor: "bob"}.ID(),
			wantApply: true,
		},
		{
			name:      "duplicate delivery discards",
			current:   trackedPost("alice", "bob"),
			update:    trackedPost("alice", "bob"),
			delivery:  types.Envelope{Nonce: "n3", Actor: "bob"}.ID(),
			wantApply: false,
		},
		{
			name:      "keep-alive identical state discards",
			current:   trackedPost(),
			update:    trackedPost(),
			delivery:  "",
			wantApply: false,
		},
		{
			name:     "expected delta on wrong field applies",
			current:  trackedPost("alice"),
			update:   trackedPost("alice"),
			delivery: env.ID(),
			expect:   &Expectation{Path: "/A", Field: FieldPins, Add: true, Value: "alice"},
			// pins unchanged and reactions unchanged: nothing to apply
			wantApply: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker()
			if tt.expect != nil {
				tracker.Expect(env, *tt.expect)
			}
			current := tt.current
			decision := tracker.Accept(&current, tt.update, tt.delivery)
			if decision.Apply != tt.wantApply {
				t.Fatalf("apply=%v (%s), want %v", decision.Apply, decision.Reason, tt.wantApply)
			}
		})
	}
}

func TestAcceptConsumesExpectationOnce(t *testing.T) {
	tracker := NewTracker()
	env := types.Envelope{Nonce: "n1", Actor: "alice"}
	tracker.Expect(env, Expectation{Path: "/A", Field: string(types.ReactionLike), Add: true, Value: "alice"})

	current := trackedPost("alice")
	tracker.Accept(&current, trackedPost("alice"), env.ID())
	if tracker.Pending() != 0 {
		t.Fatalf("expectation not consumed")
	}

	// A replayed delivery with the same id is now judged on content alone.
	decision := tracker.Accept(&current, trackedPost("alice"), env.ID())
	if decision.Apply {
		t.Fatalf("replayed identical delivery must discard")
	}
}

func TestAcceptExpectationForOtherPathNotConsumed(t *testing.T) {
	tracker := NewTracker()
	env := types.Envelope{Nonce: "n1", Actor: "alice"}
	tracker.Expect(env, Expectation{Path: "/B", Field: string(types.ReactionLike), Add: true, Value: "alice"})

	current := trackedPost()
	decision := tracker.Accept(&current, trackedPost("bob"), env.ID())
	if !decision.Apply {
		t.Fatalf("delivery for a different post must be judged on content")
	}
	if tracker.Pending() != 1 {
		t.Fatalf("expectation for another path must stay pending")
	}
}

func TestForgetDropsExpectation(t *testing.T) {
	tracker := NewTracker()
	env := types.Envelope{Nonce: "n1", Actor: "alice"}
	tracker.Expect(env, Expectation{Path: "/A", Field: FieldPins, Add: true, Value: "alice"})
	tracker.Forget(env)
	if tracker.Pending() != 0 {
		t.Fatalf("forget must drop the pending expectation")
	}
}

func TestPinEchoSuppression(t *testing.T) {
	tracker := NewTracker()
	env := types.Envelope{Nonce: "n1", Actor: "alice"}
	tracker.Expect(env, Expectation{Path: "/A", Field: FieldPins, Add: true, Value: "alice"})

	current := testPost("/A", "", 100)
	current.PinnedBy = types.NewUserSet("alice")

	update := testPost("/A", "", 100)
	update.PinnedBy = types.NewUserSet("alice")

	decision := tracker.Accept(&current, update, env.ID())
	if decision.Apply {
		t.Fatalf("pin self-echo must be discarded: %s", decision.Reason)
	}
}
