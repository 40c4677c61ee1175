package types

import "testing"

func TestEnvelopeRoundTrip(t *testing.T) {
	env := Envelope{Nonce: "5f3c9a", Actor: "alice"}
	parsed, ok := ParseEnvelope(env.ID())
	if !ok {
		t.Fatalf("expected envelope to parse")
	}
	if parsed != env {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestEnvelopeActorMayContainSeparator(t *testing.T) {
	// Only the first separator splits, so actors with odd characters
	// survive the trip.
	env := Envelope{Nonce: "n1", Actor: "we|rd"}
	parsed, ok := ParseEnvelope(env.ID())
	if !ok || parsed.Actor != "we|rd" {
		t.Fatalf("actor mangled: %+v", parsed)
	}
}

func TestParseEnvelopeRejectsPlainIDs(t *testing.T) {
	for _, id := range []string{"", "12345", "|actor"} {
		if _, ok := ParseEnvelope(id); ok {
			t.Fatalf("id %q must not parse as an envelope", id)
		}
	}
}

func TestUserSetDiff(t *testing.T) {
	tests := []struct {
		name        string
		from, to    UserSet
		wantAdded   int
		wantRemoved int
	}{
		{"identical", NewUserSet("a", "b"), NewUserSet("a", "b"), 0, 0},
		{"addition", NewUserSet("a"), NewUserSet("a", "b"), 1, 0},
		{"removal", NewUserSet("a", "b"), NewUserSet("a"), 0, 1},
		{"swap", NewUserSet("a"), NewUserSet("b"), 1, 1},
		{"both empty", UserSet{}, UserSet{}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := tt.from.Diff(tt.to)
			if len(added) != tt.wantAdded || len(removed) != tt.wantRemoved {
				t.Fatalf("diff = +%d/-%d, want +%d/-%d",
					len(added), len(removed), tt.wantAdded, tt.wantRemoved)
			}
		})
	}
}

func TestFromDocument(t *testing.T) {
	doc := Document{
		Path: "/v1/ws/channels/ch/posts/abc",
		Doc: Doc{
			Msg:    "hi",
			Parent: "/v1/ws/channels/ch/posts/root",
			Reactions: map[string][]string{
				":like:":    {"bob", "carol"},
				":invalid:": {"mallory"},
			},
			Extensions: &Extensions{Pins: []string{"alice"}},
		},
		Meta: Meta{CreatedBy: "bob", CreatedAt: 100, LastModifiedBy: "carol", LastModifiedAt: 200},
	}

	post := FromDocument(doc)
	if post.Message != "hi" || post.Creator != "bob" || post.CreatedAt != 100 || post.LastModifiedAt != 200 {
		t.Fatalf("scalar fields wrong: %+v", post)
	}
	if got := len(post.ReactionSet(ReactionLike)); got != 2 {
		t.Fatalf("like set size = %d, want 2", got)
	}
	if !post.IsPinnedBy("alice") {
		t.Fatalf("pin membership lost")
	}
	// Unknown reaction names are not part of the model.
	for _, kind := range ReactionKinds() {
		if post.ReactionSet(kind).Has("mallory") {
			t.Fatalf("invalid reaction kind leaked into %s", kind)
		}
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/v1/ws/channels/general", "general"},
		{"/v1/ws/channels/general/", "general"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := (Document{Path: tt.path}).Name(); got != tt.want {
			t.Fatalf("Name(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
