package command

import (
	"strings"
	"testing"

	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/types"
)

func formatDoc(path, msg, parent, creator string, at int64) types.Document {
	doc := types.Document{
		Path: path,
		Doc:  types.Doc{Msg: msg, Parent: parent},
		Meta: types.Meta{
			CreatedBy:      creator,
			CreatedAt:      at,
			LastModifiedBy: creator,
			LastModifiedAt: at,
		},
	}
	return doc
}

func TestWritePostTreeSections(t *testing.T) {
	engine := posts.NewEngine("alice")

	first := formatDoc("/v1/ws/channels/ch/posts/a", "hello", "", "bob", 100)
	reply := formatDoc("/v1/ws/channels/ch/posts/b", "hi back", "/v1/ws/channels/ch/posts/a", "alice", 200)
	pinned := formatDoc("/v1/ws/channels/ch/posts/c", "read me", "", "carol", 50)
	pinned.Doc.Extensions = &types.Extensions{Pins: []string{"alice"}}

	engine.DisplayAllPosts("ws", "ch", []types.Document{first, reply, pinned})

	var out strings.Builder
	writePostTree(&out, engine)
	text := out.String()

	pinnedIdx := strings.Index(text, "Pinned:")
	generalIdx := strings.Index(text, "Posts:")
	if pinnedIdx < 0 || generalIdx < 0 {
		t.Fatalf("missing section headers in output:\n%s", text)
	}
	if pinnedIdx > generalIdx {
		t.Fatalf("pinned section must come first:\n%s", text)
	}

	readMe := strings.Index(text, "read me")
	if readMe < pinnedIdx || readMe > generalIdx {
		t.Errorf("pinned post rendered outside the pinned section:\n%s", text)
	}
	hello := strings.Index(text, "hello")
	hiBack := strings.Index(text, "hi back")
	if hello < generalIdx || hiBack < hello {
		t.Errorf("reply must render after its parent in the general section:\n%s", text)
	}
}

func TestWritePostTreeEmpty(t *testing.T) {
	engine := posts.NewEngine("alice")
	engine.DisplayAllPosts("ws", "ch", nil)

	var out strings.Builder
	writePostTree(&out, engine)
	if !strings.Contains(out.String(), "No posts yet.") {
		t.Fatalf("expected empty placeholder, got %q", out.String())
	}
}

func TestFormatReactions(t *testing.T) {
	post := types.Post{
		Reactions: types.NewReactions(),
		PinnedBy:  types.NewUserSet("bob"),
	}
	post.Reactions[types.ReactionLike] = types.NewUserSet("alice", "bob")
	post.Reactions[types.ReactionFrown] = types.NewUserSet("carol")

	got := formatReactions(&post, "alice")
	for _, want := range []string{":like:2*", ":frown:1", "pinned:1"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatReactions = %q, want it to contain %q", got, want)
		}
	}
	if strings.Contains(got, ":frown:1*") {
		t.Errorf("viewer marker set on a reaction the viewer did not join: %q", got)
	}
	if strings.Contains(got, ":smile:") {
		t.Errorf("empty reaction set rendered: %q", got)
	}
}

func TestFormatReactionsEmpty(t *testing.T) {
	post := types.Post{Reactions: types.NewReactions(), PinnedBy: types.UserSet{}}
	if got := formatReactions(&post, "alice"); got != "" {
		t.Fatalf("expected empty string for bare post, got %q", got)
	}
}
