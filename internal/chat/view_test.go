package chat

import (
	"strings"
	"testing"

	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/session"
	"github.com/ss303/m3ssag1n8/internal/types"
)

func chatDoc(path, msg, parent, creator string, at int64) types.Document {
	return types.Document{
		Path: path,
		Doc:  types.Doc{Msg: msg, Parent: parent},
		Meta: types.Meta{
			CreatedBy:      creator,
			CreatedAt:      at,
			LastModifiedBy: creator,
			LastModifiedAt: at,
		},
	}
}

func TestReactionBadges(t *testing.T) {
	post := types.Post{
		Reactions: types.NewReactions(),
		PinnedBy:  types.NewUserSet("bob", "carol"),
	}
	post.Reactions[types.ReactionCelebrate] = types.NewUserSet("alice")

	got := reactionBadges(post, "alice")
	if !strings.Contains(got, ":celebrate:1*") {
		t.Errorf("viewer's own reaction must carry a marker: %q", got)
	}
	if !strings.Contains(got, "pinned:2") {
		t.Errorf("pin count missing: %q", got)
	}
}

func TestRefreshFlattensPinnedFirstDepthFirst(t *testing.T) {
	engine := posts.NewEngine("alice")

	root := chatDoc("/v1/ws/channels/ch/posts/a", "root", "", "bob", 100)
	reply := chatDoc("/v1/ws/channels/ch/posts/b", "reply", "/v1/ws/channels/ch/posts/a", "carol", 200)
	pinned := chatDoc("/v1/ws/channels/ch/posts/c", "pinned", "", "bob", 300)
	pinned.Doc.Extensions = &types.Extensions{Pins: []string{"alice"}}
	engine.DisplayAllPosts("ws", "ch", []types.Document{root, reply, pinned})

	model := NewModel(Options{
		Session:   session.New(nil, engine),
		Workspace: "ws",
		Channel:   "ch",
		Username:  "alice",
	})

	var order []string
	for _, node := range model.visible {
		order = append(order, node.Post.Message)
	}
	want := []string{"pinned", "root", "reply"}
	if len(order) != len(want) {
		t.Fatalf("visible = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("visible = %v, want %v", order, want)
		}
	}
	if node := model.selectedNode(); node == nil || node.Post.Message != "pinned" {
		t.Errorf("initial selection must land on the first visible post")
	}
}
