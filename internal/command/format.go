package command

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/types"
)

// writePostTree renders both partitions of the engine as indented text.
func writePostTree(w io.Writer, engine *posts.Engine) {
	if pinned := engine.PinnedRoots(); len(pinned) > 0 {
		fmt.Fprintln(w, "Pinned:")
		for _, root := range pinned {
			writeNode(w, engine, root, 1)
		}
	}
	general := engine.GeneralRoots()
	if len(general) > 0 {
		fmt.Fprintln(w, "Posts:")
		for _, root := range general {
			writeNode(w, engine, root, 1)
		}
	}
	if engine.Len() == 0 {
		fmt.Fprintln(w, "No posts yet.")
	}
}

func writeNode(w io.Writer, engine *posts.Engine, node *posts.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	stamp := time.UnixMilli(node.Post.CreatedAt).Format("2006-01-02 15:04")
	fmt.Fprintf(w, "%s%s [%s] %s%s\n",
		indent, node.Post.Creator, stamp, node.Post.Message, formatReactions(&node.Post, engine.Viewer()))
	for _, child := range node.Children {
		writeNode(w, engine, child, depth+1)
	}
}

// formatReactions summarizes non-empty reaction sets and pin state, marking
// the viewer's own memberships with an asterisk.
func formatReactions(post *types.Post, viewer string) string {
	var parts []string
	for _, kind := range types.ReactionKinds() {
		set := post.ReactionSet(kind)
		if len(set) == 0 {
			continue
		}
		mark := ""
		if set.Has(viewer) {
			mark = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%d%s", kind, len(set), mark))
	}
	if len(post.PinnedBy) > 0 {
		mark := ""
		if post.IsPinnedBy(viewer) {
			mark = "*"
		}
		parts = append(parts, fmt.Sprintf("pinned:%d%s", len(post.PinnedBy), mark))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  (" + strings.Join(parts, " ") + ")"
}
