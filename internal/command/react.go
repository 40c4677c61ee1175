package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// NewReactCmd creates the react command.
func NewReactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "react <workspace> <channel> <post-path> <emoji>",
		Short: "Toggle a reaction on a post",
		Long:  "Toggle your reaction on a post. Supported emoji: :smile:, :like:, :frown:, :celebrate:.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			workspace, channel, path := args[0], args[1], args[2]
			kind := types.ReactionKind(args[3])
			if !types.ValidReaction(kind) {
				return writeCommandError(cmd, fmt.Errorf("unsupported reaction %q", args[3]))
			}

			docs, err := ctx.Session.ListChannelPosts(cmd.Context(), workspace, channel)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			engine := ctx.Session.Engine()
			engine.DisplayAllPosts(workspace, channel, docs)

			node, ok := engine.Lookup(path)
			if !ok {
				return writeCommandError(cmd, fmt.Errorf("no such post: %s", path))
			}
			previously := node.Post.HasReacted(kind, ctx.Username)
			if err := ctx.Session.ToggleReaction(cmd.Context(), path, kind); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":    path,
					"emoji":   kind,
					"reacted": !previously,
					"count":   len(node.Post.ReactionSet(kind)),
				})
			}
			verb := "Added"
			if previously {
				verb = "Removed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s (now %d)\n",
				verb, kind, path, len(node.Post.ReactionSet(kind)))
			return nil
		},
	}
	return cmd
}
