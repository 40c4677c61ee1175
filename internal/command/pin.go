package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewPinCmd creates the pin command.
func NewPinCmd() *cobra.Command {
	return newPinToggleCmd("pin", "Pin a post and its replies", false)
}

// NewUnpinCmd creates the unpin command.
func NewUnpinCmd() *cobra.Command {
	return newPinToggleCmd("unpin", "Unpin a post and its replies", true)
}

func newPinToggleCmd(use, short string, wantPinned bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <workspace> <channel> <post-path>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			workspace, channel, path := args[0], args[1], args[2]

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
			previously := node.Post.IsPinnedBy(ctx.Username)
			if previously != wantPinned {
				if ctx.JSONMode {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
						"path":      path,
						"pinned":    previously,
						"unchanged": true,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Already %s: %s\n", use+"ned", path)
				return nil
			}

			if err := ctx.Session.TogglePin(cmd.Context(), path); err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":   path,
					"pinned": !previously,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", map[bool]string{false: "Pinned", true: "Unpinned"}[previously], path)
			return nil
		},
	}
	return cmd
}
