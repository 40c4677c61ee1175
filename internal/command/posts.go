package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// NewPostsCmd creates the posts command, a one-shot snapshot of a channel.
func NewPostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts <workspace> <channel>",
		Short: "Show a channel's post tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			workspace, channel := args[0], args[1]

			// Snapshot only: load the tree without opening a stream.
			docs, err := ctx.Session.ListChannelPosts(cmd.Context(), workspace, channel)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			engine := ctx.Session.Engine()
			engine.DisplayAllPosts(workspace, channel, docs)

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(docs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s — %d posts\n", workspace, channel, engine.Len())
			writePostTree(cmd.OutOrStdout(), engine)
			return nil
		},
	}
	return cmd
}

// NewPostCmd creates the post command.
func NewPostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <workspace> <channel> <message>",
		Short: "Create a post or reply",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			workspace, channel, message := args[0], args[1], args[2]
			replyTo, _ := cmd.Flags().GetString("reply-to")

			docs, err := ctx.Session.ListChannelPosts(cmd.Context(), workspace, channel)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			ctx.Session.Engine().DisplayAllPosts(workspace, channel, docs)

			doc, err := ctx.Session.CreatePost(cmd.Context(), message, replyTo)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(doc)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %s\n", doc.Path)
			return nil
		},
	}
	cmd.Flags().String("reply-to", "", "path of the post to reply to")
	return cmd
}
