package command

import (
	"encoding/json"
	"fmt"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"

	"github.com/ss303/m3ssag1n8/internal/types"
)

// NewWorkspacesCmd creates the workspaces command.
func NewWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			docs, err := ctx.Session.ListWorkspaces(cmd.Context())
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return printNames(cmd, ctx, docs)
		},
	}
	cmd.Flags().String("match", "", "only list names matching a glob pattern")
	return cmd
}

// NewChannelsCmd creates the channels command.
func NewChannelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channels <workspace>",
		Short: "List a workspace's channels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			docs, err := ctx.Session.ListChannels(cmd.Context(), args[0])
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return printNames(cmd, ctx, docs)
		},
	}
	cmd.Flags().String("match", "", "only list names matching a glob pattern")
	return cmd
}

func printNames(cmd *cobra.Command, ctx *CommandContext, docs []types.Document) error {
	pattern, _ := cmd.Flags().GetString("match")
	var matcher glob.Glob
	if pattern != "" {
		compiled, err := glob.Compile(pattern)
		if err != nil {
			return writeCommandError(cmd, fmt.Errorf("invalid --match pattern: %w", err))
		}
		matcher = compiled
	}

	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		name := doc.Name()
		if matcher != nil && !matcher.Match(name) {
			continue
		}
		names = append(names, name)
	}

	if ctx.JSONMode {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(names)
	}
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}
