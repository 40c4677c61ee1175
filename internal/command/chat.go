package command

import (
	"github.com/spf13/cobra"

	"github.com/ss303/m3ssag1n8/internal/chat"
)

// NewChatCmd creates the chat command, the live channel view.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat <workspace> <channel>",
		Short: "Open a live channel view",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			err = chat.Run(chat.Options{
				Session:   ctx.Session,
				Workspace: args[0],
				Channel:   args[1],
				Username:  ctx.Username,
			})
			if err != nil {
				return writeCommandError(cmd, err)
			}
			return nil
		},
	}
	return cmd
}
