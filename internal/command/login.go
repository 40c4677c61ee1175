package command

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ss303/m3ssag1n8/internal/core"
	"github.com/ss303/m3ssag1n8/internal/owldb"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Obtain a token from the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			jsonMode, _ := cmd.Flags().GetBool("json")
			hostFlag, _ := cmd.Flags().GetString("host")

			config, err := core.ReadConfig()
			if err != nil {
				return writeCommandError(cmd, err)
			}
			host, err := core.ResolveHost(hostFlag, config)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			client, err := owldb.NewClient(host)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			token, err := client.Login(cmd.Context(), username)
			if err != nil {
				return writeCommandError(cmd, err)
			}

			if err := core.WriteConfig(core.Config{
				Host:     host,
				Username: username,
				Token:    token,
			}); err != nil {
				return writeCommandError(cmd, err)
			}

			if jsonMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"logged_in": true,
					"username":  username,
					"host":      host,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s at %s\n", username, host)
			return nil
		},
	}
	return cmd
}

// NewLogoutCmd creates the logout command.
func NewLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Release the cached token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := GetContext(cmd)
			if err != nil {
				return writeCommandError(cmd, err)
			}
			if err := ctx.Client.Logout(cmd.Context()); err != nil {
				// The token is dropped locally regardless.
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: store logout failed: %v\n", err)
			}
			if err := core.WriteConfig(core.Config{
				Host:     ctx.Config.Host,
				Username: ctx.Config.Username,
			}); err != nil {
				return writeCommandError(cmd, err)
			}
			if ctx.JSONMode {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{"logged_out": true})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
	return cmd
}
