package command

import (
	"os"

	"github.com/spf13/cobra"
)

const AppName = "m3"

// Version is overwritten at build time using -ldflags.
var Version = "dev"

func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "m3 - terminal client for document-store messaging",
		Long:          "m3 is a terminal client for threaded discussions backed by an OwlDB-style document store.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().String("host", "", "document store base URL")
	cmd.PersistentFlags().Bool("json", false, "output in JSON format")

	cmd.AddCommand(
		NewLoginCmd(),
		NewLogoutCmd(),
		NewWorkspacesCmd(),
		NewChannelsCmd(),
		NewPostsCmd(),
		NewPostCmd(),
		NewReactCmd(),
		NewPinCmd(),
		NewUnpinCmd(),
		NewChatCmd(),
	)

	return cmd
}

func Execute() error {
	return NewRootCmd(Version).Execute()
}
