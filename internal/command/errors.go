package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ss303/m3ssag1n8/internal/owldb"
)

func writeCommandError(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err.Error())

	if owldb.IsUnauthorized(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hint: Your token may have expired. Try: m3 login <username>")
	}

	return err
}
