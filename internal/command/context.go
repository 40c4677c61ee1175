package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ss303/m3ssag1n8/internal/core"
	"github.com/ss303/m3ssag1n8/internal/owldb"
	"github.com/ss303/m3ssag1n8/internal/posts"
	"github.com/ss303/m3ssag1n8/internal/session"
)

// CommandContext provides shared command resources.
type CommandContext struct {
	Config   *core.Config
	Client   *owldb.Client
	Session  *session.Session
	Username string
	JSONMode bool
}

// GetContext resolves the store client and session for a command. It
// requires a cached token; commands that work pre-login (login itself)
// build their client by hand.
func GetContext(cmd *cobra.Command) (*CommandContext, error) {
	jsonMode, _ := cmd.Flags().GetBool("json")
	hostFlag, _ := cmd.Flags().GetString("host")

	config, err := core.ReadConfig()
	if err != nil {
		return nil, err
	}
	host, err := core.ResolveHost(hostFlag, config)
	if err != nil {
		return nil, err
	}
	if config == nil || config.Token == "" {
		return nil, fmt.Errorf("not logged in. Use 'm3 login <username>' first")
	}

	client, err := owldb.NewClient(host)
	if err != nil {
		return nil, err
	}
	client.SetToken(config.Token)

	engine := posts.NewEngine(config.Username)
	return &CommandContext{
		Config:   config,
		Client:   client,
		Session:  session.New(client, engine),
		Username: config.Username,
		JSONMode: jsonMode,
	}, nil
}
