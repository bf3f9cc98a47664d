package main

import (
	"github.com/spf13/cobra"

	"github.com/malonaz/tchat/cli/chat"
	"github.com/malonaz/tchat/cli/chats"
	"github.com/malonaz/tchat/internal/configuration"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/transport"
)

const configFilepath = "~/.config/tchat/config.json"

var rootCmd = &cobra.Command{
	Use:     "tchat",
	Short:   "A terminal AI chat client",
	Version: "1.0",
}

func main() {
	config, err := configuration.Parse(configFilepath)
	if err != nil {
		panic(err)
	}

	// Create store
	store, err := gateway.New(config.Database)
	if err != nil {
		panic(err)
	}
	// Ensure store is closed when the program exits normally
	defer store.Close()

	// New chats get a title computed in the background from their opening
	// messages.
	if titleTransport, err := transport.New(config, config.DefaultModel); err == nil {
		store.SetTitler(&transport.TitleGenerator{Transport: titleTransport, Model: config.DefaultModel})
	}

	rootCmd.AddCommand(chat.NewCmd(config, store))
	rootCmd.AddCommand(chats.NewCmd(config, store))
	rootCmd.Execute()
}
