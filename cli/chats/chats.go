// Package chats holds the chat management commands: listing, searching and
// the list mutations (pin, archive, rename, delete).
package chats

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/malonaz/tchat/cli"
	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/configuration"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/mutation"
	"github.com/malonaz/tchat/internal/types"
)

// NewCmd instantiates and returns the chats command.
func NewCmd(config *configuration.Config, store *gateway.Store) *cobra.Command {
	var opts struct {
		Archived bool
	}
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List and manage chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var chats []*types.Chat
			var err error
			if opts.Archived {
				chats, err = store.ListArchivedChats(ctx, config.UserID)
			} else {
				chats, err = store.ListChats(ctx, config.UserID)
			}
			if err != nil {
				return err
			}
			cli.Title("TCHAT CHATS")
			printChats(chats)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Archived, "archived", "a", false, "List archived chats")

	cmd.AddCommand(newSearchCmd(config, store))
	cmd.AddCommand(newPinCmd(config, store, false))
	cmd.AddCommand(newPinCmd(config, store, true))
	cmd.AddCommand(newArchiveCmd(config, store))
	cmd.AddCommand(newDeleteCmd(config, store))
	cmd.AddCommand(newRenameCmd(config, store))
	cmd.AddCommand(newGenerateTitlesCmd(config, store))
	return cmd
}

func printChats(chats []*types.Chat) {
	for _, chat := range chats {
		title := "(untitled)"
		if chat.Title != nil {
			title = *chat.Title
		}
		if chat.PinnedTimestamp != nil {
			cli.Pinned("📌 ")
		}
		cli.ChatHeader("%s - %s\n", chat.ID, title)
		cli.Detail("  updated %s\n", time.UnixMicro(chat.UpdateTimestamp).Format(time.DateTime))
	}
}

func newSearchCmd(config *configuration.Config, store *gateway.Store) *cobra.Command {
	var opts struct {
		PageSize int
	}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chats, err := store.SearchChats(cmd.Context(), &gateway.SearchChatsRequest{
				UserID:   config.UserID,
				Query:    args[0],
				PageSize: opts.PageSize,
			})
			if err != nil {
				return err
			}
			cli.Title("TCHAT SEARCH")
			printChats(chats)
			return nil
		},
	}
	cmd.Flags().IntVarP(&opts.PageSize, "page-size", "p", 50, "Page size")
	return cmd
}

// runMutation loads the chat list into a cache and runs one mutation
// through the executor, so CLI writes take the same path as the chat
// screen's.
func runMutation(ctx context.Context, config *configuration.Config, store *gateway.Store, m mutation.Mutation) error {
	chats, err := store.ListChats(ctx, config.UserID)
	if err != nil {
		return err
	}
	executor := mutation.NewExecutor(cache.New(config.UserID))
	executor.Cache().SetChats(chats)
	return executor.Apply(ctx, m)
}

func newPinCmd(config *configuration.Config, store *gateway.Store, unpin bool) *cobra.Command {
	use, short := "pin <chat-id>", "Pin a chat to the top of the list"
	if unpin {
		use, short = "unpin <chat-id>", "Unpin a chat"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd.Context(), config, store,
				&mutation.PinChat{Gateway: store, UserID: config.UserID, ChatID: args[0], Unpin: unpin})
		},
	}
}

func newArchiveCmd(config *configuration.Config, store *gateway.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <chat-id>",
		Short: "Archive a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd.Context(), config, store,
				&mutation.ArchiveChat{Gateway: store, UserID: config.UserID, ChatID: args[0]})
		},
	}
}

func newDeleteCmd(config *configuration.Config, store *gateway.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd.Context(), config, store,
				&mutation.DeleteChat{Gateway: store, UserID: config.UserID, ChatID: args[0]})
		},
	}
}

func newRenameCmd(config *configuration.Config, store *gateway.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <chat-id> <title>",
		Short: "Rename a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutation(cmd.Context(), config, store,
				&mutation.RenameChat{Gateway: store, UserID: config.UserID, ChatID: args[0], Title: args[1]})
		},
	}
}

func newGenerateTitlesCmd(config *configuration.Config, store *gateway.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "generate-titles",
		Short: "Generate titles for untitled chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			chatIDs, err := store.ListUntitledChatIDs(ctx, config.UserID)
			if err != nil {
				return err
			}
			for _, chatID := range chatIDs {
				if err := store.GenerateChatTitle(ctx, chatID); err != nil {
					cli.Error("chat %s: %v\n", chatID, err)
					continue
				}
				cli.Detail("chat %s: titled\n", chatID)
			}
			return nil
		},
	}
}
