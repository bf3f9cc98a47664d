// Package chat is the interactive chat screen.
package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/configuration"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/mutation"
	"github.com/malonaz/tchat/internal/reconcile"
	"github.com/malonaz/tchat/internal/session"
	"github.com/malonaz/tchat/internal/transport"
)

// NewCmd instantiates and returns the chat command.
func NewCmd(config *configuration.Config, g gateway.Gateway) *cobra.Command {
	var opts struct {
		Model     string
		MaxTokens int
		ChatID    string
		Continue  bool
	}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if opts.Model == "" {
				opts.Model = config.DefaultModel
			}
			modelName, err := config.ResolveModelAlias(opts.Model)
			if err != nil {
				return err
			}
			tr, err := transport.New(config, modelName)
			if err != nil {
				return err
			}

			// Parse or create chat.
			newChat := false
			switch {
			case opts.ChatID != "":
			case opts.Continue:
				chats, err := g.ListChats(ctx, config.UserID)
				if err != nil {
					return errors.Wrap(err, "listing chats")
				}
				if len(chats) == 0 {
					return errors.New("no chat to continue")
				}
				opts.ChatID = chats[0].ID
			default:
				opts.ChatID = uuid.New().String()[:8]
				newChat = true
			}

			executor := mutation.NewExecutor(cache.New(config.UserID))
			s := session.New(&session.Params{
				UserID:        config.UserID,
				ChatID:        opts.ChatID,
				NewChat:       newChat,
				Model:         modelName,
				MaxTokens:     opts.MaxTokens,
				HistoryWindow: config.HistoryWindow,
				Gateway:       g,
				Transport:     tr,
				Executor:      executor,
				Reconciler:    reconcile.New(time.Duration(config.DedupWindowMS) * time.Millisecond),
			})
			executor.SetRefresher(s.Refresher())
			if err := s.Load(ctx); err != nil {
				return err
			}

			m, err := NewModel(s, modelName)
			if err != nil {
				return err
			}
			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithMouseCellMotion(),
				tea.WithReportFocus(),
			)
			m.SetProgram(p)

			if _, err := p.Run(); err != nil {
				return errors.Wrap(err, "running chat")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "Model name or alias to use")
	cmd.Flags().IntVar(&opts.MaxTokens, "max-tokens", 0, "Maximum tokens to generate")
	cmd.Flags().StringVar(&opts.ChatID, "id", "", "specify a chat id")
	cmd.Flags().BoolVarP(&opts.Continue, "continue", "c", false, "Continue previous chat")
	return cmd
}
