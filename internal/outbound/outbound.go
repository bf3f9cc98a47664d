// Package outbound turns the persisted history of a chat into the bounded,
// provider-agnostic message list that starts a new completion.
package outbound

import (
	"github.com/malonaz/tchat/internal/types"
)

// DefaultWindow bounds the history replayed to a provider when the
// configuration carries no explicit value.
const DefaultWindow = 32

// Format trims and filters a message history for a completion request.
// Assistant messages with no text are dropped: they are aborted or empty
// completions and must not be replayed as valid turns. The result holds at
// most window messages, the most recent ones.
//
// Format is pure; the resume path reformats history without re-fetching.
func Format(messages []*types.Message, window int) []types.TransportMessage {
	if window <= 0 {
		window = DefaultWindow
	}

	filtered := make([]*types.Message, 0, len(messages))
	for _, message := range messages {
		if message.Role == types.RoleAssistant && !message.HasContent() {
			continue
		}
		filtered = append(filtered, message)
	}
	if len(filtered) > window {
		filtered = filtered[len(filtered)-window:]
	}

	formatted := make([]types.TransportMessage, 0, len(filtered))
	for _, message := range filtered {
		formatted = append(formatted, types.TransportMessage{
			ID:   message.ID,
			Role: message.Role,
			Text: message.Content,
		})
	}
	return formatted
}
