// Package transport opens live completion channels against AI providers.
// One channel exists per submitted message; the session layer owns its
// lifetime and cancellation. Provider-specific request shapes stay behind
// this boundary.
package transport

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/configuration"
	"github.com/malonaz/tchat/internal/types"
)

// Request describes one completion to stream.
type Request struct {
	ChatID    string
	Messages  []types.TransportMessage
	Model     string
	MaxTokens int
}

// Fragment is one incremental chunk of an assistant reply.
type Fragment struct {
	Text string
}

// Stream yields fragments until the reply completes. Recv returns io.EOF
// on normal close.
type Stream interface {
	Recv() (*Fragment, error)
	Close()
}

// Transport opens streams. Implementations adapt one provider SDK.
type Transport interface {
	Open(ctx context.Context, request *Request) (Stream, error)
}

// New returns the transport serving the given model, resolved against the
// provider catalog.
func New(config *configuration.Config, model string) (Transport, error) {
	provider, err := config.ProviderForModel(model)
	if err != nil {
		return nil, err
	}
	switch provider.Kind {
	case "openai":
		return NewOpenAITransport(provider.APIKey, provider.APIHost), nil
	case "anthropic":
		return NewAnthropicTransport(provider.APIKey), nil
	}
	return nil, errors.Errorf("unknown provider kind (%s)", provider.Kind)
}

// GenerateTitle implements the gateway's titler on top of a transport: it
// streams a short completion over the opening messages and flattens it
// into a single line.
type TitleGenerator struct {
	Transport Transport
	Model     string
}

const titlePrompt = "Summarize this conversation into a title of at most six words. Reply with the title only."

// GenerateTitle computes a chat title from its opening messages.
func (g *TitleGenerator) GenerateTitle(ctx context.Context, messages []*types.Message) (string, error) {
	request := &Request{Model: g.Model, MaxTokens: 32}
	for _, message := range messages {
		if !message.HasContent() {
			continue
		}
		request.Messages = append(request.Messages, types.TransportMessage{
			ID: message.ID, Role: message.Role, Text: message.Content,
		})
	}
	request.Messages = append(request.Messages, types.TransportMessage{
		Role: types.RoleUser, Text: titlePrompt,
	})

	stream, err := g.Transport.Open(ctx, request)
	if err != nil {
		return "", errors.Wrap(err, "opening stream")
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		fragment, err := stream.Recv()
		if err != nil {
			break
		}
		builder.WriteString(fragment.Text)
	}
	title := strings.TrimSpace(strings.Trim(strings.TrimSpace(builder.String()), `"`))
	if title == "" {
		return "", errors.New("empty title")
	}
	return title, nil
}
