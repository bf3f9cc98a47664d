package transport

import (
	"context"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/malonaz/tchat/internal/types"
)

const anthropicDefaultMaxTokens = 4096

// AnthropicTransport adapts the Anthropic messages stream.
type AnthropicTransport struct {
	client *anthropic.Client
}

// NewAnthropicTransport returns a transport backed by the Anthropic API.
func NewAnthropicTransport(apiKey string) *AnthropicTransport {
	return &AnthropicTransport{client: anthropic.NewClient(apiKey)}
}

// anthropicStream bridges the SDK's callback-driven stream into Recv calls.
type anthropicStream struct {
	fragments chan *Fragment
	err       chan error
}

func (s *anthropicStream) Close() {}

func (s *anthropicStream) Recv() (*Fragment, error) {
	select {
	case fragment := <-s.fragments:
		return fragment, nil
	case err := <-s.err:
		if err == nil {
			return nil, io.EOF
		}
		return nil, err
	}
}

// Open starts a streaming messages request.
func (t *AnthropicTransport) Open(ctx context.Context, request *Request) (Stream, error) {
	var system string
	messages := make([]anthropic.Message, 0, len(request.Messages))
	for _, message := range request.Messages {
		switch message.Role {
		case types.RoleSystem:
			system += message.Text
		case types.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantTextMessage(message.Text))
		default:
			messages = append(messages, anthropic.NewUserTextMessage(message.Text))
		}
	}

	maxTokens := request.MaxTokens
	if maxTokens == 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	stream := &anthropicStream{
		fragments: make(chan *Fragment, 100),
		err:       make(chan error, 1),
	}
	anthropicRequest := anthropic.MessagesStreamRequest{
		MessagesRequest: anthropic.MessagesRequest{
			Model:     anthropic.Model(request.Model),
			System:    system,
			Messages:  messages,
			MaxTokens: maxTokens,
		},
		OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text != nil {
				stream.fragments <- &Fragment{Text: *data.Delta.Text}
			}
		},
	}

	go func() {
		_, err := t.client.CreateMessagesStream(ctx, anthropicRequest)
		stream.err <- err
	}()
	return stream, nil
}
