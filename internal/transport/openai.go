package transport

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/malonaz/tchat/internal/types"
)

// OpenAITransport adapts the OpenAI chat completion stream.
type OpenAITransport struct {
	client *openai.Client
}

// NewOpenAITransport returns a transport backed by the OpenAI API.
func NewOpenAITransport(apiKey, apiHost string) *OpenAITransport {
	config := openai.DefaultConfig(apiKey)
	if apiHost != "" {
		config.BaseURL = apiHost
	}
	return &OpenAITransport{client: openai.NewClientWithConfig(config)}
}

// Open starts a streaming chat completion.
func (t *OpenAITransport) Open(ctx context.Context, request *Request) (Stream, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(request.Messages))
	for _, message := range request.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openAIRole(message.Role),
			Content: message.Text,
		})
	}
	openAIRequest := openai.ChatCompletionRequest{
		Model:     request.Model,
		MaxTokens: request.MaxTokens,
		Stream:    true,
		Messages:  messages,
	}
	stream, err := t.client.CreateChatCompletionStream(ctx, openAIRequest)
	if err != nil {
		return nil, errors.Wrap(err, "creating completion stream")
	}
	return &openAIStream{stream: stream}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Close() { s.stream.Close() }

func (s *openAIStream) Recv() (*Fragment, error) {
	response, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	if len(response.Choices) == 0 {
		return &Fragment{}, nil
	}
	return &Fragment{Text: response.Choices[0].Delta.Content}, nil
}

func openAIRole(role types.Role) string {
	switch role {
	case types.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case types.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
