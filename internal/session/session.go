// Package session drives the lifecycle of one open chat: loading its
// history into the cache, submitting user messages, pumping the live
// completion stream, and settling the finished assistant reply. The UI
// reads the reconciled view through Messages and is told when to re-render
// through the change callback; it never touches the stream directly.
package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/malonaz/tchat/internal/cache"
	"github.com/malonaz/tchat/internal/debug"
	"github.com/malonaz/tchat/internal/gateway"
	"github.com/malonaz/tchat/internal/mutation"
	"github.com/malonaz/tchat/internal/outbound"
	"github.com/malonaz/tchat/internal/reconcile"
	"github.com/malonaz/tchat/internal/transport"
	"github.com/malonaz/tchat/internal/types"
)

// State is the position of the session in the streaming lifecycle.
type State int

// Session states. Submissions are accepted only from StateIdle, StateDone
// and StateError; a stream is in flight during StateSubmitted and
// StateStreaming.
const (
	StateIdle State = iota
	StateSubmitted
	StateStreaming
	StateDone
	StateError
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitted:
		return "submitted"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return "unknown"
}

const settleTimeout = 30 * time.Second

// Params configures a session.
type Params struct {
	UserID string
	ChatID string
	// NewChat marks a chat that does not exist durably yet; the first
	// submission creates it.
	NewChat       bool
	Model         string
	MaxTokens     int
	HistoryWindow int

	Gateway    gateway.Gateway
	Transport  transport.Transport
	Executor   *mutation.Executor
	Reconciler *reconcile.Reconciler
}

// Session owns one chat's streaming lifecycle. Methods are safe for
// concurrent use; the change callback fires outside the session lock.
type Session struct {
	userID        string
	chatID        string
	model         string
	maxTokens     int
	historyWindow int

	gateway    gateway.Gateway
	transport  transport.Transport
	executor   *mutation.Executor
	reconciler *reconcile.Reconciler

	mu         sync.Mutex
	state      State
	err        error
	createChat bool
	streaming  *types.Message
	cancel     context.CancelFunc
	// generation invalidates a pump whose stream was stopped or superseded.
	generation uint64

	onChange func()
}

// New returns an idle session. Call Load before rendering.
func New(params *Params) *Session {
	chatID := params.ChatID
	if chatID == "" {
		chatID = uuid.New().String()
	}
	return &Session{
		userID:        params.UserID,
		chatID:        chatID,
		model:         params.Model,
		maxTokens:     params.MaxTokens,
		historyWindow: params.HistoryWindow,
		gateway:       params.Gateway,
		transport:     params.Transport,
		executor:      params.Executor,
		reconciler:    params.Reconciler,
		createChat:    params.NewChat,
	}
}

// SetOnChange installs the re-render callback.
func (s *Session) SetOnChange(onChange func()) {
	s.onChange = onChange
}

// ChatID returns the chat this session drives.
func (s *Session) ChatID() string { return s.chatID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StreamingID returns the identity of the in-flight assistant message, or
// empty when no stream is active.
func (s *Session) StreamingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming == nil {
		return ""
	}
	return s.streaming.ID
}

// Err returns the failure that moved the session into StateError, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Load fetches the chat list and this chat's messages into the cache.
func (s *Session) Load(ctx context.Context) error {
	chats, err := s.gateway.ListChats(ctx, s.userID)
	if err != nil {
		return types.NewFailure(types.FailureNetwork, errors.Wrap(err, "listing chats"))
	}
	s.executor.Cache().SetChats(chats)

	s.mu.Lock()
	createChat := s.createChat
	s.mu.Unlock()
	if createChat {
		return nil
	}
	messages, err := s.gateway.ListMessages(ctx, s.chatID)
	if err != nil {
		return types.NewFailure(types.FailureNetwork, errors.Wrap(err, "listing messages"))
	}
	s.executor.Cache().SetMessages(s.chatID, messages)
	return nil
}

// Messages returns the reconciled view the UI renders: the cached
// persisted messages merged with the in-flight assistant reply.
func (s *Session) Messages() []*types.Message {
	persisted := s.executor.Cache().Messages(s.chatID)
	s.mu.Lock()
	var streaming *types.Message
	active := (s.state == StateSubmitted || s.state == StateStreaming) && s.streaming != nil
	if active {
		streaming = s.streaming.Clone()
	}
	s.mu.Unlock()
	return s.reconciler.Reconcile(persisted, streaming, active)
}

// Submit persists the user message optimistically and opens a completion
// stream over the updated history. It rejects submission while a stream is
// in flight; the failed message never reaches the cache in that case.
func (s *Session) Submit(ctx context.Context, content string, attachmentIDs []string) error {
	s.mu.Lock()
	if s.state == StateSubmitted || s.state == StateStreaming {
		s.mu.Unlock()
		return types.Failuref(types.FailureValidation, "a reply is already streaming")
	}
	createChat := s.createChat
	s.mu.Unlock()

	m := &mutation.CreateMessage{
		Gateway:       s.gateway,
		UserID:        s.userID,
		ChatID:        s.chatID,
		CreateChat:    createChat,
		Role:          types.RoleUser,
		Content:       content,
		AttachmentIDs: attachmentIDs,
		Model:         s.model,
	}
	if err := s.executor.Apply(ctx, m); err != nil {
		return err
	}

	s.mu.Lock()
	s.createChat = false
	s.state = StateSubmitted
	s.err = nil
	s.mu.Unlock()
	s.notifyChange()

	return s.openStream()
}

// Resume re-opens a completion stream over the existing history without
// adding a new user message. Only a settled session can resume.
func (s *Session) Resume() error {
	s.mu.Lock()
	if s.state == StateSubmitted || s.state == StateStreaming {
		s.mu.Unlock()
		return types.Failuref(types.FailureValidation, "a reply is already streaming")
	}
	s.mu.Unlock()

	if len(s.executor.Cache().Messages(s.chatID)) == 0 {
		return types.Failuref(types.FailureValidation, "nothing to resume")
	}

	s.mu.Lock()
	s.state = StateSubmitted
	s.err = nil
	s.mu.Unlock()
	s.notifyChange()

	return s.openStream()
}

// Stop cancels the in-flight stream and discards the partial assistant
// reply. The submitted user message stays; stopping never un-sends it.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state != StateSubmitted && s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.cancel = nil
	s.streaming = nil
	s.generation++
	s.state = StateIdle
	s.err = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.notifyChange()
}

// openStream formats the outbound history, opens the transport stream and
// starts the pump. The stream context is detached from the submit call so
// the stream outlives it; Stop owns cancellation.
func (s *Session) openStream() error {
	request := &transport.Request{
		ChatID:    s.chatID,
		Messages:  outbound.Format(s.executor.Cache().Messages(s.chatID), s.historyWindow),
		Model:     s.model,
		MaxTokens: s.maxTokens,
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	stream, err := s.transport.Open(streamCtx, request)
	if err != nil {
		cancel()
		failure := types.NewFailure(types.FailureNetwork, errors.Wrap(err, "opening stream"))
		s.mu.Lock()
		s.state = StateError
		s.err = failure
		s.mu.Unlock()
		s.notifyChange()
		return failure
	}

	s.mu.Lock()
	s.cancel = cancel
	s.generation++
	generation := s.generation
	s.streaming = &types.Message{
		ID:                uuid.New().String(),
		ChatID:            s.chatID,
		Role:              types.RoleAssistant,
		Model:             s.model,
		CreationTimestamp: types.Now(),
	}
	s.mu.Unlock()

	go s.pump(stream, generation)
	return nil
}

// pump consumes stream fragments until EOF or error. A stale generation
// means the stream was stopped or superseded; its events are dropped.
func (s *Session) pump(stream transport.Stream, generation uint64) {
	defer stream.Close()
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			s.finish(generation)
			return
		}
		if err != nil {
			s.fail(generation, err)
			return
		}

		s.mu.Lock()
		if s.generation != generation {
			s.mu.Unlock()
			return
		}
		s.streaming.Content += fragment.Text
		if s.state == StateSubmitted {
			s.state = StateStreaming
		}
		s.mu.Unlock()
		s.notifyChange()
	}
}

// finish settles the completed assistant reply: it is persisted under the
// identity it streamed under, so the settled entry replaces the live one
// without a visual jump. An empty reply is dropped rather than persisted.
func (s *Session) finish(generation uint64) {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	streaming := s.streaming
	s.streaming = nil
	s.cancel = nil
	if streaming == nil || strings.TrimSpace(streaming.Content) == "" {
		s.state = StateDone
		s.mu.Unlock()
		s.notifyChange()
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
	defer cancel()
	err := s.executor.Apply(ctx, &mutation.CreateMessage{
		Gateway:   s.gateway,
		UserID:    s.userID,
		ChatID:    s.chatID,
		MessageID: streaming.ID,
		Role:      types.RoleAssistant,
		Content:   streaming.Content,
		Model:     streaming.Model,
	})

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	if err != nil {
		debug.GetLogger().Debug("persisting assistant reply failed", "chat_id", s.chatID, "error", err)
		s.state = StateError
		s.err = err
	} else {
		s.state = StateDone
	}
	s.mu.Unlock()
	s.notifyChange()
}

func (s *Session) fail(generation uint64, cause error) {
	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		return
	}
	s.streaming = nil
	s.cancel = nil
	s.state = StateError
	s.err = types.NewFailure(types.FailurePartialStream, cause)
	s.mu.Unlock()
	debug.GetLogger().Debug("stream failed", "chat_id", s.chatID, "error", cause)
	s.notifyChange()
}

func (s *Session) notifyChange() {
	if s.onChange != nil {
		s.onChange()
	}
}

// Refresher returns the executor refresh hook: it re-fetches the named
// views in the background so server-side effects (computed titles,
// server-assigned timestamps) converge into the cache after each mutation.
func (s *Session) Refresher() mutation.Refresher {
	return func(keys []cache.Key) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), settleTimeout)
			defer cancel()
			for _, key := range keys {
				s.refreshKey(ctx, key)
			}
			s.notifyChange()
		}()
	}
}

func (s *Session) refreshKey(ctx context.Context, key cache.Key) {
	logger := debug.GetLogger()
	if key == cache.ChatListKey(s.userID) {
		chats, err := s.gateway.ListChats(ctx, s.userID)
		if err != nil {
			logger.Debug("refreshing chat list failed", "error", err)
			return
		}
		s.executor.Cache().SetChats(chats)
		return
	}
	if chatID, ok := cache.ChatIDFromKey(key); ok {
		messages, err := s.gateway.ListMessages(ctx, chatID)
		if err != nil {
			logger.Debug("refreshing messages failed", "chat_id", chatID, "error", err)
			return
		}
		s.executor.Cache().SetMessages(chatID, messages)
	}
}
