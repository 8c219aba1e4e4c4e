// Package controller orchestrates chat sessions: negotiation, the room
// transport, the wire codec, the connection state machine, and the message
// log.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nitish-vaani/codeyoung/internal/audit"
	"github.com/nitish-vaani/codeyoung/internal/codec"
	"github.com/nitish-vaani/codeyoung/internal/config"
	"github.com/nitish-vaani/codeyoung/internal/domain"
	"github.com/nitish-vaani/codeyoung/internal/identity"
	"github.com/nitish-vaani/codeyoung/internal/negotiate"
	"github.com/nitish-vaani/codeyoung/internal/transport"
	"github.com/nitish-vaani/codeyoung/pkg/log"
)

// Negotiator is the two-call handshake against the backend.
type Negotiator interface {
	CreateSession(ctx context.Context, req negotiate.CreateSessionRequest) (string, error)
	FetchToken(ctx context.Context, roomID, userName string) (string, error)
}

// Listener receives presentation-facing events. Implementations must not
// call back into the Controller from these hooks while holding their own
// locks; the Controller invokes them outside its internal lock.
type Listener interface {
	// OnMessage fires for every appended log entry.
	OnMessage(msg domain.ChatMessage)
	// OnStateChange fires on every ConnectionState transition.
	OnStateChange(state domain.ConnectionState)
	// OnTyping fires when the agent typing flag changes.
	OnTyping(typing bool)
	// OnConnected fires once the session is live; surfaces use it to focus
	// their input.
	OnConnected()
	// OnNotice carries transient non-blocking notifications.
	OnNotice(severity, summary, detail string)
}

// Display labels for log entries.
const (
	senderSystem = "System"
	senderAgent  = "Agent"
	senderUser   = "You"
)

// Controller owns exactly one chat session at a time. All state is guarded
// by one mutex; transport callbacks serialize through it, so the message log
// is never mutated concurrently with itself.
type Controller struct {
	negotiator Negotiator
	dial       transport.Dialer
	agent      config.AgentConfig
	listener   Listener
	now        func() time.Time

	mu             sync.Mutex
	state          domain.ConnectionState
	negotiating    bool
	generation     uint64
	session        *domain.ChatSession
	room           transport.Room
	messages       []domain.ChatMessage
	agentTyping    bool
	errorText      string
	surfaceVisible bool
	unread         bool
}

func New(negotiator Negotiator, dial transport.Dialer, agent config.AgentConfig, listener Listener) *Controller {
	return &Controller{
		negotiator: negotiator,
		dial:       dial,
		agent:      agent,
		listener:   listener,
		now:        time.Now,
		state:      domain.StateIdle,
	}
}

// StartSession negotiates a new session for the stored user identity and
// connects the room transport. At most one session is negotiated per call;
// overlapping calls are guarded at the presentation layer, and any result
// belonging to a superseded attempt is discarded, not applied.
func (c *Controller) StartSession(ctx context.Context, userID, userName string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrNotAuthenticated
	}
	if userName == "" {
		userName = "Chat User"
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.negotiating = true
	c.errorText = ""
	c.setStateLocked(domain.StateConnecting)
	c.mu.Unlock()
	c.notifyState(domain.StateConnecting)

	audit.Log(ctx, audit.ActionStartSession, userID, "starting chat session")

	participantID := identity.Generate(userID, c.now())

	roomID, err := c.negotiator.CreateSession(ctx, negotiate.CreateSessionRequest{
		UserID:    userID,
		AgentID:   c.agent.ID,
		Name:      userName,
		AgentName: c.agent.Name,
		SessionID: participantID,
	})
	if err != nil {
		c.failStart(ctx, gen, userID, err)
		return err
	}

	token, err := c.negotiator.FetchToken(ctx, roomID, userName)
	if err != nil {
		c.failStart(ctx, gen, userID, err)
		return err
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		log.Ctx(ctx).Debug().Uint64(log.FieldGeneration, gen).Msg("discarding superseded negotiation result")
		return nil
	}
	c.session = &domain.ChatSession{
		SessionID:     roomID,
		RoomID:        roomID,
		ParticipantID: participantID,
		IsActive:      true,
	}
	room := c.dial(c.roomEvents(gen))
	c.room = room
	c.mu.Unlock()

	log.Ctx(ctx).Info().
		Str(log.FieldUserID, userID).
		Str(log.FieldRoomID, roomID).
		Str(log.FieldParticipantID, participantID).
		Msg("session negotiated, connecting transport")

	if err := room.Connect(ctx, token); err != nil {
		c.failStart(ctx, gen, userID, err)
		return err
	}
	return nil
}

// SendMessage publishes one user message. It is a no-op when the text trims
// to empty, no session exists, or the session is not connected. The message
// is appended before the publish resolves; a publish failure raises a
// transient notice and the appended message stays.
func (c *Controller) SendMessage(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	c.mu.Lock()
	if c.session == nil || c.state != domain.StateConnected {
		c.mu.Unlock()
		return
	}
	gen := c.generation
	room := c.room
	userID := c.session.ParticipantID
	msg := c.appendLocked(domain.KindUser, trimmed, senderUser)
	c.agentTyping = true
	c.mu.Unlock()

	c.notifyMessage(msg)
	c.notifyTyping(true)
	audit.Log(ctx, audit.ActionSendMessage, userID, "user message sent")

	payload, err := codec.EncodeUserMessage(trimmed, c.now())
	if err == nil {
		err = room.Publish(ctx, payload, transport.PublishOptions{
			Topic:    domain.TopicChatMessage,
			Reliable: true,
		})
	}
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to publish chat message")
		audit.LogWithDetail(ctx, audit.ActionSendFailed, userID, err.Error(), "message publish failed")
		c.mu.Lock()
		cleared := gen == c.generation && c.agentTyping
		if cleared {
			c.agentTyping = false
		}
		c.mu.Unlock()
		if cleared {
			c.notifyTyping(false)
		}
		c.notifyNotice("error", "Send Failed", "Failed to send message")
	}
}

// EndSession tears the session down: transport handle, message log, session,
// and error text are all cleared. Calling it with no active session is a
// no-op, never an error. Teardown failures are reported and swallowed.
func (c *Controller) EndSession() {
	c.mu.Lock()
	c.generation++ // in-flight results from this session are now stale
	room := c.room
	hadSession := c.session != nil || room != nil
	stateChanged := c.state != domain.StateIdle
	c.room = nil
	c.session = nil
	c.messages = nil
	c.errorText = ""
	c.agentTyping = false
	c.negotiating = false
	c.unread = false
	c.setStateLocked(domain.StateIdle)
	c.mu.Unlock()

	// A failed start leaves no session behind but the surface still needs
	// the transition back to idle.
	if stateChanged {
		c.notifyState(domain.StateIdle)
	}
	if !hadSession {
		return
	}
	c.notifyTyping(false)

	if room != nil {
		if err := room.Disconnect(); err != nil {
			log.L().Warn().Err(err).Msg("error during session teardown")
			c.notifyNotice("error", "Error", "Failed to end chat session properly")
			return
		}
	}
	audit.Log(context.Background(), audit.ActionEndSession, "", "chat session ended")
	c.notifyNotice("info", "Chat Ended", "Chat session has been ended")
}

// SetSurfaceVisible is fed by the presentation layer, the sole authority on
// visibility. A false-to-true transition clears the unread flag
// unconditionally.
func (c *Controller) SetSurfaceVisible(visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if visible && !c.surfaceVisible {
		c.unread = false
	}
	c.surfaceVisible = visible
}

// State returns the current connection state.
func (c *Controller) State() domain.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Negotiating reports whether a start attempt is in the window before the
// first connected or failed transition.
func (c *Controller) Negotiating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.negotiating
}

// Messages returns a copy of the message log.
func (c *Controller) Messages() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// AgentTyping reports whether the agent is composing a response.
func (c *Controller) AgentTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agentTyping
}

// Unread reports whether agent content arrived while the surface was hidden.
func (c *Controller) Unread() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// ErrorText returns the user-facing error from the last failed start, empty
// when none.
func (c *Controller) ErrorText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorText
}

// Session returns the active session, or nil.
func (c *Controller) Session() *domain.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

func (c *Controller) roomEvents(gen uint64) transport.Events {
	return transport.Events{
		OnConnected:    func() { c.handleConnected(gen) },
		OnDisconnected: func(reason string) { c.handleDisconnected(gen, reason) },
		OnReconnecting: func() { c.handleReconnecting(gen) },
		OnReconnected:  func() { c.handleReconnected(gen) },
		OnData:         func(payload []byte) { c.handleData(gen, payload) },
	}
}

func (c *Controller) handleConnected(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.negotiating = false
	c.errorText = ""
	c.setStateLocked(domain.StateConnected)
	msg := c.appendLocked(domain.KindSystem, "Connected! How can I help you today?", senderSystem)
	c.mu.Unlock()

	audit.Log(context.Background(), audit.ActionConnected, "", "connected to chat room")
	c.notifyState(domain.StateConnected)
	c.notifyMessage(msg)
	if c.listener != nil {
		c.listener.OnConnected()
	}
	c.notifyNotice("success", "Chat Started", "You can now start messaging")
}

func (c *Controller) handleDisconnected(gen uint64, reason string) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.negotiating = false
	c.setStateLocked(domain.StateDisconnected)
	msg := c.appendLocked(domain.KindSystem, "Chat session ended", senderSystem)
	c.mu.Unlock()

	audit.LogWithDetail(context.Background(), audit.ActionDisconnected, "", reason, "disconnected from chat room")
	c.notifyState(domain.StateDisconnected)
	c.notifyMessage(msg)
}

func (c *Controller) handleReconnecting(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(domain.StateReconnecting)
	msg := c.appendLocked(domain.KindSystem, "Reconnecting...", senderSystem)
	c.mu.Unlock()

	audit.Log(context.Background(), audit.ActionReconnecting, "", "reconnecting to chat room")
	c.notifyState(domain.StateReconnecting)
	c.notifyMessage(msg)
}

func (c *Controller) handleReconnected(gen uint64) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(domain.StateConnected)
	msg := c.appendLocked(domain.KindSystem, "Reconnected successfully", senderSystem)
	c.mu.Unlock()

	c.notifyState(domain.StateConnected)
	c.notifyMessage(msg)
}

func (c *Controller) handleData(gen uint64, payload []byte) {
	event, err := codec.Decode(payload)
	if err != nil {
		// Malformed frames are dropped, never fatal.
		log.L().Warn().Err(err).Msg("dropping malformed inbound frame")
		return
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}

	var msg *domain.ChatMessage
	var typingChanged bool
	switch event.Type {
	case codec.EventAgentText:
		if c.agentTyping {
			c.agentTyping = false
			typingChanged = true
		}
		m := c.appendLocked(domain.KindAgent, event.Content, senderAgent)
		msg = &m
	case codec.EventToolStart:
		if !c.agentTyping {
			c.agentTyping = true
			typingChanged = true
		}
		m := c.appendLocked(domain.KindSystem, event.Content, senderSystem)
		msg = &m
	case codec.EventToolSuccess, codec.EventToolError:
		m := c.appendLocked(domain.KindSystem, event.Content, senderSystem)
		msg = &m
	case codec.EventTextComplete:
		// Parsed but deliberately without observable effect.
	case codec.EventIgnored:
	}
	typing := c.agentTyping
	c.mu.Unlock()

	if typingChanged {
		c.notifyTyping(typing)
	}
	if msg != nil {
		c.notifyMessage(*msg)
	}
}

// failStart resolves a start attempt into the failed state, unless the
// attempt was superseded in the meantime.
func (c *Controller) failStart(ctx context.Context, gen uint64, userID string, err error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.negotiating = false
	c.errorText = userFacing(err)
	c.setStateLocked(domain.StateFailed)
	c.mu.Unlock()

	log.Ctx(ctx).Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to start chat session")
	audit.LogWithDetail(ctx, audit.ActionStartFailed, userID, err.Error(), "chat session start failed")
	c.notifyState(domain.StateFailed)
	c.notifyNotice("error", "Connection Failed", userFacing(err))
}

// appendLocked appends one immutable entry to the message log and updates
// the unread flag. Caller holds c.mu.
func (c *Controller) appendLocked(kind domain.MessageKind, content, sender string) domain.ChatMessage {
	msg := domain.NewChatMessage(kind, content, sender, c.now())
	c.messages = append(c.messages, msg)
	if shouldFlagUnread(kind, c.surfaceVisible) {
		c.unread = true
	}
	return msg
}

func (c *Controller) setStateLocked(s domain.ConnectionState) {
	c.state = s
}

func (c *Controller) notifyMessage(msg domain.ChatMessage) {
	if c.listener != nil {
		c.listener.OnMessage(msg)
	}
}

func (c *Controller) notifyState(s domain.ConnectionState) {
	if c.listener != nil {
		c.listener.OnStateChange(s)
	}
}

func (c *Controller) notifyTyping(typing bool) {
	if c.listener != nil {
		c.listener.OnTyping(typing)
	}
}

func (c *Controller) notifyNotice(severity, summary, detail string) {
	if c.listener != nil {
		c.listener.OnNotice(severity, summary, detail)
	}
}

// userFacing reduces an error to the string shown in the error state. For
// protocol errors that is the server-reported reason.
func userFacing(err error) string {
	var perr *domain.ProtocolError
	if errors.As(err, &perr) {
		return perr.Reason
	}
	return err.Error()
}
