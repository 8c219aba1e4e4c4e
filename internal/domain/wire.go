package domain

// Application message types carried over the room data channel.
const (
	// Outgoing
	MsgTypeUserMessage = "user_message"

	// Incoming (agent side)
	MsgTypeText         = "text"
	MsgTypeTextChunk    = "text_chunk"
	MsgTypeTextComplete = "text_complete"
	MsgTypeToolStart    = "tool_start"
	MsgTypeToolSuccess  = "tool_success"
	MsgTypeToolError    = "tool_error"
)

// Wire sender values.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// TopicChatMessage is the logical subchannel chat payloads are published on.
const TopicChatMessage = "chat_message"

// WireMessage is the application-level frame payload, JSON over binary
// frames. There is no envelope versioning and no message id or ack field;
// delivery is fire and forget above the transport's reliable flag.
type WireMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Sender    string `json:"sender"`
}
