package audit

import (
	"context"

	"github.com/nitish-vaani/codeyoung/pkg/log"
)

// Audit actions for the chat session lifecycle.
const (
	ActionStartSession = "chat.start_session"
	ActionStartFailed  = "chat.start_failed"
	ActionConnected    = "chat.connected"
	ActionReconnecting = "chat.reconnecting"
	ActionDisconnected = "chat.disconnected"
	ActionSendMessage  = "chat.send_message"
	ActionSendFailed   = "chat.send_failed"
	ActionEndSession   = "chat.end_session"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with an extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
