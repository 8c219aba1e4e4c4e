package log

const (
	// Session
	FieldRoomID        = "room_id"
	FieldParticipantID = "participant_id"
	FieldState         = "state"
	FieldGeneration    = "generation"

	// Actor
	FieldUserID   = "user_id"
	FieldUserName = "user_name"
	FieldAgentID  = "agent_id"

	// Wire
	FieldTopic  = "topic"
	FieldStatus = "status"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
