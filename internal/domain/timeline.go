package domain

// Timeline event types
const (
	EventTypeCommandEnqueued  = "COMMAND_ENQUEUED"
	EventTypeCommandExecuted  = "COMMAND_EXECUTED"
	EventTypeCommandFailed    = "COMMAND_FAILED"
	EventTypeCommandCancelled = "COMMAND_CANCELLED"
	EventTypeSessionStarted   = "SESSION_STARTED"
	EventTypeSessionPaused    = "SESSION_PAUSED"
	EventTypeSessionResumed   = "SESSION_RESUMED"
	EventTypeSessionFinished  = "SESSION_FINISHED"
	EventTypeSessionFailed    = "SESSION_FAILED"
	EventTypeBalanceCredited  = "BALANCE_CREDITED"
)

// Timeline resource types
const (
	ResourceCommand = "command"
	ResourceSession = "wash_session"
	ResourceKiosk   = "kiosk"
)
