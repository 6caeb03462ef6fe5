package audit

import "time"

type LogLevel string

const (
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

type Action string

// Account events. Note operations are not audited.
const (
	ActionRegister            Action = "REGISTER"
	ActionRegisterRateLimited Action = "REGISTER_RATE_LIMITED"
	ActionLogin               Action = "LOGIN"
	ActionLoginFailed         Action = "LOGIN_FAILED"
	ActionLoginRateLimited    Action = "LOGIN_RATE_LIMITED"
	ActionAccountLocked       Action = "ACCOUNT_LOCKED"
	ActionFailedLoginBurst    Action = "FAILED_LOGIN_THRESHOLD"
)

type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Action    Action    `json:"action"`
	Resource  string    `json:"resource"`
	IPAddress string    `json:"ip_address,omitempty"`
	Success   bool      `json:"success"`
	ErrorMsg  string    `json:"error_msg,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
}

type QueryFilters struct {
	Since    *time.Time
	Until    *time.Time
	UserID   string
	Username string
	Action   Action
	Level    LogLevel
	Limit    int
}
