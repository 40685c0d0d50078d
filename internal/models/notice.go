package models

import "time"

// NoticeLevel classifies how a notice should be presented.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message about a recoverable failure or state
// change (link lost, decode error, export failure). Notices are surfaced
// through the status API and never abort the process.
type Notice struct {
	Level     NoticeLevel `json:"level"`
	Origin    string      `json:"origin"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}
