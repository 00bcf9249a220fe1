// Package pipeline holds the typed failure vocabulary shared by the
// roadmap and college pipelines.
package pipeline

import "fmt"

// Error codes surfaced to callers. These are the stable, machine-
// readable identities of pipeline failures.
const (
	CodeInvalidCareerGoal = "invalid_career_goal"
	CodeInvalidJSON       = "invalid_json_after_retries"
	CodeIncomplete        = "incomplete_roadmap_after_retries"
	CodeTimeout           = "timeout_exceeded"
	CodeQuotaExhausted    = "quota_exhausted"
	CodeAPIError          = "api_error"
	CodeUnexpected        = "unexpected_error"
)

// Error is a typed pipeline failure carrying a stable error code and a
// human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf constructs a typed pipeline failure.
func Errorf(code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
