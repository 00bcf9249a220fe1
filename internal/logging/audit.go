package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType identifies what kind of pipeline operation an audit
// event records.
type AuditEventType string

const (
	// Request-level events, one per CLI invocation.
	AuditRoadmapRequest AuditEventType = "roadmap_request"
	AuditCollegeSearch  AuditEventType = "college_search"
	AuditTemplateList   AuditEventType = "template_list"

	// Stage-level events.
	AuditNormalize      AuditEventType = "normalize"
	AuditRoadmapResolve AuditEventType = "roadmap_resolve"
	AuditDetailsResolve AuditEventType = "details_resolve"
	AuditProbeBatch     AuditEventType = "probe_batch"
	AuditLLMCall        AuditEventType = "llm_call"
)

// AuditEvent is a single JSONL audit record. Events capture what the
// pipeline decided (sources, confidence, counts) rather than payloads,
// so the audit log stays small enough to keep indefinitely.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"` // Unix milliseconds
	EventType  AuditEventType         `json:"event"`
	Target     string                 `json:"target,omitempty"` // career, college, model, ...
	Source     string                 `json:"source,omitempty"` // cache | template | llm_generated | extracted
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

var (
	auditFile *os.File
	auditMu   sync.Mutex
)

// InitAudit opens the audit log file. A no-op unless debug mode is on.
// Initialize must have been called first so the logs directory exists.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file
	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// AuditLog writes one audit event. Timestamp is filled in if zero.
// Silently drops the event when auditing is not initialized.
func AuditLog(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	auditFile.Write(append(data, '\n'))
}

// AuditRoadmap records the outcome of a roadmap resolution.
func AuditRoadmap(career, source string, confidence float64, duration time.Duration, err error) {
	event := AuditEvent{
		EventType:  AuditRoadmapResolve,
		Target:     career,
		Source:     source,
		Success:    err == nil,
		DurationMs: duration.Milliseconds(),
		Fields:     map[string]interface{}{"confidence": confidence},
	}
	if err != nil {
		event.Error = err.Error()
	}
	AuditLog(event)
}

// AuditDetails records the outcome of a college detail resolution.
func AuditDetails(college, source string, missing int, duration time.Duration, err error) {
	event := AuditEvent{
		EventType:  AuditDetailsResolve,
		Target:     college,
		Source:     source,
		Success:    err == nil,
		DurationMs: duration.Milliseconds(),
		Fields:     map[string]interface{}{"missing_fields": missing},
	}
	if err != nil {
		event.Error = err.Error()
	}
	AuditLog(event)
}

// AuditProbes records a completed probe fan-out.
func AuditProbes(degree, branch string, offering, total int, duration time.Duration) {
	AuditLog(AuditEvent{
		EventType:  AuditProbeBatch,
		Target:     degree + "/" + branch,
		Success:    true,
		DurationMs: duration.Milliseconds(),
		Fields: map[string]interface{}{
			"offering": offering,
			"total":    total,
		},
	})
}
