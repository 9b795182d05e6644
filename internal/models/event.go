package models

import (
	"encoding/json"
	"time"
)

// EventType identifies the lifecycle point a hook event was emitted at.
type EventType string

// The fixed set of hook event types emitted by the agent runtime.
const (
	EventSessionStart      EventType = "SessionStart"
	EventSessionEnd        EventType = "SessionEnd"
	EventUserPromptSubmit  EventType = "UserPromptSubmit"
	EventPreToolUse        EventType = "PreToolUse"
	EventPostToolUse       EventType = "PostToolUse"
	EventPostToolUseFailed EventType = "PostToolUseFailed"
	EventPermissionRequest EventType = "PermissionRequest"
	EventNotification      EventType = "Notification"
	EventStop              EventType = "Stop"
	EventSubagentStart     EventType = "SubagentStart"
	EventSubagentStop      EventType = "SubagentStop"
	EventPreCompact        EventType = "PreCompact"
)

// CorrelationKey is the payload field that carries a tracked session id.
const CorrelationKey = "correlationId"

// HookEvent is one immutable telemetry record from the agent runtime.
//
// RuntimeSessionID is assigned by the runtime and may change across
// compaction or resume; the stable tracked id only appears in the payload
// under CorrelationKey.
type HookEvent struct {
	ID               int64          `json:"id"`
	SourceApp        string         `json:"sourceApp"`
	RuntimeSessionID string         `json:"sessionId"`
	AgentID          string         `json:"agentId,omitempty"`
	EventType        EventType      `json:"eventType"`
	ToolName         string         `json:"toolName,omitempty"`
	Payload          map[string]any `json:"payload,omitempty"`
	ModelName        string         `json:"modelName,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
}

// CorrelationID returns the tracked session id embedded in the payload,
// or "" if the event carries none.
func (e *HookEvent) CorrelationID() string {
	if e.Payload == nil {
		return ""
	}
	if v, ok := e.Payload[CorrelationKey].(string); ok {
		return v
	}
	return ""
}

// PayloadJSON returns the payload serialized as JSON. Used for free-text
// searching; returns "" when the payload is empty or unserializable.
func (e *HookEvent) PayloadJSON() string {
	if len(e.Payload) == 0 {
		return ""
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return ""
	}
	return string(data)
}
