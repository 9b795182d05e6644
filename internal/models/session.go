package models

import "time"

// Backend identifies how a session's agent process is driven.
type Backend string

// Supported backends.
const (
	BackendSDK Backend = "sdk"
	BackendCLI Backend = "cli"
	BackendPTY Backend = "pty"
)

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	StatusStarting  SessionStatus = "starting"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusError     SessionStatus = "error"
	StatusCancelled SessionStatus = "cancelled"
)

// IsTerminal returns true if the status is one of the three terminal states.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// Session represents one tracked background agent process.
// The tracked ID is stable for the life of the session; the agent runtime's
// own session id is volatile and lives only in hook event payloads.
type Session struct {
	ID            string        `yaml:"id" json:"id"`
	Backend       Backend       `yaml:"backend" json:"backend"`
	Prompt        string        `yaml:"prompt,omitempty" json:"prompt,omitempty"`
	Command       string        `yaml:"command,omitempty" json:"command,omitempty"`
	Cwd           string        `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Model         string        `yaml:"model,omitempty" json:"model,omitempty"`
	Role          string        `yaml:"role,omitempty" json:"role,omitempty"`
	Status        SessionStatus `yaml:"status" json:"status"`
	StartedAt     time.Time     `yaml:"started_at" json:"startedAt"`
	TotalCostUSD  float64       `yaml:"total_cost_usd,omitempty" json:"totalCostUsd,omitempty"`
	NumTurns      int           `yaml:"num_turns,omitempty" json:"numTurns,omitempty"`
	CurrentTool   string        `yaml:"current_tool,omitempty" json:"currentTool,omitempty"`
	ToolCallCount int           `yaml:"tool_call_count,omitempty" json:"toolCallCount,omitempty"`
	WaveID        string        `yaml:"wave_id,omitempty" json:"waveId,omitempty"`
	DependencyIDs []string      `yaml:"dependency_ids,omitempty" json:"dependencyIds,omitempty"`
}

// IsRunning returns true while the session is starting or running.
func (s *Session) IsRunning() bool {
	return !s.Status.IsTerminal()
}

// SpawnConfig contains the options for starting a new session.
type SpawnConfig struct {
	Backend       Backend  `json:"backend"`
	Prompt        string   `json:"prompt,omitempty"`
	Command       string   `json:"command,omitempty"`
	Cwd           string   `json:"cwd,omitempty"`
	Model         string   `json:"model,omitempty"`
	Role          string   `json:"role,omitempty"`
	WaveID        string   `json:"waveId,omitempty"`
	DependencyIDs []string `json:"dependencyIds,omitempty"`
}
