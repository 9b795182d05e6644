package models

import "time"

// DaemonInfo identifies the running daemon process.
// This corresponds to ~/.kuroryuu/daemon.yaml.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a new daemon info with current values.
func NewDaemonInfo(host string, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:   1,
		Host:      host,
		PID:       pid,
		StartedAt: time.Now().UTC(),
	}
}
