// Package graph derives a node/edge visualization graph from the session set.
package graph

import (
	"fmt"
	"math"

	"github.com/ahostbr/kuroryuu/internal/models"
)

// NodeKind classifies a graph node.
type NodeKind string

const (
	NodeHub     NodeKind = "hub"
	NodeWave    NodeKind = "wave"
	NodeSession NodeKind = "session"
)

// Edge status values, used by the renderer for coloring.
const (
	EdgeRunning = "running"
	EdgeSuccess = "success"
	EdgeFailure = "failure"
	EdgeIdle    = "idle"
)

// Layout geometry.
const (
	radialRadius = 260.0
	waveSpacingX = 240.0
	waveOffsetY  = 140.0
	rowSpacingY  = 110.0
)

// HubID is the node id of the synthetic hub.
const HubID = "hub"

// HubCounts are the aggregate session counts annotated on the hub node.
type HubCounts struct {
	Total     int
	Running   int
	Completed int
	Failed    int
}

// Node is one node of the derived graph. Entirely recomputed on each
// rebuild; never persisted.
type Node struct {
	ID     string
	Kind   NodeKind
	Label  string
	X, Y   float64
	Status models.SessionStatus // session nodes only
	Counts *HubCounts           // hub node only
}

// Edge is one edge of the derived graph. Animated marks edges whose
// source work is still running.
type Edge struct {
	From     string
	To       string
	Animated bool
	Status   string
}

// Graph is the full derived layout.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// BuildLayout maps the current session set to a visualization graph.
// Pure and deterministic: same input produces the same layout.
//
// Without wave ids, sessions sit on a circle around the hub. With wave
// ids, wave groups run left-to-right in submission order with their
// sessions stacked beneath, and waveless sessions form one extra column
// on the right.
func BuildLayout(sessions []models.Session) *Graph {
	g := &Graph{}
	g.Nodes = append(g.Nodes, hubNode(sessions))

	hasWaves := false
	for i := range sessions {
		if sessions[i].WaveID != "" {
			hasWaves = true
			break
		}
	}

	if hasWaves {
		buildWaveLayout(g, sessions)
	} else {
		buildRadialLayout(g, sessions)
	}
	return g
}

// hubNode builds the synthetic hub with its aggregate counts.
func hubNode(sessions []models.Session) Node {
	counts := &HubCounts{Total: len(sessions)}
	for i := range sessions {
		switch sessions[i].Status {
		case models.StatusCompleted:
			counts.Completed++
		case models.StatusError, models.StatusCancelled:
			counts.Failed++
		default:
			counts.Running++
		}
	}
	return Node{
		ID:     HubID,
		Kind:   NodeHub,
		Label:  fmt.Sprintf("%d total · %d running · %d completed · %d failed", counts.Total, counts.Running, counts.Completed, counts.Failed),
		Counts: counts,
	}
}

// buildRadialLayout places all sessions on a circle around the hub,
// first node at the top, evenly spaced.
func buildRadialLayout(g *Graph, sessions []models.Session) {
	n := len(sessions)
	for i := range sessions {
		angle := 2 * math.Pi * float64(i) / float64(n)
		node := sessionNode(&sessions[i])
		node.X = radialRadius * math.Sin(angle)
		node.Y = -radialRadius * math.Cos(angle)
		g.Nodes = append(g.Nodes, node)
		g.Edges = append(g.Edges, sessionEdge(HubID, &sessions[i]))
	}
}

// buildWaveLayout groups sessions by wave id, columns left-to-right in
// submission order, sessions stacked beneath each wave group. Sessions
// without a wave id get one extra column to the right.
func buildWaveLayout(g *Graph, sessions []models.Session) {
	var waveOrder []string
	byWave := make(map[string][]*models.Session)
	var loose []*models.Session

	for i := range sessions {
		s := &sessions[i]
		if s.WaveID == "" {
			loose = append(loose, s)
			continue
		}
		if _, ok := byWave[s.WaveID]; !ok {
			waveOrder = append(waveOrder, s.WaveID)
		}
		byWave[s.WaveID] = append(byWave[s.WaveID], s)
	}

	cols := len(waveOrder)
	if len(loose) > 0 {
		cols++
	}
	colX := func(col int) float64 {
		return (float64(col) - float64(cols-1)/2) * waveSpacingX
	}

	for col, waveID := range waveOrder {
		members := byWave[waveID]
		x := colX(col)

		running := 0
		for _, s := range members {
			if s.IsRunning() {
				running++
			}
		}

		groupID := "wave:" + waveID
		g.Nodes = append(g.Nodes, Node{
			ID:    groupID,
			Kind:  NodeWave,
			Label: waveID,
			X:     x,
			Y:     waveOffsetY,
		})
		g.Edges = append(g.Edges, Edge{
			From:     HubID,
			To:       groupID,
			Animated: running > 0,
			Status:   waveStatus(running, members),
		})

		// Stage ordering edge: wave(i) → wave(i+1), animated until every
		// session of wave(i) has left the running state.
		if col > 0 {
			prevID := waveOrder[col-1]
			prevRunning := 0
			for _, s := range byWave[prevID] {
				if s.IsRunning() {
					prevRunning++
				}
			}
			g.Edges = append(g.Edges, Edge{
				From:     "wave:" + prevID,
				To:       groupID,
				Animated: prevRunning > 0,
				Status:   EdgeIdle,
			})
		}

		for row, s := range members {
			node := sessionNode(s)
			node.X = x
			node.Y = waveOffsetY + rowSpacingY*float64(row+1)
			g.Nodes = append(g.Nodes, node)
			g.Edges = append(g.Edges, sessionEdge(groupID, s))
		}
	}

	// Waveless sessions: rightmost column, radial per-node logic arranged
	// vertically.
	if len(loose) > 0 {
		x := colX(cols - 1)
		for row, s := range loose {
			node := sessionNode(s)
			node.X = x
			node.Y = waveOffsetY + rowSpacingY*float64(row)
			g.Nodes = append(g.Nodes, node)
			g.Edges = append(g.Edges, sessionEdge(HubID, s))
		}
	}
}

// sessionNode builds the node for one session (position set by caller).
func sessionNode(s *models.Session) Node {
	label := s.ID
	if s.Role != "" {
		label = s.Role + " · " + s.ID
	}
	return Node{
		ID:     "session:" + s.ID,
		Kind:   NodeSession,
		Label:  label,
		Status: s.Status,
	}
}

// sessionEdge builds the edge into a session node, animated while the
// session runs and colored by terminal outcome.
func sessionEdge(from string, s *models.Session) Edge {
	return Edge{
		From:     from,
		To:       "session:" + s.ID,
		Animated: s.IsRunning(),
		Status:   statusColor(s.Status),
	}
}

func statusColor(status models.SessionStatus) string {
	switch status {
	case models.StatusCompleted:
		return EdgeSuccess
	case models.StatusError, models.StatusCancelled:
		return EdgeFailure
	default:
		return EdgeRunning
	}
}

func waveStatus(running int, members []*models.Session) string {
	if running > 0 {
		return EdgeRunning
	}
	for _, s := range members {
		if s.Status == models.StatusError || s.Status == models.StatusCancelled {
			return EdgeFailure
		}
	}
	return EdgeSuccess
}
