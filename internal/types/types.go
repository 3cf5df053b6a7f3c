package types

import (
	"github.com/DoyleJ11/lol-balancer/internal/engine"
	"github.com/DoyleJ11/lol-balancer/internal/lobby"
)

type ClientMessage struct {
	Type        string              `json:"type"`           // "Register" | "Update" | "Remove" | "Assign" | "RecordMatch"
	Name        string              `json:"name,omitempty"` // target of Update/Remove, seat for Assign
	Participant *engine.Participant `json:"participant,omitempty"`
	Role        string              `json:"role,omitempty"`
	Side        string              `json:"side,omitempty"`
	Winner      string              `json:"winner,omitempty"`
}

type ServerMessage struct {
	Type    string          `json:"type"` // "StateSnapshot" | "Error"
	Version int             `json:"version,omitempty"`
	State   *lobby.Snapshot `json:"state,omitempty"`
	Error   string          `json:"error,omitempty"`
}
