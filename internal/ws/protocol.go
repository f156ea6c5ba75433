package ws

import (
	"hypestats/internal/nick"
	"hypestats/internal/stats"
)

// Message types pushed to UI clients.
const (
	MsgSnapshot = "snapshot" // full lobby state, sent on connect
	MsgPlayers  = "players"  // ranked lobby after a roster update
	MsgTeam     = "team"     // single team assignment
	MsgReset    = "reset"    // lobby cleared
)

// Message is the envelope for every frame on the wire.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// PlayersPayload carries the ranked lobby table.
type PlayersPayload struct {
	Players  []stats.Player     `json:"players"`
	Teams    map[string]string  `json:"teams"`
	Analysis nick.LobbyAnalysis `json:"analysis"`
}

// TeamPayload carries one team assignment.
type TeamPayload struct {
	Name string `json:"name"`
	Team string `json:"team"`
}
