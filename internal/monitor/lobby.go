package monitor

import (
	"strings"
	"sync"
	"time"
)

// SameTeam is the team tag recorded when a team-chat line reveals that
// a player shares the local player's team without revealing the actual
// color. It contains a space so no single-word color token from a join
// announcement can ever collide with it.
const SameTeam = "YOUR TEAM"

// Session is the mutable lobby state for one monitoring session: every
// player observed since the last reset, plus the team tag for each
// player whose team is known. A roster announcement is evidence of
// presence but never of absence, so players accumulate until an
// explicit reset.
type Session struct {
	mu          sync.Mutex
	allPlayers  map[string]struct{}
	playerTeams map[string]string
	lastReset   time.Time
}

// NewSession creates an empty session.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset clears all tracked players and team assignments and refreshes
// the reset timestamp. Called on construction, on every lobby-reset
// event, and when monitoring (re)starts.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allPlayers = make(map[string]struct{})
	s.playerTeams = make(map[string]string)
	s.lastReset = time.Now()
}

// RecordPlayerList strips each raw name, discards the ones that strip
// to nothing, merges the survivors into the session, and returns the
// complete current player list (not just the newly seen names).
func (s *Session) RecordPlayerList(rawNames []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range rawNames {
		if name := StripName(raw); name != "" {
			s.allPlayers[name] = struct{}{}
		}
	}
	return s.playersLocked()
}

// RecordTeamChat notes that a player spoke in team chat, which marks
// them as a teammate of the local player. Returns true if this is new
// team information, false if the player's team was already known or
// the name stripped to nothing.
func (s *Session) RecordTeamChat(rawName string) bool {
	name := StripName(rawName)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, known := s.playerTeams[name]; known {
		return false
	}
	s.playerTeams[name] = SameTeam
	s.allPlayers[name] = struct{}{}
	return true
}

// RecordTeamJoin records a player joining a specifically colored team.
// Color tokens are upper-cased so casing differences in the log never
// split one team into two. A join supersedes an earlier same-team
// sentinel for the same player. Returns false when either the name or
// the color is unusable.
func (s *Session) RecordTeamJoin(rawName, rawColor string) bool {
	name := StripName(rawName)
	color := strings.ToUpper(strings.TrimSpace(rawColor))
	if name == "" || color == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerTeams[name] = color
	s.allPlayers[name] = struct{}{}
	return true
}

// TeamOf returns the recorded team tag for a player, if any.
func (s *Session) TeamOf(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.playerTeams[name]
	return team, ok
}

// SnapshotTeams returns a defensive copy of the player-to-team map.
func (s *Session) SnapshotTeams() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	teams := make(map[string]string, len(s.playerTeams))
	for name, team := range s.playerTeams {
		teams[name] = team
	}
	return teams
}

// Players returns all players observed since the last reset.
func (s *Session) Players() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playersLocked()
}

// TeamPlayers returns only the players whose team is known. Used as a
// best-effort roster when no /who announcement has been seen yet.
func (s *Session) TeamPlayers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.playerTeams))
	for name := range s.playerTeams {
		names = append(names, name)
	}
	return names
}

// LastReset returns when the session was last cleared. Advisory only.
func (s *Session) LastReset() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReset
}

func (s *Session) playersLocked() []string {
	names := make([]string, 0, len(s.allPlayers))
	for name := range s.allPlayers {
		names = append(names, name)
	}
	return names
}
