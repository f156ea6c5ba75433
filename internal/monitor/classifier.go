package monitor

import (
	"regexp"
	"strings"
)

// EventType identifies what kind of lobby information a log line carried.
type EventType int

const (
	EventNone EventType = iota
	EventLobbyReset
	EventPlayerList
	EventTeamChat
	EventTeamJoin
)

// Event is the structured payload extracted from a single log line.
// At most one event is produced per line; Type tells which payload
// fields are meaningful.
type Event struct {
	Type    EventType
	Players []string // EventPlayerList: raw (unstripped) name fragments
	Name    string   // EventTeamChat / EventTeamJoin: raw name
	Color   string   // EventTeamJoin: raw color word
}

// Literal markers emitted by the client when the local player is moved
// to a new lobby or a game begins. Both clear the tracked lobby.
// These strings match the log producer exactly and must not be changed.
const (
	lobbyTransferMarker = "Sending you to "
	gameStartMarker     = "The game has started!"
)

// linePatterns holds the compiled regex patterns for lobby log parsing
type linePatterns struct {
	PlayerList *regexp.Regexp
	TeamChat   *regexp.Regexp
	TeamJoin   *regexp.Regexp
}

func newLinePatterns() *linePatterns {
	return &linePatterns{
		// /who output: "ONLINE: Alice, Bob, Carol (3)" - the trailing
		// parenthesized count is optional. "ONLINE: None" is a valid,
		// explicitly empty roster.
		PlayerList: regexp.MustCompile(`ONLINE:\s*(.*?)(?:\s*\(\d+\))?\s*$`),

		// Team-only chat: "[TEAM] [MVP+] Alice: rush mid". Rank tags
		// between [TEAM] and the name are optional and skipped.
		TeamChat: regexp.MustCompile(`\[TEAM\]\s*(?:\[[^\]]+\]\s*)*([^:\[\]]+?)\s*:`),

		// Team assignment: "Alice has joined the RED team!". Names are
		// single tokens, so the capture stops at whitespace.
		TeamJoin: regexp.MustCompile(`(\S+) has joined the (\w+) team`),
	}
}

// Classifier tests single log lines against the known lobby patterns.
// It is pure: classification never touches session or tail state.
type Classifier struct {
	patterns *linePatterns
}

// NewClassifier creates a classifier with all patterns compiled.
func NewClassifier() *Classifier {
	return &Classifier{patterns: newLinePatterns()}
}

// Classify produces zero or one event for a line. Precedence: a
// lobby-reset marker wins over a roster announcement, which wins over
// team chat, which wins over a team join. A line that matches nothing
// yields EventNone, which is the normal case for most log traffic.
func (c *Classifier) Classify(line string) Event {
	if strings.Contains(line, lobbyTransferMarker) || strings.Contains(line, gameStartMarker) {
		return Event{Type: EventLobbyReset}
	}

	if m := c.patterns.PlayerList.FindStringSubmatch(line); m != nil {
		return Event{Type: EventPlayerList, Players: splitRoster(m[1])}
	}

	if m := c.patterns.TeamChat.FindStringSubmatch(line); m != nil {
		return Event{Type: EventTeamChat, Name: strings.TrimSpace(m[1])}
	}

	if m := c.patterns.TeamJoin.FindStringSubmatch(line); m != nil {
		return Event{Type: EventTeamJoin, Name: strings.TrimSpace(m[1]), Color: m[2]}
	}

	return Event{Type: EventNone}
}

// splitRoster splits the captured roster text into raw name fragments.
// The literal word "None" means the server reported an empty lobby;
// that is a matched roster with zero entries, not a parse failure.
func splitRoster(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" || text == "None" {
		return []string{}
	}

	parts := strings.Split(text, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
