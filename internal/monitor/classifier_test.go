package monitor

import (
	"reflect"
	"testing"
)

func TestClassifyPlayerList(t *testing.T) {
	c := NewClassifier()

	testCases := []struct {
		name     string
		line     string
		expected []string
	}{
		{
			name:     "roster with count",
			line:     "[12:01:44] [Client thread/INFO]: [CHAT] ONLINE: Alice, Bob, Carol (3)",
			expected: []string{"Alice", "Bob", "Carol"},
		},
		{
			name:     "roster without count",
			line:     "ONLINE: Alice, Bob, Carol",
			expected: []string{"Alice", "Bob", "Carol"},
		},
		{
			name:     "explicitly empty roster",
			line:     "ONLINE: None",
			expected: []string{},
		},
		{
			name:     "whitespace around names",
			line:     "ONLINE:   Alice ,  Bob ,Carol  (3)",
			expected: []string{"Alice", "Bob", "Carol"},
		},
		{
			name:     "empty fragments discarded",
			line:     "ONLINE: Alice,, ,Bob",
			expected: []string{"Alice", "Bob"},
		},
		{
			name:     "duplicates collapsed preserving order",
			line:     "ONLINE: Alice, Bob, Alice",
			expected: []string{"Alice", "Bob"},
		},
		{
			name:     "single player",
			line:     "ONLINE: Alice (1)",
			expected: []string{"Alice"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event := c.Classify(tc.line)
			if event.Type != EventPlayerList {
				t.Fatalf("expected EventPlayerList, got %v", event.Type)
			}
			if !reflect.DeepEqual(event.Players, tc.expected) {
				t.Errorf("expected players %v, got %v", tc.expected, event.Players)
			}
		})
	}
}

func TestClassifyLobbyReset(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{
			name: "lobby transfer",
			line: "[12:00:01] [Client thread/INFO]: [CHAT] Sending you to mini121A!",
		},
		{
			name: "game start",
			line: "[12:05:30] [Client thread/INFO]: [CHAT] The game has started!",
		},
	}

	c := NewClassifier()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if event := c.Classify(tc.line); event.Type != EventLobbyReset {
				t.Errorf("expected EventLobbyReset, got %v", event.Type)
			}
		})
	}
}

func TestClassifyTeamChat(t *testing.T) {
	testCases := []struct {
		name         string
		line         string
		expectedName string
	}{
		{
			name:         "with rank tag",
			line:         "[12:03:10] [Client thread/INFO]: [CHAT] [TEAM] [MVP+] Alice: rush mid",
			expectedName: "Alice",
		},
		{
			name:         "without rank tag",
			line:         "[CHAT] [TEAM] Bob: need wool",
			expectedName: "Bob",
		},
	}

	c := NewClassifier()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event := c.Classify(tc.line)
			if event.Type != EventTeamChat {
				t.Fatalf("expected EventTeamChat, got %v", event.Type)
			}
			if event.Name != tc.expectedName {
				t.Errorf("expected name %q, got %q", tc.expectedName, event.Name)
			}
		})
	}
}

func TestClassifyTeamJoin(t *testing.T) {
	c := NewClassifier()

	event := c.Classify("[CHAT] Dave has joined the RED team!")
	if event.Type != EventTeamJoin {
		t.Fatalf("expected EventTeamJoin, got %v", event.Type)
	}
	if event.Name != "Dave" {
		t.Errorf("expected name Dave, got %q", event.Name)
	}
	if event.Color != "RED" {
		t.Errorf("expected color RED, got %q", event.Color)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	testCases := []struct {
		name string
		line string
	}{
		{name: "plain chatter", line: "Hello world"},
		{name: "client noise", line: "[12:00:00] [Client thread/INFO]: Loaded 15 advancements"},
		{name: "empty line", line: ""},
		{name: "global chat", line: "[CHAT] [VIP] Eve: where is everyone?"},
	}

	c := NewClassifier()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if event := c.Classify(tc.line); event.Type != EventNone {
				t.Errorf("expected EventNone, got %v", event.Type)
			}
		})
	}
}

// A line can only be one event type: the reset marker wins even when
// the same line would also match another pattern.
func TestClassifyPrecedence(t *testing.T) {
	c := NewClassifier()

	event := c.Classify("Sending you to lobby ONLINE: Alice, Bob")
	if event.Type != EventLobbyReset {
		t.Errorf("expected reset to take precedence, got %v", event.Type)
	}
}
