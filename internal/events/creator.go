package events

import (
	"encoding/json"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

// Creator provides methods for creating event records
type Creator struct {
	app core.App
}

// NewCreator creates a new event creator
func NewCreator(app core.App) *Creator {
	return &Creator{app: app}
}

// CreateEvent creates a new event record in the events collection.
// This is a low-level method - prefer using specific typed methods below.
func (c *Creator) CreateEvent(eventType string, data map[string]interface{}) error {
	collection, err := c.app.FindCollectionByNameOrId("events")
	if err != nil {
		return fmt.Errorf("events collection not found: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("type", eventType)

	if data != nil {
		dataJSON, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		record.Set("data", string(dataJSON))
	}

	if err := c.app.Save(record); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}

	return nil
}

// CreateLobbyResetEvent records a lobby transfer or game start.
func (c *Creator) CreateLobbyResetEvent() error {
	return c.CreateEvent(TypeLobbyReset, map[string]interface{}{})
}

// CreatePlayerListEvent records a /who roster with its player count.
func (c *Creator) CreatePlayerListEvent(players []string) error {
	return c.CreateEvent(TypePlayerList, map[string]interface{}{
		"players": players,
		"count":   len(players),
	})
}

// CreateTeamJoinEvent records an observed team join announcement.
func (c *Creator) CreateTeamJoinEvent(playerName, team string) error {
	return c.CreateEvent(TypeTeamJoin, map[string]interface{}{
		"player_name": playerName,
		"team":        team,
	})
}

// CreateTeamChatEvent records a teammate discovered through team chat.
func (c *Creator) CreateTeamChatEvent(playerName string) error {
	return c.CreateEvent(TypeTeamChat, map[string]interface{}{
		"player_name": playerName,
	})
}

// CreateAppStartedEvent creates an app started event
func (c *Creator) CreateAppStartedEvent(version string) error {
	return c.CreateEvent(TypeAppStarted, map[string]interface{}{
		"version": version,
	})
}

// CreateAppShutdownEvent creates an app shutdown event
func (c *Creator) CreateAppShutdownEvent() error {
	return c.CreateEvent(TypeAppShutdown, map[string]interface{}{})
}
