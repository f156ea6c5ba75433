package events

// Event type constants for the events collection
const (
	// Lobby events
	TypeLobbyReset = "lobby_reset"
	TypePlayerList = "player_list"
	TypeTeamJoin   = "team_join"
	TypeTeamChat   = "team_chat"

	// System events
	TypeAppStarted  = "app_started"
	TypeAppShutdown = "app_shutdown"
)
