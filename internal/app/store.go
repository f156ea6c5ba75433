package app

import (
	"encoding/json"
	"fmt"

	"hypestats/internal/nick"
	"hypestats/internal/stats"

	"github.com/pocketbase/pocketbase/core"
)

// recordStore persists ranked lobby results into the players and
// lobbies collections.
type recordStore struct {
	app core.App
}

// SavePlayers upserts one record per player, keyed by username.
func (s *recordStore) SavePlayers(players []stats.Player) error {
	collection, err := s.app.FindCollectionByNameOrId("players")
	if err != nil {
		return fmt.Errorf("players collection not found: %w", err)
	}

	for _, p := range players {
		record, err := s.app.FindFirstRecordByFilter(
			"players",
			"username = {:username}",
			map[string]any{"username": p.Username},
		)
		if err != nil {
			record = core.NewRecord(collection)
			record.Set("username", p.Username)
		}

		record.Set("uuid", p.UUID)
		record.Set("bedwars_stars", p.BedwarsStars)
		record.Set("fkdr", p.FKDR)
		record.Set("wlr", p.WLR)
		record.Set("bblr", p.BBLR)
		record.Set("nick_score", p.NickScore)

		doc, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal player %s: %w", p.Username, err)
		}
		record.Set("stats", string(doc))

		if err := s.app.Save(record); err != nil {
			return fmt.Errorf("failed to save player %s: %w", p.Username, err)
		}
	}

	return nil
}

// SaveLobby appends one snapshot record for the ranked lobby.
func (s *recordStore) SaveLobby(players []stats.Player, analysis nick.LobbyAnalysis) error {
	collection, err := s.app.FindCollectionByNameOrId("lobbies")
	if err != nil {
		return fmt.Errorf("lobbies collection not found: %w", err)
	}

	record := core.NewRecord(collection)

	playersDoc, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("failed to marshal lobby players: %w", err)
	}
	record.Set("players", string(playersDoc))

	teams := make(map[string]string)
	for _, p := range players {
		if p.Team != "" {
			teams[p.Username] = p.Team
		}
	}
	teamsDoc, err := json.Marshal(teams)
	if err != nil {
		return fmt.Errorf("failed to marshal lobby teams: %w", err)
	}
	record.Set("teams", string(teamsDoc))

	record.Set("total_players", analysis.TotalPlayers)
	record.Set("suspected_nicks", analysis.SuspectedNicks)
	record.Set("nick_percentage", analysis.NickPercentage)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("failed to save lobby snapshot: %w", err)
	}

	return nil
}
