// Package nick scores how likely a player is to be hiding behind a
// disposable alias. The heuristics are deliberately crude: they flag
// profiles that look too empty for the account's apparent experience.
// Treat the score as a hint for the table, nothing more.
package nick

import (
	"math"

	"hypestats/internal/stats"
)

// Score bands for the textual description.
const (
	bandPossibly = 0.2
	bandProbably = 0.4
	bandVery     = 0.7
)

// SuspectThreshold is the score at or above which a player is counted
// as a suspected nick in lobby analysis.
const SuspectThreshold = 0.4

// Estimate returns a 0.0-1.0 confidence that the player is nicked.
func Estimate(p stats.Player) float64 {
	if p == (stats.Player{}) {
		return 0.0
	}

	score := 0.0

	// Seasoned network account with no Bedwars history.
	if p.HypixelLevel > 50 && p.BedwarsStars < 5 {
		score += 0.3
	}

	// Barely any achievements.
	if p.AchievementPoints < 500 {
		score += 0.2
	}

	// Profile is mostly zeroes.
	if emptyFieldCount(p) > statFieldCount/2 {
		score += 0.25
	}

	// Account younger than a week.
	if p.FirstLogin > 0 && p.LastLogin > 0 {
		ageDays := float64(p.LastLogin-p.FirstLogin) / (1000 * 60 * 60 * 24)
		if ageDays < 7 {
			score += 0.25
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// statFieldCount is how many profile fields emptyFieldCount inspects.
const statFieldCount = 12

func emptyFieldCount(p stats.Player) int {
	empty := 0
	for _, v := range []float64{
		p.HypixelLevel, p.FKDR, p.WLR, p.BBLR,
		float64(p.BedwarsStars), float64(p.AchievementPoints),
		float64(p.Karma), float64(p.Coins), float64(p.GamesPlayed),
		float64(p.FinalKills), float64(p.Wins), float64(p.BedsBroken),
	} {
		if v == 0 {
			empty++
		}
	}
	return empty
}

// Describe maps a score to its display band.
func Describe(score float64) string {
	switch {
	case score < bandPossibly:
		return "Likely Not Nicked"
	case score < bandProbably:
		return "Possibly Nicked"
	case score < bandVery:
		return "Probably Nicked"
	default:
		return "Very Likely Nicked"
	}
}

// Suspect summarizes one flagged player.
type Suspect struct {
	Username    string  `json:"username"`
	Score       float64 `json:"nick_score"`
	Description string  `json:"nick_description"`
}

// LobbyAnalysis aggregates nick suspicion over a whole lobby.
type LobbyAnalysis struct {
	TotalPlayers   int       `json:"total_players"`
	SuspectedNicks int       `json:"suspected_nicks"`
	NickPercentage float64   `json:"nick_percentage"`
	Suspected      []Suspect `json:"suspected_players"`
}

// AnalyzeLobby scores every player in place (filling NickScore and
// NickDescription) and returns the lobby-wide summary.
func AnalyzeLobby(players []stats.Player) LobbyAnalysis {
	analysis := LobbyAnalysis{Suspected: []Suspect{}}
	if len(players) == 0 {
		return analysis
	}

	for i := range players {
		players[i].NickScore = Estimate(players[i])
		players[i].NickDescription = Describe(players[i].NickScore)

		if players[i].NickScore >= SuspectThreshold {
			analysis.Suspected = append(analysis.Suspected, Suspect{
				Username:    players[i].Username,
				Score:       players[i].NickScore,
				Description: players[i].NickDescription,
			})
		}
	}

	analysis.TotalPlayers = len(players)
	analysis.SuspectedNicks = len(analysis.Suspected)
	analysis.NickPercentage = math.Round(float64(analysis.SuspectedNicks)/float64(analysis.TotalPlayers)*1000) / 10
	return analysis
}
