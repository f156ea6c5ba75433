package nick

import (
	"testing"

	"hypestats/internal/stats"
)

// A filled-out veteran profile should score near zero.
func veteran() stats.Player {
	return stats.Player{
		Username:          "veteran",
		HypixelLevel:      120,
		BedwarsStars:      450,
		FKDR:              3.1,
		WLR:               1.4,
		BBLR:              2.0,
		AchievementPoints: 6200,
		Karma:             2000000,
		Coins:             150000,
		GamesPlayed:       4000,
		FinalKills:        9000,
		Wins:              2200,
		BedsBroken:        3100,
		FirstLogin:        1400000000000,
		LastLogin:         1700000000000,
	}
}

func TestEstimateVeteran(t *testing.T) {
	if score := Estimate(veteran()); score != 0.0 {
		t.Errorf("veteran profile scored %v, expected 0", score)
	}
}

func TestEstimateFreshAlias(t *testing.T) {
	// Week-old account, empty profile, high network level: every
	// heuristic fires.
	p := stats.Player{
		Username:     "sus",
		HypixelLevel: 80,
		FirstLogin:   1700000000000,
		LastLogin:    1700000000000 + 2*24*60*60*1000,
	}

	score := Estimate(p)
	if score < 0.7 {
		t.Errorf("fresh alias scored %v, expected at least 0.7", score)
	}
	if score > 1.0 {
		t.Errorf("score %v above cap", score)
	}
}

func TestEstimateZeroPlayer(t *testing.T) {
	if score := Estimate(stats.Player{}); score != 0.0 {
		t.Errorf("zero player scored %v, expected 0", score)
	}
}

func TestDescribeBands(t *testing.T) {
	testCases := []struct {
		score    float64
		expected string
	}{
		{0.0, "Likely Not Nicked"},
		{0.19, "Likely Not Nicked"},
		{0.2, "Possibly Nicked"},
		{0.4, "Probably Nicked"},
		{0.69, "Probably Nicked"},
		{0.7, "Very Likely Nicked"},
		{1.0, "Very Likely Nicked"},
	}

	for _, tc := range testCases {
		if got := Describe(tc.score); got != tc.expected {
			t.Errorf("Describe(%v) = %q, expected %q", tc.score, got, tc.expected)
		}
	}
}

func TestAnalyzeLobby(t *testing.T) {
	players := []stats.Player{
		veteran(),
		{Username: "sus", HypixelLevel: 80, FirstLogin: 1, LastLogin: 2},
	}

	analysis := AnalyzeLobby(players)

	if analysis.TotalPlayers != 2 {
		t.Errorf("total = %d, expected 2", analysis.TotalPlayers)
	}
	if analysis.SuspectedNicks != 1 {
		t.Fatalf("suspected = %d, expected 1", analysis.SuspectedNicks)
	}
	if analysis.NickPercentage != 50.0 {
		t.Errorf("percentage = %v, expected 50.0", analysis.NickPercentage)
	}
	if analysis.Suspected[0].Username != "sus" {
		t.Errorf("suspected player = %q, expected sus", analysis.Suspected[0].Username)
	}

	// Scoring fills the players in place.
	if players[1].NickDescription == "" {
		t.Error("expected NickDescription to be filled in")
	}
}

func TestAnalyzeLobbyEmpty(t *testing.T) {
	analysis := AnalyzeLobby(nil)
	if analysis.TotalPlayers != 0 || analysis.NickPercentage != 0 {
		t.Errorf("unexpected analysis for empty lobby: %+v", analysis)
	}
}
