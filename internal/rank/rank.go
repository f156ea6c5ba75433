// Package rank orders lobby players by derived skill metrics.
package rank

import (
	"sort"

	"hypestats/internal/stats"
)

// Score is the composite threat metric used for the default ordering.
// FKDR dominates, WLR matters half as much, and stars act mostly as a
// tie breaker.
func Score(p stats.Player) float64 {
	return p.FKDR*3.0 + p.WLR*2.0 + float64(p.BedwarsStars)/20.0
}

// Players sorts by descending composite score and assigns 1-based
// ranks. The input slice is returned sorted in place.
func Players(players []stats.Player) []stats.Player {
	sort.SliceStable(players, func(i, j int) bool {
		return Score(players[i]) > Score(players[j])
	})
	for i := range players {
		players[i].Rank = i + 1
	}
	return players
}

// Top returns the first n ranked players, optionally requiring a
// minimum star level. minStars <= 0 disables the filter.
func Top(players []stats.Player, n int, minStars int) []stats.Player {
	ranked := Players(players)

	if minStars > 0 {
		filtered := ranked[:0]
		for _, p := range ranked {
			if p.BedwarsStars >= minStars {
				filtered = append(filtered, p)
			}
		}
		ranked = filtered
	}

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Criteria names a sortable column.
type Criteria string

const (
	ByStars        Criteria = "bedwars_stars"
	ByFKDR         Criteria = "fkdr"
	ByWLR          Criteria = "wlr"
	ByLevel        Criteria = "hypixel_level"
	ByKarma        Criteria = "karma"
	ByAchievements Criteria = "achievement_points"
)

// ByCriteria sorts by a single column and reassigns ranks. Unknown
// criteria fall back to the composite score.
func ByCriteriaSort(players []stats.Player, criteria Criteria, descending bool) []stats.Player {
	key := func(p stats.Player) float64 {
		switch criteria {
		case ByStars:
			return float64(p.BedwarsStars)
		case ByFKDR:
			return p.FKDR
		case ByWLR:
			return p.WLR
		case ByLevel:
			return p.HypixelLevel
		case ByKarma:
			return float64(p.Karma)
		case ByAchievements:
			return float64(p.AchievementPoints)
		}
		return Score(p)
	}

	sort.SliceStable(players, func(i, j int) bool {
		if descending {
			return key(players[i]) > key(players[j])
		}
		return key(players[i]) < key(players[j])
	})
	for i := range players {
		players[i].Rank = i + 1
	}
	return players
}
