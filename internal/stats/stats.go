// Package stats derives usable Bedwars metrics from the raw Hypixel
// player document. Everything here is pure: input payload in, numbers
// out, no I/O.
package stats

import (
	"math"
)

// Player is the derived, display-ready stat set for one player.
type Player struct {
	Username          string  `json:"username"`
	UUID              string  `json:"uuid"`
	HypixelLevel      float64 `json:"hypixel_level"`
	BedwarsStars      int     `json:"bedwars_stars"`
	FKDR              float64 `json:"fkdr"`
	WLR               float64 `json:"wlr"`
	BBLR              float64 `json:"bblr"`
	AchievementPoints int     `json:"achievement_points"`
	Karma             int     `json:"karma"`
	FirstLogin        int64   `json:"first_login"`
	LastLogin         int64   `json:"last_login"`
	Coins             int     `json:"bedwars_coins"`
	GamesPlayed       int     `json:"bedwars_games_played"`
	Winstreak         int     `json:"winstreak"`

	FinalKills  int `json:"final_kills"`
	FinalDeaths int `json:"final_deaths"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	BedsBroken  int `json:"beds_broken"`
	BedsLost    int `json:"beds_lost"`

	// Filled in by the nick detector and ranking engine.
	NickScore       float64 `json:"nick_score"`
	NickDescription string  `json:"nick_description"`
	Rank            int     `json:"rank"`
	Team            string  `json:"team,omitempty"`
}

// bedwarsPrestiges maps cumulative Experience thresholds to the star
// level granted at that prestige.
var bedwarsPrestiges = []struct {
	exp   int
	level int
}{
	{0, 0}, {500, 100}, {1500, 200}, {3500, 300}, {7000, 400},
	{12000, 500}, {20000, 600}, {30000, 700}, {45000, 800}, {65000, 900},
}

// Nested walks a path of keys through nested JSON maps, returning nil
// when any key is missing or an intermediate value is not a map.
func Nested(data map[string]any, keys ...string) any {
	var current any = data
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[key]
		if !ok {
			return nil
		}
	}
	return current
}

// nestedInt fetches a numeric leaf as int, tolerating JSON numbers
// arriving as float64 and absent values as zero.
func nestedInt(data map[string]any, keys ...string) int {
	return toInt(Nested(data, keys...))
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// ratio computes a/b rounded to two decimals, with the upstream
// convention that a positive numerator over zero is reported as the
// numerator itself rather than infinity.
func ratio(a, b int) float64 {
	if b == 0 {
		if a > 0 {
			return float64(a)
		}
		return 0
	}
	return round2(float64(a) / float64(b))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// FKDR is the Bedwars final kill / final death ratio.
func FKDR(raw map[string]any) float64 {
	return ratio(
		nestedInt(raw, "stats", "Bedwars", "final_kills_bedwars"),
		nestedInt(raw, "stats", "Bedwars", "final_deaths_bedwars"),
	)
}

// WLR is the Bedwars win / loss ratio.
func WLR(raw map[string]any) float64 {
	return ratio(
		nestedInt(raw, "stats", "Bedwars", "wins_bedwars"),
		nestedInt(raw, "stats", "Bedwars", "losses_bedwars"),
	)
}

// BedwarsStars converts the cumulative Bedwars Experience value to a
// star level: the prestige table sets the hundred, then each 5000 XP
// past the prestige threshold adds one star.
func BedwarsStars(raw map[string]any) int {
	experience := nestedInt(raw, "stats", "Bedwars", "Experience")
	if experience <= 0 {
		return 0
	}

	prev := bedwarsPrestiges[0]
	for _, p := range bedwarsPrestiges {
		if experience >= p.exp {
			prev = p
		}
	}
	return prev.level + (experience-prev.exp)/5000
}

// HypixelLevel derives the network level from networkExp using the
// upstream quadratic-XP formula, floored at level 1.
func HypixelLevel(raw map[string]any) float64 {
	exp := toFloat(Nested(raw, "networkExp"))
	if exp == 0 {
		return 1.0
	}
	level := (math.Sqrt(exp+15312.5) - 125/math.Sqrt2) / (25 * math.Sqrt2)
	return round2(math.Max(1.0, level))
}

// Extract reduces the raw Hypixel player document to the derived stat
// set. A nil or empty payload yields the zero Player.
func Extract(raw map[string]any) Player {
	if len(raw) == 0 {
		return Player{}
	}

	username, _ := raw["displayname"].(string)
	uuid, _ := raw["uuid"].(string)
	if username == "" {
		username = uuid
	}

	wins := nestedInt(raw, "stats", "Bedwars", "wins_bedwars")
	losses := nestedInt(raw, "stats", "Bedwars", "losses_bedwars")
	bedsBroken := nestedInt(raw, "stats", "Bedwars", "beds_broken_bedwars")
	bedsLost := nestedInt(raw, "stats", "Bedwars", "beds_lost_bedwars")

	return Player{
		Username:          username,
		UUID:              uuid,
		HypixelLevel:      HypixelLevel(raw),
		BedwarsStars:      BedwarsStars(raw),
		FKDR:              FKDR(raw),
		WLR:               WLR(raw),
		BBLR:              ratio(bedsBroken, bedsLost),
		AchievementPoints: nestedInt(raw, "achievementPoints"),
		Karma:             nestedInt(raw, "karma"),
		FirstLogin:        toInt64(Nested(raw, "firstLogin")),
		LastLogin:         toInt64(Nested(raw, "lastLogin")),
		Coins:             nestedInt(raw, "stats", "Bedwars", "coins"),
		GamesPlayed:       wins + losses,
		Winstreak:         nestedInt(raw, "stats", "Bedwars", "winstreak"),
		FinalKills:        nestedInt(raw, "stats", "Bedwars", "final_kills_bedwars"),
		FinalDeaths:       nestedInt(raw, "stats", "Bedwars", "final_deaths_bedwars"),
		Wins:              wins,
		Losses:            losses,
		BedsBroken:        bedsBroken,
		BedsLost:          bedsLost,
	}
}
