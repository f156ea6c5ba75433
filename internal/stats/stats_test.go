package stats

import "testing"

func bedwarsDoc(fields map[string]any) map[string]any {
	return map[string]any{
		"displayname": "Tester",
		"uuid":        "abc123",
		"stats": map[string]any{
			"Bedwars": fields,
		},
	}
}

func TestFKDR(t *testing.T) {
	testCases := []struct {
		name     string
		kills    float64
		deaths   float64
		expected float64
	}{
		{name: "normal ratio", kills: 300, deaths: 100, expected: 3.0},
		{name: "rounded to two decimals", kills: 100, deaths: 3, expected: 33.33},
		{name: "zero deaths reports kills", kills: 7, deaths: 0, expected: 7.0},
		{name: "no data", kills: 0, deaths: 0, expected: 0.0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := bedwarsDoc(map[string]any{
				"final_kills_bedwars":  tc.kills,
				"final_deaths_bedwars": tc.deaths,
			})
			if got := FKDR(doc); got != tc.expected {
				t.Errorf("FKDR = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestWLR(t *testing.T) {
	doc := bedwarsDoc(map[string]any{
		"wins_bedwars":   float64(150),
		"losses_bedwars": float64(100),
	})
	if got := WLR(doc); got != 1.5 {
		t.Errorf("WLR = %v, expected 1.5", got)
	}
}

func TestBedwarsStars(t *testing.T) {
	testCases := []struct {
		name       string
		experience float64
		expected   int
	}{
		{name: "no experience", experience: 0, expected: 0},
		{name: "first prestige boundary", experience: 500, expected: 100},
		{name: "between thresholds", experience: 11500, expected: 400},
		{name: "extra stars past threshold", experience: 29000, expected: 601},
		{name: "top prestige", experience: 65000, expected: 900},
		{name: "past top prestige", experience: 65000 + 10*5000, expected: 910},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := bedwarsDoc(map[string]any{"Experience": tc.experience})
			if got := BedwarsStars(doc); got != tc.expected {
				t.Errorf("BedwarsStars(%v) = %d, expected %d", tc.experience, got, tc.expected)
			}
		})
	}
}

func TestHypixelLevel(t *testing.T) {
	if got := HypixelLevel(map[string]any{}); got != 1.0 {
		t.Errorf("missing networkExp should floor at level 1, got %v", got)
	}

	// Small experience values still floor at 1.
	if got := HypixelLevel(map[string]any{"networkExp": float64(100)}); got < 1.0 {
		t.Errorf("level below floor: %v", got)
	}

	// Levels grow monotonically with experience.
	low := HypixelLevel(map[string]any{"networkExp": float64(100000)})
	high := HypixelLevel(map[string]any{"networkExp": float64(10000000)})
	if high <= low {
		t.Errorf("expected level to grow with experience: %v vs %v", low, high)
	}
}

func TestNested(t *testing.T) {
	doc := bedwarsDoc(map[string]any{"coins": float64(42)})

	if got := Nested(doc, "stats", "Bedwars", "coins"); toInt(got) != 42 {
		t.Errorf("Nested lookup = %v, expected 42", got)
	}
	if got := Nested(doc, "stats", "SkyWars", "coins"); got != nil {
		t.Errorf("missing path should be nil, got %v", got)
	}
	if got := Nested(doc, "displayname", "nope"); got != nil {
		t.Errorf("descending into a non-map should be nil, got %v", got)
	}
}

func TestExtract(t *testing.T) {
	doc := bedwarsDoc(map[string]any{
		"Experience":           float64(12000),
		"final_kills_bedwars":  float64(500),
		"final_deaths_bedwars": float64(250),
		"wins_bedwars":         float64(90),
		"losses_bedwars":       float64(60),
		"beds_broken_bedwars":  float64(120),
		"beds_lost_bedwars":    float64(80),
		"coins":                float64(15000),
		"winstreak":            float64(4),
	})
	doc["achievementPoints"] = float64(3000)
	doc["karma"] = float64(1000000)
	doc["firstLogin"] = float64(1400000000000)
	doc["lastLogin"] = float64(1700000000000)
	doc["networkExp"] = float64(5000000)

	p := Extract(doc)

	if p.Username != "Tester" || p.UUID != "abc123" {
		t.Errorf("identity fields wrong: %+v", p)
	}
	if p.BedwarsStars != 500 {
		t.Errorf("stars = %d, expected 500", p.BedwarsStars)
	}
	if p.FKDR != 2.0 {
		t.Errorf("fkdr = %v, expected 2.0", p.FKDR)
	}
	if p.WLR != 1.5 {
		t.Errorf("wlr = %v, expected 1.5", p.WLR)
	}
	if p.BBLR != 1.5 {
		t.Errorf("bblr = %v, expected 1.5", p.BBLR)
	}
	if p.GamesPlayed != 150 {
		t.Errorf("games played = %d, expected 150", p.GamesPlayed)
	}
	if p.HypixelLevel <= 1.0 {
		t.Errorf("level = %v, expected above floor", p.HypixelLevel)
	}
}

func TestExtractEmptyPayload(t *testing.T) {
	p := Extract(nil)
	if p.Username != "" || p.BedwarsStars != 0 {
		t.Errorf("expected zero Player for nil payload, got %+v", p)
	}
}

func TestExtractFallsBackToUUID(t *testing.T) {
	p := Extract(map[string]any{"uuid": "abc123"})
	if p.Username != "abc123" {
		t.Errorf("expected uuid fallback for username, got %q", p.Username)
	}
}
