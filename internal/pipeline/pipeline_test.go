package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hypestats/internal/nick"
	"hypestats/internal/stats"
	"hypestats/internal/ws"
)

// fakeSource serves canned player documents and counts lookups.
type fakeSource struct {
	mu      sync.Mutex
	docs    map[string]map[string]any
	lookups map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		docs:    make(map[string]map[string]any),
		lookups: make(map[string]int),
	}
}

func (f *fakeSource) addPlayer(name string, fkdr float64, stars int) {
	f.docs[name] = map[string]any{
		"displayname": name,
		"uuid":        "uuid-" + name,
		"stats": map[string]any{
			"Bedwars": map[string]any{
				"final_kills_bedwars":  fkdr * 100,
				"final_deaths_bedwars": float64(100),
				"Experience":           float64(stars * 5000),
			},
		},
	}
}

func (f *fakeSource) UUID(ctx context.Context, username string) (string, error) {
	f.mu.Lock()
	f.lookups[username]++
	doc, ok := f.docs[username]
	f.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("player %q not found", username)
	}
	return doc["uuid"].(string), nil
}

func (f *fakeSource) PlayerStats(ctx context.Context, uuid string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc["uuid"] == uuid {
			return doc, nil
		}
	}
	return nil, fmt.Errorf("player with UUID %q not found", uuid)
}

func (f *fakeSource) lookupCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[name]
}

// fakeBroadcaster records broadcast messages.
type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []ws.Message
}

func (f *fakeBroadcaster) Broadcast(msg ws.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeBroadcaster) byType(msgType string) []ws.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ws.Message
	for _, m := range f.messages {
		if m.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

// fakeStore records persisted lobbies.
type fakeStore struct {
	mu         sync.Mutex
	saveCalls  int
	lobbyCalls int
}

func (f *fakeStore) SavePlayers(players []stats.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	return nil
}

func (f *fakeStore) SaveLobby(players []stats.Player, analysis nick.LobbyAnalysis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lobbyCalls++
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestPipeline(src Source, store Store, bc Broadcaster, ttl time.Duration) *Pipeline {
	return New(Options{
		Source:      src,
		Store:       store,
		Broadcaster: bc,
		Logger:      quietLogger(),
		CacheTTL:    ttl,
		Workers:     2,
	})
}

func TestHandlePlayerListFetchesAndRanks(t *testing.T) {
	src := newFakeSource()
	src.addPlayer("Strong", 5.0, 300)
	src.addPlayer("Weak", 0.5, 10)

	bc := &fakeBroadcaster{}
	store := &fakeStore{}
	p := newTestPipeline(src, store, bc, time.Minute)

	p.HandlePlayerList([]string{"Weak", "Strong"})

	msgs := bc.byType(ws.MsgPlayers)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 players message, got %d", len(msgs))
	}
	payload := msgs[0].Payload.(ws.PlayersPayload)
	if len(payload.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(payload.Players))
	}
	if payload.Players[0].Username != "Strong" {
		t.Errorf("expected Strong ranked first, got %s", payload.Players[0].Username)
	}
	if payload.Players[0].Rank != 1 || payload.Players[1].Rank != 2 {
		t.Errorf("ranks not assigned: %d, %d", payload.Players[0].Rank, payload.Players[1].Rank)
	}

	if store.saveCalls != 1 || store.lobbyCalls != 1 {
		t.Errorf("expected one persist call each, got players=%d lobbies=%d", store.saveCalls, store.lobbyCalls)
	}
}

func TestHandlePlayerListUsesCache(t *testing.T) {
	src := newFakeSource()
	src.addPlayer("Alice", 2.0, 100)

	p := newTestPipeline(src, nil, &fakeBroadcaster{}, time.Minute)

	p.HandlePlayerList([]string{"Alice"})
	p.HandlePlayerList([]string{"Alice"})

	if got := src.lookupCount("Alice"); got != 1 {
		t.Errorf("expected 1 lookup for cached player, got %d", got)
	}
}

func TestUnresolvedPlayerIsCachedAndSuspected(t *testing.T) {
	src := newFakeSource()
	bc := &fakeBroadcaster{}
	p := newTestPipeline(src, nil, bc, time.Minute)

	p.HandlePlayerList([]string{"Ghost"})
	p.HandlePlayerList([]string{"Ghost"})

	if got := src.lookupCount("Ghost"); got != 1 {
		t.Errorf("expected failed lookup to be cached, got %d lookups", got)
	}

	msgs := bc.byType(ws.MsgPlayers)
	if len(msgs) == 0 {
		t.Fatal("expected a players message")
	}
	payload := msgs[len(msgs)-1].Payload.(ws.PlayersPayload)
	if payload.Analysis.SuspectedNicks != 1 {
		t.Errorf("expected unresolved player flagged as nick, got %d suspects", payload.Analysis.SuspectedNicks)
	}
}

func TestHandleTeamUpdateBroadcastsImmediately(t *testing.T) {
	src := newFakeSource()
	bc := &fakeBroadcaster{}
	p := newTestPipeline(src, nil, bc, time.Minute)

	p.HandleTeamUpdate("Dave", "RED")

	msgs := bc.byType(ws.MsgTeam)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 team message, got %d", len(msgs))
	}
	payload := msgs[0].Payload.(ws.TeamPayload)
	if payload.Name != "Dave" || payload.Team != "RED" {
		t.Errorf("unexpected team payload: %+v", payload)
	}
}

func TestTeamLabelAttachedToRoster(t *testing.T) {
	src := newFakeSource()
	src.addPlayer("Dave", 1.0, 50)
	bc := &fakeBroadcaster{}
	p := newTestPipeline(src, nil, bc, time.Minute)

	p.HandleTeamUpdate("Dave", "BLUE")
	p.HandlePlayerList([]string{"Dave"})

	msgs := bc.byType(ws.MsgPlayers)
	payload := msgs[len(msgs)-1].Payload.(ws.PlayersPayload)
	if payload.Players[0].Team != "BLUE" {
		t.Errorf("expected team label on player, got %q", payload.Players[0].Team)
	}
}

func TestHandleResetClearsRosterKeepsCache(t *testing.T) {
	src := newFakeSource()
	src.addPlayer("Alice", 2.0, 100)
	bc := &fakeBroadcaster{}
	p := newTestPipeline(src, nil, bc, time.Minute)

	p.HandlePlayerList([]string{"Alice"})
	p.HandleReset()

	if len(bc.byType(ws.MsgReset)) != 1 {
		t.Fatal("expected a reset message")
	}

	snap := p.Snapshot()
	payload := snap.Payload.(ws.PlayersPayload)
	if len(payload.Players) != 0 {
		t.Errorf("expected empty roster after reset, got %d players", len(payload.Players))
	}

	// Same player again in the next game: stats come from cache.
	p.HandlePlayerList([]string{"Alice"})
	if got := src.lookupCount("Alice"); got != 1 {
		t.Errorf("expected cache to survive reset, got %d lookups", got)
	}
}

func TestRefreshStaleRefetches(t *testing.T) {
	src := newFakeSource()
	src.addPlayer("Alice", 2.0, 100)
	p := newTestPipeline(src, nil, &fakeBroadcaster{}, time.Nanosecond)

	p.HandlePlayerList([]string{"Alice"})
	time.Sleep(time.Millisecond)
	p.RefreshStale()

	if got := src.lookupCount("Alice"); got != 2 {
		t.Errorf("expected stale entry refetch, got %d lookups", got)
	}
}

func TestSnapshotCarriesTeams(t *testing.T) {
	src := newFakeSource()
	src.addPlayer("Dave", 1.0, 50)
	p := newTestPipeline(src, nil, &fakeBroadcaster{}, time.Minute)

	p.HandlePlayerList([]string{"Dave"})
	p.HandleTeamUpdate("Dave", "GREEN")

	snap := p.Snapshot()
	if snap.Type != ws.MsgSnapshot {
		t.Fatalf("expected snapshot type, got %s", snap.Type)
	}
	payload := snap.Payload.(ws.PlayersPayload)
	if payload.Teams["Dave"] != "GREEN" {
		t.Errorf("expected team in snapshot, got %v", payload.Teams)
	}
}
