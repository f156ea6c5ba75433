// Package pipeline connects the log monitor to the stats side of the
// app: it resolves lobby rosters to Hypixel stats, scores and ranks
// them, persists the results and pushes updates to UI clients.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"hypestats/internal/nick"
	"hypestats/internal/rank"
	"hypestats/internal/stats"
	"hypestats/internal/ws"
)

const (
	defaultWorkers  = 4
	defaultCacheTTL = 10 * time.Minute
	fetchTimeout    = 15 * time.Second
)

// Source resolves usernames to stats documents. *hypixel.Client
// satisfies this.
type Source interface {
	UUID(ctx context.Context, username string) (string, error)
	PlayerStats(ctx context.Context, uuid string) (map[string]any, error)
}

// Store persists ranked lobby results.
type Store interface {
	SavePlayers(players []stats.Player) error
	SaveLobby(players []stats.Player, analysis nick.LobbyAnalysis) error
}

// Broadcaster pushes messages to connected UI clients.
type Broadcaster interface {
	Broadcast(msg ws.Message)
}

type Options struct {
	Source      Source
	Store       Store       // optional
	Broadcaster Broadcaster // optional
	Logger      *slog.Logger
	CacheTTL    time.Duration // how long fetched stats stay fresh
	Workers     int           // concurrent Hypixel lookups per roster
}

// entry is one cached player. A failed lookup is cached too, so a
// nicked player does not get re-queried on every roster refresh.
type entry struct {
	player     stats.Player
	fetchedAt  time.Time
	unresolved bool
}

type Pipeline struct {
	source      Source
	store       Store
	broadcaster Broadcaster
	logger      *slog.Logger
	ttl         time.Duration
	workers     int

	mu     sync.Mutex
	cache  map[string]*entry
	roster []string
	teams  map[string]string
}

func New(opts Options) *Pipeline {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Pipeline{
		source:      opts.Source,
		store:       opts.Store,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger,
		ttl:         opts.CacheTTL,
		workers:     opts.Workers,
		cache:       make(map[string]*entry),
		teams:       make(map[string]string),
	}
}

// SetBroadcaster attaches the client push target. Split from New
// because the broadcaster's connect snapshot comes from this pipeline.
func (p *Pipeline) SetBroadcaster(b Broadcaster) {
	p.mu.Lock()
	p.broadcaster = b
	p.mu.Unlock()
}

// HandlePlayerList replaces the tracked roster, fetches stats for any
// player not already cached and fresh, then publishes the ranked
// lobby. Safe to call from the monitor's dispatch goroutine.
func (p *Pipeline) HandlePlayerList(players []string) {
	p.mu.Lock()
	p.roster = append([]string(nil), players...)
	toFetch := p.staleLocked(players)
	p.mu.Unlock()

	if len(toFetch) > 0 {
		p.fetchAll(toFetch)
	}
	p.publish()
}

// HandleTeamUpdate records one team assignment and pushes it to
// clients without waiting for a roster refresh.
func (p *Pipeline) HandleTeamUpdate(name, team string) {
	p.mu.Lock()
	p.teams[name] = team
	p.mu.Unlock()

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(ws.Message{
			Type:    ws.MsgTeam,
			Payload: ws.TeamPayload{Name: name, Team: team},
		})
	}
}

// HandleReset clears the roster and team assignments. Cached stats
// survive a reset; player stats do not change between games.
func (p *Pipeline) HandleReset() {
	p.mu.Lock()
	p.roster = nil
	p.teams = make(map[string]string)
	p.mu.Unlock()

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(ws.Message{Type: ws.MsgReset})
	}
}

// Snapshot builds the full-state message sent to newly connected
// clients.
func (p *Pipeline) Snapshot() ws.Message {
	players, analysis := p.assemble()
	return ws.Message{
		Type: ws.MsgSnapshot,
		Payload: ws.PlayersPayload{
			Players:  players,
			Teams:    p.snapshotTeams(),
			Analysis: analysis,
		},
	}
}

// RefreshStale re-fetches cached stats for current roster members
// whose data has outlived the TTL, then republishes if anything
// changed. Called from the refresh cron.
func (p *Pipeline) RefreshStale() {
	p.mu.Lock()
	stale := p.staleLocked(p.roster)
	p.mu.Unlock()

	if len(stale) == 0 {
		return
	}
	p.logger.Info("refreshing stale player stats", "count", len(stale))
	p.fetchAll(stale)
	p.publish()
}

// staleLocked returns the subset of names with no cache entry or one
// older than the TTL. Unresolved entries age out too, so a player who
// unnicks eventually resolves.
func (p *Pipeline) staleLocked(names []string) []string {
	var out []string
	now := time.Now()
	for _, name := range names {
		e, ok := p.cache[name]
		if !ok || now.Sub(e.fetchedAt) > p.ttl {
			out = append(out, name)
		}
	}
	return out
}

// fetchAll resolves the given names through a bounded worker pool.
func (p *Pipeline) fetchAll(names []string) {
	jobs := make(chan string)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(names) {
		workers = len(names)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				p.fetchOne(name)
			}
		}()
	}
	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
}

func (p *Pipeline) fetchOne(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	e := &entry{fetchedAt: time.Now()}

	uuid, err := p.source.UUID(ctx, name)
	if err != nil {
		// No Mojang account under this name. Almost always a nick.
		p.logger.Debug("username did not resolve", "player", name, "error", err)
		e.player = stats.Player{Username: name}
		e.unresolved = true
	} else {
		raw, err := p.source.PlayerStats(ctx, uuid)
		if err != nil {
			p.logger.Warn("stats fetch failed", "player", name, "error", err)
			e.player = stats.Player{Username: name, UUID: uuid}
			e.unresolved = true
		} else {
			e.player = stats.Extract(raw)
			e.player.Username = name
			e.player.UUID = uuid
		}
	}

	p.mu.Lock()
	p.cache[name] = e
	p.mu.Unlock()
}

// assemble builds the ranked roster in its current form: cached stats
// in rank order, team labels attached, nick analysis filled in.
func (p *Pipeline) assemble() ([]stats.Player, nick.LobbyAnalysis) {
	p.mu.Lock()
	players := make([]stats.Player, 0, len(p.roster))
	for _, name := range p.roster {
		if e, ok := p.cache[name]; ok {
			pl := e.player
			pl.Team = p.teams[name]
			players = append(players, pl)
		}
	}
	p.mu.Unlock()

	analysis := nick.AnalyzeLobby(players)
	players = rank.Players(players)
	return players, analysis
}

func (p *Pipeline) snapshotTeams() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.teams))
	for k, v := range p.teams {
		out[k] = v
	}
	return out
}

func (p *Pipeline) publish() {
	players, analysis := p.assemble()
	teams := p.snapshotTeams()

	if p.store != nil {
		if err := p.store.SavePlayers(players); err != nil {
			p.logger.Error("failed to persist players", "error", err)
		}
		if err := p.store.SaveLobby(players, analysis); err != nil {
			p.logger.Error("failed to persist lobby snapshot", "error", err)
		}
	}

	if p.broadcaster != nil {
		p.broadcaster.Broadcast(ws.Message{
			Type: ws.MsgPlayers,
			Payload: ws.PlayersPayload{
				Players:  players,
				Teams:    teams,
				Analysis: analysis,
			},
		})
	}
}
