package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Polling interval bounds. The interval is a tunable trade-off between
// latency and file churn; values outside this range are clamped.
const (
	MinPollInterval = 1 * time.Second
	MaxPollInterval = 10 * time.Second
)

// stopTimeout bounds how long Stop waits for the watch and poll
// goroutines to quiesce before giving up with a warning. Variable so
// tests can shorten the wait.
var stopTimeout = 5 * time.Second

// PlayerListSink receives the current lobby roster after a batch of
// log lines produced new presence information.
type PlayerListSink func(players []string)

// TeamUpdateSink receives a single (player, team tag) assignment the
// moment it is classified, ahead of any batch-level roster update.
type TeamUpdateSink func(name, team string)

// Options configures a Monitor. Path is required; every sink is
// optional. Sinks must not call back into the monitor.
type Options struct {
	Path         string        // log file to tail
	PollInterval time.Duration // backstop poll cadence, clamped to 1-10s
	OnPlayerList PlayerListSink
	OnTeamUpdate TeamUpdateSink
	OnReset      func() // lobby was cleared (transfer or game start)
	Logger       *slog.Logger
}

// Monitor tails the client log and keeps the lobby session current.
//
// Two trigger sources funnel into one serialized processing routine: a
// filesystem watch on the log file's directory, and a fixed-interval
// poll that forces a re-check for writes the watcher missed. A single
// mutex makes "read new content, classify, mutate state, dispatch" one
// critical section, so the two triggers serialize instead of racing.
type Monitor struct {
	path       string
	interval   time.Duration
	classifier *Classifier
	session    *Session
	reader     *TailReader

	onPlayerList PlayerListSink
	onTeamUpdate TeamUpdateSink
	onReset      func()
	logger       *slog.Logger

	processMu sync.Mutex // guards the read+classify+mutate sequence

	lifecycleMu sync.Mutex
	running     bool
	watcher     *fsnotify.Watcher
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a monitor for the given log file. The poll interval is
// clamped to the supported range; zero means the minimum.
func New(opts Options) (*Monitor, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("monitor: log path is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := opts.PollInterval
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	if interval > MaxPollInterval {
		interval = MaxPollInterval
	}

	return &Monitor{
		path:         opts.Path,
		interval:     interval,
		classifier:   NewClassifier(),
		session:      NewSession(),
		reader:       NewTailReader(logger),
		onPlayerList: opts.OnPlayerList,
		onTeamUpdate: opts.OnTeamUpdate,
		onReset:      opts.OnReset,
		logger:       logger,
	}, nil
}

// Session exposes the lobby state for read-side consumers (routes,
// snapshots). Mutation stays inside the monitor.
func (m *Monitor) Session() *Session {
	return m.session
}

// Start begins watching the log file. The session is cleared, the tail
// offset is seeded with the current file size, and both trigger
// sources are started. A failure leaves the monitor fully stopped.
func (m *Monitor) Start() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if m.running {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the containing directory rather than the file itself, so
	// rotation (delete + recreate) keeps delivering events.
	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	m.session.Reset()
	m.reader.Initialize(m.path)

	ctx, cancel := context.WithCancel(context.Background())
	m.watcher = watcher
	m.cancel = cancel
	m.running = true

	m.wg.Add(2)
	go m.watchLoop(ctx, watcher)
	go m.pollLoop(ctx)

	m.logger.Info("started monitoring log file", "path", m.path, "pollInterval", m.interval)
	return nil
}

// Stop shuts down both trigger sources and waits for them to quiesce,
// bounded by stopTimeout. A watcher that refuses to stop in time is a
// logged warning, not an error; shutdown proceeds regardless.
func (m *Monitor) Stop() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false

	m.cancel()
	err := m.watcher.Close()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		// A loop may still be blocked in a sink; it keeps its own
		// watcher reference and exits once the sink returns.
		m.logger.Warn("monitor goroutines did not stop within timeout", "timeout", stopTimeout)
	}

	m.logger.Info("stopped monitoring log file", "path", m.path)

	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}

// watchLoop takes its own watcher reference so that a Stop that gave
// up waiting cannot pull it out from under a sink still in flight.
func (m *Monitor) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				m.ProcessNewContent(false)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("file watcher error", "error", err)
		}
	}
}

// pollLoop is the timer-driven backstop for writes the watcher missed:
// buffered writes, editor quirks, or watcher backend limitations. It
// always forces; the tail reader's quiescence window keeps a quiet
// file from being reopened every tick.
func (m *Monitor) pollLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ProcessNewContent(true)
		}
	}
}

// ProcessNewContent reads whatever was appended since the last read,
// classifies each line, applies it to the session, and dispatches the
// batch outcome. Safe to call concurrently from both trigger sources;
// invocations serialize on the process mutex. Calling it when nothing
// is new is a cheap no-op.
func (m *Monitor) ProcessNewContent(force bool) {
	m.processMu.Lock()

	text := m.reader.ReadNew(m.path, force)
	if text == "" {
		m.processMu.Unlock()
		return
	}

	var (
		sawPlayerList bool
		sawTeamEvent  bool
		sawReset      bool
	)

	for _, line := range splitLines(text) {
		event := m.classifier.Classify(line)
		switch event.Type {
		case EventLobbyReset:
			// Clear immediately: a reset followed by a fresh roster in
			// the same read is valid and common.
			m.session.Reset()
			sawReset = true
			m.logger.Info("lobby reset detected")

		case EventPlayerList:
			m.session.RecordPlayerList(event.Players)
			sawPlayerList = true
			m.logger.Debug("player list parsed", "count", len(event.Players))

		case EventTeamChat:
			if m.session.RecordTeamChat(event.Name) {
				sawTeamEvent = true
				m.notifyTeam(StripName(event.Name), SameTeam)
			}

		case EventTeamJoin:
			if m.session.RecordTeamJoin(event.Name, event.Color) {
				sawTeamEvent = true
				name := StripName(event.Name)
				if team, ok := m.session.TeamOf(name); ok {
					m.notifyTeam(name, team)
				}
			}
		}
	}

	// Decide the batch-level dispatch while state is still consistent,
	// then invoke the callback outside the critical section.
	var players []string
	switch {
	case sawPlayerList:
		players = m.session.Players()
	case sawTeamEvent:
		players = m.session.TeamPlayers()
	}

	m.processMu.Unlock()

	if sawReset && m.onReset != nil {
		m.onReset()
	}
	if players != nil && m.onPlayerList != nil {
		m.onPlayerList(players)
	}
}

func (m *Monitor) notifyTeam(name, team string) {
	if m.onTeamUpdate != nil && name != "" {
		m.onTeamUpdate(name, team)
	}
}

func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
