package jobs

import (
	"log/slog"

	"hypestats/internal/pipeline"

	"github.com/pocketbase/pocketbase/core"
)

// RegisterStatsRefresh sets up a cron job that re-fetches Hypixel
// stats for current lobby members once their cached data outlives the
// configured TTL. Runs every minute; the pipeline decides what is
// actually stale.
func RegisterStatsRefresh(app core.App, p *pipeline.Pipeline, logger *slog.Logger) {
	scheduler := app.Cron()

	scheduler.MustAdd("stats_refresh", "* * * * *", func() {
		p.RefreshStale()
	})

	logger.Info("Registered cron job to refresh stale player stats every minute")
}
