package app

import (
	"net/http"

	"hypestats/internal/ws"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/template"
)

// registerWebRoutes wires the HTML overlay page, the JSON lobby API
// and the WebSocket endpoint onto the PocketBase router.
func registerWebRoutes(app *App, e *core.ServeEvent) {
	registry := template.NewRegistry()

	// Overlay page with the current ranked lobby.
	e.Router.GET("/", func(re *core.RequestEvent) error {
		snapshot := app.Pipeline.Snapshot()
		payload, _ := snapshot.Payload.(ws.PlayersPayload)

		html, err := registry.LoadFiles(
			"templates/layout.html",
			"templates/lobby.html",
		).Render(map[string]any{
			"ActivePage": "lobby",
			"Players":    payload.Players,
			"Analysis":   payload.Analysis,
		})
		if err != nil {
			return re.InternalServerError("Failed to render template", err)
		}

		return re.HTML(http.StatusOK, html)
	})

	// Current lobby as JSON, same shape as the WebSocket snapshot.
	e.Router.GET("/api/lobby", func(re *core.RequestEvent) error {
		snapshot := app.Pipeline.Snapshot()
		return re.JSON(http.StatusOK, snapshot.Payload)
	})

	// Live updates for the overlay.
	e.Router.GET("/ws", func(re *core.RequestEvent) error {
		app.Broadcaster.ServeHTTP(re.Response, re.Request)
		return nil
	})

	// Recent lobby history.
	e.Router.GET("/lobbies", func(re *core.RequestEvent) error {
		lobbies, err := re.App.FindRecordsByFilter(
			"lobbies",
			"",
			"-created",
			50,
			0,
		)
		if err != nil {
			lobbies = []*core.Record{}
		}

		html, err := registry.LoadFiles(
			"templates/layout.html",
			"templates/lobbies.html",
		).Render(map[string]any{
			"ActivePage": "lobbies",
			"Lobbies":    lobbies,
		})
		if err != nil {
			return re.InternalServerError("Failed to render template", err)
		}

		return re.HTML(http.StatusOK, html)
	})
}
