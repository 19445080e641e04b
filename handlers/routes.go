package handlers

import (
	"github.com/labstack/echo/v4"

	mw "github.com/padraicbc/f1picks/middleware"
)

// Register mounts every API route on e.
func (h *Handler) Register(e *echo.Echo) {
	// Public
	e.POST("/api/signin", h.Signin)

	// Protected – require valid JWT in Authorization header
	api := e.Group("/api", mw.JWT(h.JWTKey))
	api.GET("/races", h.Races)
	api.GET("/races/:id/results", h.RaceResults)
	api.POST("/groups", h.CreateGroup)
	api.POST("/groups/join", h.JoinGroup)
	api.PUT("/groups/:id/races/:raceID/prediction", h.SavePrediction)
	api.GET("/groups/:id/leaderboard", h.Leaderboard)
	api.GET("/standings/drivers", h.DriverStandings)
	api.GET("/standings/teams", h.TeamStandings)

	admin := api.Group("/admin", mw.RequireAdmin())
	admin.GET("/races/:id/sessions", h.RaceSessions)
	admin.POST("/races/:id/import", h.ImportRace)
	admin.POST("/races/:id/import-qualifying", h.ImportQualifying)
	admin.POST("/races/:id/rescore", h.Rescore)
}
