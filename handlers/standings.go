package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1picks/standings"
)

// DriverStandings returns the drivers' championship of a season.
func (h *Handler) DriverStandings(c echo.Context) error {
	season, err := h.season(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	results, err := h.store.FinalizedResults(ctx, season)
	if err != nil {
		return fail(err)
	}
	drivers, err := h.store.Drivers(ctx)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, standings.Drivers(results, drivers))
}

// TeamStandings returns the constructors' championship of a season.
func (h *Handler) TeamStandings(c echo.Context) error {
	season, err := h.season(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	results, err := h.store.FinalizedResults(ctx, season)
	if err != nil {
		return fail(err)
	}
	teamOf, err := h.store.TeamsBySeason(ctx, season)
	if err != nil {
		return fail(err)
	}
	teams, err := h.store.Teams(ctx)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, standings.Teams(results, teamOf, teams))
}
