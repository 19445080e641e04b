package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type importRequest struct {
	SessionKey int `json:"sessionKey"`
}

type qualifyingRequest struct {
	MeetingKey int `json:"meetingKey"`
}

// RaceSessions lists OpenF1 race sessions that may belong to a race.
func (h *Handler) RaceSessions(c echo.Context) error {
	raceID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	candidates, err := h.engine.MatchSessions(c.Request().Context(), raceID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, candidates)
}

// ImportRace imports official results from the chosen OpenF1 session.
func (h *Handler) ImportRace(c echo.Context) error {
	raceID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req importRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SessionKey <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "sessionKey is required")
	}

	sum, err := h.engine.ImportRaceResults(c.Request().Context(), raceID, req.SessionKey)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, sum)
}

// ImportQualifying copies qualifying positions onto the race's grid. The
// meeting defaults to the one recorded by the race import.
func (h *Handler) ImportQualifying(c echo.Context) error {
	raceID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	var req qualifyingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()

	if req.MeetingKey <= 0 {
		race, err := h.store.Race(ctx, raceID)
		if err != nil {
			return fail(err)
		}
		if race.MeetingKey == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "meetingKey is required")
		}
		req.MeetingKey = *race.MeetingKey
	}

	sum, err := h.engine.ImportQualifyingResults(ctx, raceID, req.MeetingKey)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Rescore recomputes every score of a race from its stored results.
func (h *Handler) Rescore(c echo.Context) error {
	raceID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	n, err := h.engine.RescoreRace(c.Request().Context(), raceID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"raceID": raceID, "rescored": n})
}
