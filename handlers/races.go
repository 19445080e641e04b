package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/samber/lo"

	"github.com/padraicbc/f1picks/models"
)

type resultRow struct {
	Position     int    `json:"position"`
	DriverID     int    `json:"driverID"`
	Driver       string `json:"driver"`
	Acronym      string `json:"acronym"`
	TeamID       int    `json:"teamID,omitempty"`
	F1Points     int    `json:"f1Points"`
	FastestLap   bool   `json:"fastestLap"`
	GridPosition *int   `json:"gridPosition,omitempty"`
	Status       string `json:"status"`
}

type raceResults struct {
	Race    *models.Race `json:"race"`
	Results []resultRow  `json:"results"`
}

// season reads the "season" query param, defaulting to the current year.
func (h *Handler) season(c echo.Context) (int, error) {
	s := c.QueryParam("season")
	if s == "" {
		return h.now().Year(), nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid season")
	}
	return v, nil
}

// Races lists the races of a season in calendar order.
func (h *Handler) Races(c echo.Context) error {
	season, err := h.season(c)
	if err != nil {
		return err
	}
	races, err := h.store.Races(c.Request().Context(), season)
	if err != nil {
		return fail(err)
	}
	if races == nil {
		races = []models.Race{}
	}
	return c.JSON(http.StatusOK, races)
}

// RaceResults returns the stored classification of a race.
func (h *Handler) RaceResults(c echo.Context) error {
	raceID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	race, err := h.store.Race(ctx, raceID)
	if err != nil {
		return fail(err)
	}
	results, err := h.store.RaceResults(ctx, raceID)
	if err != nil {
		return fail(err)
	}
	drivers, err := h.store.Drivers(ctx)
	if err != nil {
		return fail(err)
	}
	teamOf, err := h.store.TeamsBySeason(ctx, race.Season)
	if err != nil {
		return fail(err)
	}

	byID := lo.KeyBy(drivers, func(d models.Driver) int { return d.ID })
	rows := lo.Map(results, func(r models.RaceResult, _ int) resultRow {
		d := byID[r.DriverID]
		return resultRow{
			Position:     r.Position,
			DriverID:     r.DriverID,
			Driver:       d.FullName,
			Acronym:      d.Acronym,
			TeamID:       teamOf[r.DriverID],
			F1Points:     r.F1Points,
			FastestLap:   r.FastestLap,
			GridPosition: r.GridPosition,
			Status:       r.Status,
		}
	})
	return c.JSON(http.StatusOK, raceResults{Race: race, Results: rows})
}
