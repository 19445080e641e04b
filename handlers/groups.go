package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/padraicbc/f1picks/game"
	mw "github.com/padraicbc/f1picks/middleware"
	"github.com/padraicbc/f1picks/models"
	"github.com/padraicbc/f1picks/standings"
	"github.com/padraicbc/f1picks/store"
)

type createGroupRequest struct {
	Name                  string      `json:"name"`
	Season                int         `json:"season"`
	Positions             *int        `json:"positions"`
	DeadlineHours         *int        `json:"deadlineHours"`
	DualScoring           bool        `json:"dualScoring"`
	CorrectDriverPoints   *int        `json:"correctDriverPoints"`
	ExactPositionBonus    *int        `json:"exactPositionBonus"`
	FastestLapDriverBonus bool        `json:"fastestLapDriverBonus"`
	FastestLapTeamBonus   bool        `json:"fastestLapTeamBonus"`
	PointsTable           map[int]int `json:"pointsTable"`
}

type joinRequest struct {
	Code string `json:"code"`
}

type predictionRequest struct {
	Positions          []int `json:"positions"`
	FastestLapDriverID *int  `json:"fastestLapDriverID"`
	FastestLapTeamID   *int  `json:"fastestLapTeamID"`
}

// CreateGroup creates a group owned by the caller.
func (h *Handler) CreateGroup(c echo.Context) error {
	var req createGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	g, err := game.NewGroup(req.Name, req.Season, mw.UserID(c))
	if err != nil {
		return fail(err)
	}
	if req.Positions != nil {
		g.Positions = *req.Positions
	}
	if req.DeadlineHours != nil {
		g.DeadlineHours = *req.DeadlineHours
	}
	if req.CorrectDriverPoints != nil {
		g.CorrectDriverPoints = *req.CorrectDriverPoints
	}
	if req.ExactPositionBonus != nil {
		g.ExactPositionBonus = *req.ExactPositionBonus
	}
	if len(req.PointsTable) > 0 {
		g.PointsTable = req.PointsTable
	}
	g.DualScoring = req.DualScoring
	g.FastestLapDriverBonus = req.FastestLapDriverBonus
	g.FastestLapTeamBonus = req.FastestLapTeamBonus
	if err := game.ValidateRules(g); err != nil {
		return fail(err)
	}

	if err := h.store.CreateGroup(c.Request().Context(), g); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, g)
}

// JoinGroup adds the caller to the group behind an invite code.
func (h *Handler) JoinGroup(c echo.Context) error {
	var req joinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	userID := mw.UserID(c)

	code, err := game.NormalizeInviteCode(req.Code)
	if err != nil {
		return fail(err)
	}
	g, err := h.store.GroupByInviteCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return fail(game.ErrInvalidInviteCode)
	}
	if err != nil {
		return fail(err)
	}

	if _, err := h.store.Member(ctx, g.ID, userID); err == nil {
		return fail(game.ErrAlreadyMember)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fail(err)
	}
	if err := h.store.AddMember(ctx, g.ID, userID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, g)
}

// memberGroup loads a group the caller belongs to.
func (h *Handler) memberGroup(ctx context.Context, groupID, userID int) (*models.Group, error) {
	g, err := h.store.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := h.store.Member(ctx, groupID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, game.ErrNotMember
		}
		return nil, err
	}
	return g, nil
}

// SavePrediction creates or replaces the caller's prediction for a race.
func (h *Handler) SavePrediction(c echo.Context) error {
	groupID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	raceID, err := intParam(c, "raceID")
	if err != nil {
		return err
	}
	var req predictionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	userID := mw.UserID(c)

	g, err := h.memberGroup(ctx, groupID, userID)
	if err != nil {
		return fail(err)
	}
	race, err := h.store.Race(ctx, raceID)
	if err != nil {
		return fail(err)
	}
	if race.Season != g.Season {
		return fail(fmt.Errorf("%w: race %d is not in season %d", game.ErrInvalidPrediction, raceID, g.Season))
	}
	if !game.CanPredict(g, race, h.now()) {
		return fail(game.ErrPredictionClosed)
	}

	teamOf, err := h.store.TeamsBySeason(ctx, g.Season)
	if err != nil {
		return fail(err)
	}
	p := &models.Prediction{
		GroupID:            groupID,
		RaceID:             raceID,
		UserID:             userID,
		Positions:          req.Positions,
		FastestLapDriverID: req.FastestLapDriverID,
		FastestLapTeamID:   req.FastestLapTeamID,
		UpdatedAt:          h.now().UTC(),
	}
	if err := game.ValidatePrediction(g, p, teamOf); err != nil {
		return fail(err)
	}
	if err := h.store.SavePrediction(ctx, p); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, p)
}

// Leaderboard returns the group's cumulative table.
func (h *Handler) Leaderboard(c echo.Context) error {
	groupID, err := intParam(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := h.memberGroup(ctx, groupID, mw.UserID(c)); err != nil {
		return fail(err)
	}
	scores, err := h.store.GroupScores(ctx, groupID)
	if err != nil {
		return fail(err)
	}
	members, err := h.store.GroupUsers(ctx, groupID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, standings.Leaderboard(scores, members))
}
