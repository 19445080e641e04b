package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/f1picks/game"
	"github.com/padraicbc/f1picks/importer"
	"github.com/padraicbc/f1picks/store"
)

// Handler holds shared dependencies used by all route handlers.
type Handler struct {
	store  *store.Store
	engine *importer.Engine
	JWTKey []byte
	now    func() time.Time
}

// New creates a Handler backed by the given store and import engine.
func New(s *store.Store, e *importer.Engine, jwtKey []byte) *Handler {
	return &Handler{store: s, engine: e, JWTKey: jwtKey, now: time.Now}
}

func intParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}

// fail maps domain errors onto HTTP statuses.
func fail(err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, importer.ErrRaceNotFound),
		errors.Is(err, importer.ErrSessionNotFound),
		errors.Is(err, game.ErrInvalidInviteCode):
		status = http.StatusNotFound
	case errors.Is(err, importer.ErrImportInProgress),
		errors.Is(err, game.ErrAlreadyMember):
		status = http.StatusConflict
	case errors.Is(err, importer.ErrUnmappedDrivers),
		errors.Is(err, importer.ErrAmbiguousDriverMapping),
		errors.Is(err, importer.ErrNoPositionData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, importer.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, game.ErrPredictionClosed),
		errors.Is(err, game.ErrNotMember):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrInvalidPrediction),
		errors.Is(err, game.ErrInvalidGroup):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
	}
	return echo.NewHTTPError(status, err.Error())
}
