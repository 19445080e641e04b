// Package importer pulls official results from OpenF1, reconciles them with
// the local driver list, persists them and rescores every prediction of the
// race.
package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/padraicbc/f1picks/models"
	"github.com/padraicbc/f1picks/openf1"
	"github.com/padraicbc/f1picks/scoring"
	"github.com/padraicbc/f1picks/store"
)

// Store is the persistence the engine needs.
type Store interface {
	Race(ctx context.Context, id int) (*models.Race, error)
	Drivers(ctx context.Context) ([]models.Driver, error)
	ReplaceRaceResults(ctx context.Context, raceID int, results []models.RaceResult, link store.RaceLink) error
	UpdateGridPosition(ctx context.Context, raceID, driverID, grid int) (bool, error)
	RaceResults(ctx context.Context, raceID int) ([]models.RaceResult, error)
	PredictionsForRace(ctx context.Context, raceID int) ([]models.Prediction, error)
	GroupsByID(ctx context.Context, ids []int) ([]models.Group, error)
	TeamsBySeason(ctx context.Context, season int) (map[int]int, error)
	SaveScore(ctx context.Context, sc *models.Score) error
	LockRace(ctx context.Context, raceID int, owner string, now, until time.Time) (bool, error)
	UnlockRace(ctx context.Context, raceID int, owner string) error
}

// Telemetry is the subset of the OpenF1 client the engine uses.
type Telemetry interface {
	Session(ctx context.Context, sessionKey int) (*openf1.Session, error)
	SessionByMeeting(ctx context.Context, meetingKey int, kind openf1.SessionKind) (*openf1.Session, error)
	FinalPositions(ctx context.Context, sessionKey int) ([]openf1.Position, error)
	Laps(ctx context.Context, sessionKey int) ([]openf1.Lap, error)
	Drivers(ctx context.Context, sessionKey int) ([]openf1.SessionDriver, error)
	MatchSessionsToRace(ctx context.Context, raceName string, raceDate time.Time, year int) ([]openf1.Session, error)
}

// importLease bounds how long a crashed process can keep a race locked.
const importLease = 15 * time.Minute

type Engine struct {
	store   Store
	f1      Telemetry
	l       *zap.Logger
	workers int
	now     func() time.Time
	locks   *raceLocks
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.l = l }
}

// WithWorkers bounds how many predictions are scored in parallel.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = max(n, 1) }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(s Store, t Telemetry, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		f1:      t,
		l:       zap.NewNop(),
		workers: 4,
		now:     time.Now,
		locks:   newRaceLocks(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.l = e.l.Named("importer")
	return e
}

// Candidate is an OpenF1 session offered to the operator for a race.
type Candidate struct {
	SessionKey int       `json:"sessionKey"`
	MeetingKey int       `json:"meetingKey"`
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	Date       time.Time `json:"date"`
	Circuit    string    `json:"circuit"`
}

// ImportSummary reports a finished race import.
type ImportSummary struct {
	RaceID                 int       `json:"raceID"`
	SessionKey             int       `json:"sessionKey"`
	MeetingKey             int       `json:"meetingKey"`
	Results                int       `json:"results"`
	FastestLapDriverNumber *int      `json:"fastestLapDriverNumber,omitempty"`
	PredictionsRescored    int       `json:"predictionsRescored"`
	Session                Candidate `json:"session"`
}

// QualifyingSummary reports a grid import. Updated counts rows written out of
// Total classified drivers.
type QualifyingSummary struct {
	RaceID     int   `json:"raceID"`
	SessionKey int   `json:"sessionKey"`
	Updated    int   `json:"count"`
	Total      int   `json:"total"`
	Unmapped   []int `json:"unmapped,omitempty"`
	NoResult   []int `json:"noResult,omitempty"`
}

func candidate(s *openf1.Session) Candidate {
	return Candidate{
		SessionKey: s.SessionKey,
		MeetingKey: s.MeetingKey,
		Name:       s.SessionName,
		Location:   s.Place(),
		Date:       s.DateStart,
		Circuit:    s.CircuitShortName,
	}
}

func (e *Engine) race(ctx context.Context, raceID int) (*models.Race, error) {
	race, err := e.store.Race(ctx, raceID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRaceNotFound, raceID)
	}
	return race, err
}

// MatchSessions lists the OpenF1 race sessions that may belong to the race,
// closest date first. It never picks one on its own.
func (e *Engine) MatchSessions(ctx context.Context, raceID int) ([]Candidate, error) {
	race, err := e.race(ctx, raceID)
	if err != nil {
		return nil, err
	}
	sessions, err := e.f1.MatchSessionsToRace(ctx, race.Name, race.ScheduledAt, race.Season)
	if err != nil {
		return nil, err
	}
	return lo.Map(sessions, func(s openf1.Session, _ int) Candidate { return candidate(&s) }), nil
}

// ImportRaceResults replaces the results of raceID with the classification of
// the OpenF1 session and rescores the race in every group. Nothing is written
// unless every classified driver resolves.
func (e *Engine) ImportRaceResults(ctx context.Context, raceID, sessionKey int) (*ImportSummary, error) {
	run := uuid.NewString()
	l := e.l.With(zap.String("run", run), zap.Int("race", raceID), zap.Int("session", sessionKey))
	unlock, err := e.lock(ctx, l, raceID, run)
	if err != nil {
		return nil, err
	}
	defer unlock()
	l.Info("race import started")

	race, err := e.race(ctx, raceID)
	if err != nil {
		return nil, err
	}
	session, err := e.f1.Session(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %d", ErrSessionNotFound, sessionKey)
	}

	var (
		positions []openf1.Position
		laps      []openf1.Lap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		positions, err = e.f1.FinalPositions(gctx, sessionKey)
		return err
	})
	g.Go(func() error {
		var err error
		laps, err = e.f1.Laps(gctx, sessionKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: session %d", ErrNoPositionData, sessionKey)
	}
	l.Debug("telemetry fetched", zap.Int("positions", len(positions)), zap.Int("laps", len(laps)))

	var fastestNumber *int
	if fl := openf1.FastestValidLap(laps); fl != nil {
		fastestNumber = lo.ToPtr(fl.DriverNumber)
		l.Info("fastest lap", zap.Int("driver", fl.DriverNumber), zap.Float64("duration", fl.Duration()))
		if !lo.ContainsBy(positions, func(p openf1.Position) bool { return p.DriverNumber == fl.DriverNumber }) {
			l.Warn("fastest lap driver is not classified, no fastest lap bonus will be awarded", zap.Int("driver", fl.DriverNumber))
		}
	}

	dm, err := e.driverMap(ctx)
	if err != nil {
		return nil, err
	}
	numbers := lo.Map(positions, func(p openf1.Position, _ int) int { return p.DriverNumber })
	if missing := dm.Missing(numbers); len(missing) > 0 {
		l.Warn("unmapped drivers, nothing written", zap.Ints("numbers", missing), zap.Strings("names", e.rosterNames(ctx, l, sessionKey, missing)))
		return nil, &UnmappedDriversError{Numbers: missing}
	}

	results := make([]models.RaceResult, 0, len(positions))
	for _, p := range positions {
		results = append(results, models.RaceResult{
			RaceID:     raceID,
			DriverID:   dm[p.DriverNumber].ID,
			Position:   p.Position,
			F1Points:   scoring.F1Points(p.Position),
			FastestLap: fastestNumber != nil && *fastestNumber == p.DriverNumber,
			Status:     "Finished",
		})
	}

	link := store.RaceLink{
		SessionKey: sessionKey,
		MeetingKey: session.MeetingKey,
		ImportedAt: e.now().UTC(),
	}
	if err := e.store.ReplaceRaceResults(ctx, raceID, results, link); err != nil {
		return nil, fmt.Errorf("persist results of race %d: %w", raceID, err)
	}
	l.Info("results written", zap.Int("rows", len(results)))

	rescored, err := e.rescore(ctx, race, results)
	if err != nil {
		return nil, fmt.Errorf("race %d imported but rescoring failed: %w", raceID, err)
	}
	l.Info("race import finished", zap.Int("rescored", rescored))

	return &ImportSummary{
		RaceID:                 raceID,
		SessionKey:             sessionKey,
		MeetingKey:             session.MeetingKey,
		Results:                len(results),
		FastestLapDriverNumber: fastestNumber,
		PredictionsRescored:    rescored,
		Session:                candidate(session),
	}, nil
}

// ImportQualifyingResults copies qualifying positions onto the grid position
// of existing results. Drivers that do not resolve, or have no result row
// yet, are skipped.
func (e *Engine) ImportQualifyingResults(ctx context.Context, raceID, meetingKey int) (*QualifyingSummary, error) {
	run := uuid.NewString()
	l := e.l.With(zap.String("run", run), zap.Int("race", raceID), zap.Int("meeting", meetingKey))
	unlock, err := e.lock(ctx, l, raceID, run)
	if err != nil {
		return nil, err
	}
	defer unlock()
	l.Info("qualifying import started")

	if _, err := e.race(ctx, raceID); err != nil {
		return nil, err
	}
	session, err := e.f1.SessionByMeeting(ctx, meetingKey, openf1.KindQualifying)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("%w: qualifying of meeting %d", ErrSessionNotFound, meetingKey)
	}
	positions, err := e.f1.FinalPositions(ctx, session.SessionKey)
	if err != nil {
		return nil, err
	}
	dm, err := e.driverMap(ctx)
	if err != nil {
		return nil, err
	}

	sum := &QualifyingSummary{RaceID: raceID, SessionKey: session.SessionKey, Total: len(positions)}
	for _, p := range positions {
		ref, ok := dm[p.DriverNumber]
		if !ok {
			l.Warn("driver not found", zap.Int("number", p.DriverNumber))
			sum.Unmapped = append(sum.Unmapped, p.DriverNumber)
			continue
		}
		updated, err := e.store.UpdateGridPosition(ctx, raceID, ref.ID, p.Position)
		if err != nil {
			return nil, fmt.Errorf("update grid of driver %d: %w", ref.ID, err)
		}
		if !updated {
			l.Debug("no race result for driver", zap.Int("driver", ref.ID))
			sum.NoResult = append(sum.NoResult, p.DriverNumber)
			continue
		}
		sum.Updated++
	}
	l.Info("qualifying import finished", zap.Int("updated", sum.Updated), zap.Int("total", sum.Total))
	return sum, nil
}

// RescoreRace recomputes every score of the race from its stored results. It
// shares the import lock so it never scores a result set that is being
// replaced.
func (e *Engine) RescoreRace(ctx context.Context, raceID int) (int, error) {
	run := uuid.NewString()
	l := e.l.With(zap.String("run", run), zap.Int("race", raceID))
	unlock, err := e.lock(ctx, l, raceID, run)
	if err != nil {
		return 0, err
	}
	defer unlock()

	race, err := e.race(ctx, raceID)
	if err != nil {
		return 0, err
	}
	results, err := e.store.RaceResults(ctx, raceID)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("%w: race %d has no results", ErrNoPositionData, raceID)
	}
	return e.rescore(ctx, race, results)
}

// rosterNames looks up who the unmapped numbers are, for the operator.
func (e *Engine) rosterNames(ctx context.Context, l *zap.Logger, sessionKey int, numbers []int) []string {
	roster, err := e.f1.Drivers(ctx, sessionKey)
	if err != nil {
		l.Debug("session roster unavailable", zap.Error(err))
		return nil
	}
	byNumber := lo.KeyBy(roster, func(d openf1.SessionDriver) int { return d.DriverNumber })
	return lo.FilterMap(numbers, func(n int, _ int) (string, bool) {
		d, ok := byNumber[n]
		return fmt.Sprintf("#%d %s (%s)", n, d.FullName, d.TeamName), ok
	})
}

func (e *Engine) driverMap(ctx context.Context) (DriverMap, error) {
	drivers, err := e.store.Drivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load drivers: %w", err)
	}
	return BuildDriverMap(drivers)
}

func (e *Engine) rescore(ctx context.Context, race *models.Race, results []models.RaceResult) (int, error) {
	preds, err := e.store.PredictionsForRace(ctx, race.ID)
	if err != nil {
		return 0, fmt.Errorf("load predictions: %w", err)
	}
	if len(preds) == 0 {
		return 0, nil
	}

	groupIDs := lo.Uniq(lo.Map(preds, func(p models.Prediction, _ int) int { return p.GroupID }))
	groups, err := e.store.GroupsByID(ctx, groupIDs)
	if err != nil {
		return 0, fmt.Errorf("load groups: %w", err)
	}
	byID := lo.KeyBy(groups, func(g models.Group) int { return g.ID })

	teamOf, err := e.store.TeamsBySeason(ctx, race.Season)
	if err != nil {
		return 0, fmt.Errorf("load season teams: %w", err)
	}
	outcome := scoring.OutcomeFrom(results, teamOf)
	computedAt := e.now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	count := 0
	for _, p := range preds {
		grp, ok := byID[p.GroupID]
		if !ok {
			e.l.Warn("prediction without group", zap.Int("prediction", p.ID), zap.Int("group", p.GroupID))
			continue
		}
		count++
		g.Go(func() error {
			res := scoring.Compute(scoring.PickFrom(&p), outcome, scoring.RulesFor(&grp))
			return e.store.SaveScore(gctx, &models.Score{
				GroupID:        p.GroupID,
				RaceID:         p.RaceID,
				UserID:         p.UserID,
				PredictionID:   p.ID,
				Points:         res.Points,
				ExactHits:      res.ExactHits,
				CorrectDrivers: res.CorrectDrivers,
				ComputedAt:     computedAt,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("save scores: %w", err)
	}
	return count, nil
}

// lock claims raceID for run, first in this process and then through the
// store lease, so a second process importing the same race is refused too.
// The returned func releases both.
func (e *Engine) lock(ctx context.Context, l *zap.Logger, raceID int, run string) (func(), error) {
	if !e.locks.acquire(raceID) {
		return nil, fmt.Errorf("%w: %d", ErrImportInProgress, raceID)
	}
	now := e.now().UTC()
	ok, err := e.store.LockRace(ctx, raceID, run, now, now.Add(importLease))
	if err != nil {
		e.locks.release(raceID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrRaceNotFound, raceID)
		}
		return nil, err
	}
	if !ok {
		e.locks.release(raceID)
		return nil, fmt.Errorf("%w: %d (held by another process)", ErrImportInProgress, raceID)
	}
	return func() {
		if err := e.store.UnlockRace(context.WithoutCancel(ctx), raceID, run); err != nil {
			l.Warn("could not release race lease", zap.Error(err))
		}
		e.locks.release(raceID)
	}, nil
}

// raceLocks keeps at most one import per race in flight.
type raceLocks struct {
	mu   sync.Mutex
	busy map[int]struct{}
}

func newRaceLocks() *raceLocks {
	return &raceLocks{busy: make(map[int]struct{})}
}

func (r *raceLocks) acquire(raceID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.busy[raceID]; ok {
		return false
	}
	r.busy[raceID] = struct{}{}
	return true
}

func (r *raceLocks) release(raceID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.busy, raceID)
}
