package importer

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/padraicbc/f1picks/models"
	"github.com/padraicbc/f1picks/openf1"
	"github.com/padraicbc/f1picks/store"
)

type scoreKey struct{ group, race, user int }

type memStore struct {
	mu          sync.Mutex
	races       map[int]*models.Race
	drivers     []models.Driver
	results     map[int][]models.RaceResult
	predictions []models.Prediction
	groups      map[int]models.Group
	teams       map[int]int
	scores      map[scoreKey]models.Score
	leases      map[int]lease
	replaces    int
	saveErr     error

	// block, when set, stalls Drivers and RaceResults until it is closed.
	// entered is signalled once a call starts waiting.
	block   chan struct{}
	entered chan struct{}
}

type lease struct {
	owner string
	until time.Time
}

func newMemStore() *memStore {
	return &memStore{
		races:   map[int]*models.Race{},
		results: map[int][]models.RaceResult{},
		groups:  map[int]models.Group{},
		teams:   map[int]int{},
		scores:  map[scoreKey]models.Score{},
		leases:  map[int]lease{},
	}
}

func (m *memStore) wait(ctx context.Context) error {
	if m.block == nil {
		return nil
	}
	if m.entered != nil {
		select {
		case m.entered <- struct{}{}:
		default:
		}
	}
	select {
	case <-m.block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *memStore) Race(_ context.Context, id int) (*models.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.races[id]
	if !ok {
		return nil, fmt.Errorf("%w: race %d", store.ErrNotFound, id)
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) Drivers(ctx context.Context) ([]models.Driver, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.drivers), nil
}

func (m *memStore) ReplaceRaceResults(_ context.Context, raceID int, results []models.RaceResult, link store.RaceLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.races[raceID]
	if !ok {
		return store.ErrNotFound
	}
	m.replaces++
	m.results[raceID] = slices.Clone(results)
	r.SessionKey = &link.SessionKey
	r.MeetingKey = &link.MeetingKey
	r.ResultsImported = true
	r.Status = models.RaceFinalized
	r.ImportedAt = &link.ImportedAt
	return nil
}

func (m *memStore) UpdateGridPosition(_ context.Context, raceID, driverID, grid int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.results[raceID]
	for i := range rows {
		if rows[i].DriverID == driverID {
			g := grid
			rows[i].GridPosition = &g
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) RaceResults(ctx context.Context, raceID int) ([]models.RaceResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := slices.Clone(m.results[raceID])
	slices.SortFunc(rows, func(a, b models.RaceResult) int { return a.Position - b.Position })
	return rows, nil
}

func (m *memStore) PredictionsForRace(_ context.Context, raceID int) ([]models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Prediction
	for _, p := range m.predictions {
		if p.RaceID == raceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) GroupsByID(_ context.Context, ids []int) ([]models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Group
	for _, id := range ids {
		if g, ok := m.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memStore) TeamsBySeason(_ context.Context, _ int) (map[int]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teams, nil
}

func (m *memStore) SaveScore(_ context.Context, sc *models.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.scores[scoreKey{sc.GroupID, sc.RaceID, sc.UserID}] = *sc
	return nil
}

func (m *memStore) LockRace(_ context.Context, raceID int, owner string, now, until time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.races[raceID]; !ok {
		return false, fmt.Errorf("%w: race %d", store.ErrNotFound, raceID)
	}
	if l, ok := m.leases[raceID]; ok && !l.until.Before(now) {
		return false, nil
	}
	m.leases[raceID] = lease{owner: owner, until: until}
	return true, nil
}

func (m *memStore) UnlockRace(_ context.Context, raceID int, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.leases[raceID]; ok && l.owner == owner {
		delete(m.leases, raceID)
	}
	return nil
}

func (m *memStore) leased(raceID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.leases[raceID]
	return ok
}

func (m *memStore) score(group, race, user int) (models.Score, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scores[scoreKey{group, race, user}]
	return s, ok
}

type fakeF1 struct {
	sessions  map[int]*openf1.Session
	quali     map[int]*openf1.Session
	positions map[int][]openf1.Position
	laps      map[int][]openf1.Lap
	roster    map[int][]openf1.SessionDriver
	matches   []openf1.Session
	err       error
}

func (f *fakeF1) Session(_ context.Context, key int) (*openf1.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[key], nil
}

func (f *fakeF1) SessionByMeeting(_ context.Context, meetingKey int, _ openf1.SessionKind) (*openf1.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quali[meetingKey], nil
}

func (f *fakeF1) FinalPositions(_ context.Context, key int) ([]openf1.Position, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := openf1.LatestPositions(f.positions[key])
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: session %d", openf1.ErrNoPositionData, key)
	}
	return out, nil
}

func (f *fakeF1) Laps(_ context.Context, key int) ([]openf1.Lap, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.laps[key], nil
}

func (f *fakeF1) Drivers(_ context.Context, key int) ([]openf1.SessionDriver, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roster[key], nil
}

func (f *fakeF1) MatchSessionsToRace(_ context.Context, _ string, _ time.Time, _ int) ([]openf1.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}
