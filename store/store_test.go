package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/padraicbc/f1picks/db"
	"github.com/padraicbc/f1picks/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = bdb.Close() })

	require.NoError(t, db.CreateTables(context.Background(), bdb))
	return New(bdb)
}

func seedRace(t *testing.T, s *Store) *models.Race {
	t.Helper()
	ctx := context.Background()
	race := &models.Race{Name: "Bahrain Grand Prix", Season: 2024, Circuit: "Sakhir", Status: models.RaceScheduled,
		ScheduledAt: time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)}
	_, err := s.DB().NewInsert().Model(race).Exec(ctx)
	require.NoError(t, err)

	drivers := []models.Driver{
		{FullName: "Max Verstappen", Acronym: "VER", Number: 1},
		{FullName: "Charles Leclerc", Acronym: "LEC", Number: 16},
		{FullName: "Lewis Hamilton", Acronym: "HAM", Number: 44},
	}
	_, err = s.DB().NewInsert().Model(&drivers).Exec(ctx)
	require.NoError(t, err)
	return race
}

func TestReplaceRaceResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	race := seedRace(t, s)
	at := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)

	first := []models.RaceResult{
		{RaceID: race.ID, DriverID: 1, Position: 1, F1Points: 25, Status: "Finished"},
		{RaceID: race.ID, DriverID: 2, Position: 2, F1Points: 18, Status: "Finished"},
		{RaceID: race.ID, DriverID: 3, Position: 3, F1Points: 15, FastestLap: true, Status: "Finished"},
	}
	require.NoError(t, s.ReplaceRaceResults(ctx, race.ID, first, RaceLink{SessionKey: 9472, MeetingKey: 1229, ImportedAt: at}))

	second := []models.RaceResult{
		{RaceID: race.ID, DriverID: 2, Position: 1, F1Points: 25, Status: "Finished"},
		{RaceID: race.ID, DriverID: 1, Position: 2, F1Points: 18, FastestLap: true, Status: "Finished"},
	}
	require.NoError(t, s.ReplaceRaceResults(ctx, race.ID, second, RaceLink{SessionKey: 9472, MeetingKey: 1229, ImportedAt: at}))

	rows, err := s.RaceResults(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []int{2, 1}, lo.Map(rows, func(r models.RaceResult, _ int) int { return r.DriverID }))
	assert.True(t, rows[1].FastestLap)

	got, err := s.Race(ctx, race.ID)
	require.NoError(t, err)
	assert.True(t, got.ResultsImported)
	assert.Equal(t, models.RaceFinalized, got.Status)
	require.NotNil(t, got.SessionKey)
	assert.Equal(t, 9472, *got.SessionKey)
	assert.Equal(t, 1229, *got.MeetingKey)
	require.NotNil(t, got.ImportedAt)
	assert.True(t, at.Equal(*got.ImportedAt))
}

func TestReplaceRaceResults_UnknownRaceRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRace(t, s)

	err := s.ReplaceRaceResults(ctx, 99, []models.RaceResult{
		{RaceID: 99, DriverID: 1, Position: 1, Status: "Finished"},
	}, RaceLink{ImportedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)

	rows, err := s.RaceResults(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLockRace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	race := seedRace(t, s)
	now := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)
	lease := now.Add(10 * time.Minute)

	ok, err := s.LockRace(ctx, race.ID, "server", now, lease)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second process is refused while the lease is live.
	ok, err = s.LockRace(ctx, race.ID, "cli", now.Add(time.Minute), lease)
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the owner can release it.
	require.NoError(t, s.UnlockRace(ctx, race.ID, "cli"))
	ok, err = s.LockRace(ctx, race.ID, "cli", now.Add(time.Minute), lease)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UnlockRace(ctx, race.ID, "server"))
	ok, err = s.LockRace(ctx, race.ID, "cli", now.Add(time.Minute), lease)
	require.NoError(t, err)
	assert.True(t, ok)

	// An expired lease is taken over.
	ok, err = s.LockRace(ctx, race.ID, "server", lease.Add(time.Second), lease.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Race(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, "server", got.ImportOwner)

	_, err = s.LockRace(ctx, 999, "server", now, lease)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateGridPosition(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	race := seedRace(t, s)
	require.NoError(t, s.ReplaceRaceResults(ctx, race.ID, []models.RaceResult{
		{RaceID: race.ID, DriverID: 1, Position: 1, Status: "Finished"},
	}, RaceLink{ImportedAt: time.Now()}))

	ok, err := s.UpdateGridPosition(ctx, race.ID, 1, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateGridPosition(ctx, race.ID, 2, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := s.RaceResults(ctx, race.ID)
	require.NoError(t, err)
	require.NotNil(t, rows[0].GridPosition)
	assert.Equal(t, 3, *rows[0].GridPosition)
}

func TestFinalizedResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	race := seedRace(t, s)

	open := &models.Race{Name: "Saudi Arabian Grand Prix", Season: 2024, Circuit: "Jeddah", Status: models.RaceScheduled,
		ScheduledAt: time.Date(2024, 3, 9, 17, 0, 0, 0, time.UTC)}
	_, err := s.DB().NewInsert().Model(open).Exec(ctx)
	require.NoError(t, err)
	_, err = s.DB().NewInsert().Model(&models.RaceResult{RaceID: open.ID, DriverID: 1, Position: 1, Status: "Finished"}).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, s.ReplaceRaceResults(ctx, race.ID, []models.RaceResult{
		{RaceID: race.ID, DriverID: 3, Position: 1, F1Points: 25, Status: "Finished"},
	}, RaceLink{ImportedAt: time.Now()}))

	rows, err := s.FinalizedResults(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].DriverID)

	races, err := s.Races(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bahrain Grand Prix", "Saudi Arabian Grand Prix"}, lo.Map(races, func(r models.Race, _ int) string { return r.Name }))
}

func TestGroupsAndMembers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := &models.Group{Name: "Paddock Club", InviteCode: "ABCD2345", Season: 2024, Positions: 10, DeadlineHours: 2,
		CorrectDriverPoints: 5, ExactPositionBonus: 10, PointsTable: map[int]int{1: 25, 2: 18}, CreatorID: 7}
	require.NoError(t, s.CreateGroup(ctx, g))
	require.NotZero(t, g.ID)

	m, err := s.Member(ctx, g.ID, 7)
	require.NoError(t, err)
	assert.True(t, m.IsAdmin)

	_, err = s.Member(ctx, g.ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, s.AddMember(ctx, g.ID, 8))
	m, err = s.Member(ctx, g.ID, 8)
	require.NoError(t, err)
	assert.False(t, m.IsAdmin)
	assert.Error(t, s.AddMember(ctx, g.ID, 8), "membership is unique")

	byCode, err := s.GroupByInviteCode(ctx, "ABCD2345")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byCode.ID)
	assert.Equal(t, map[int]int{1: 25, 2: 18}, byCode.PointsTable)

	_, err = s.GroupByInviteCode(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.DB().NewInsert().Model(&[]models.User{{ID: 7, Username: "lando", Password: "x"}, {ID: 8, Username: "oscar", Password: "x"}}).Exec(ctx)
	require.NoError(t, err)
	users, err := s.GroupUsers(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"lando", "oscar"}, lo.Map(users, func(u models.User, _ int) string { return u.Username }))

	groups, err := s.GroupsByID(ctx, []int{g.ID, 404})
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestPredictionAndScoreUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	race := seedRace(t, s)

	p := &models.Prediction{GroupID: 1, RaceID: race.ID, UserID: 7, Positions: []int{1, 2, 3}}
	require.NoError(t, s.SavePrediction(ctx, p))
	p2 := &models.Prediction{GroupID: 1, RaceID: race.ID, UserID: 7, Positions: []int{3, 2, 1}, FastestLapDriverID: lo.ToPtr(3),
		UpdatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	require.NoError(t, s.SavePrediction(ctx, p2))

	preds, err := s.PredictionsForRace(ctx, race.ID)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, []int{3, 2, 1}, preds[0].Positions)
	assert.Equal(t, 3, lo.FromPtr(preds[0].FastestLapDriverID))

	at := time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveScore(ctx, &models.Score{GroupID: 1, RaceID: race.ID, UserID: 7, PredictionID: preds[0].ID, Points: 10, ComputedAt: at}))
	require.NoError(t, s.SaveScore(ctx, &models.Score{GroupID: 1, RaceID: race.ID, UserID: 7, PredictionID: preds[0].ID, Points: 43, ExactHits: 2, CorrectDrivers: 3, ComputedAt: at}))

	scores, err := s.GroupScores(ctx, 1)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 43, scores[0].Points)
	assert.Equal(t, 2, scores[0].ExactHits)
	assert.Equal(t, 3, scores[0].CorrectDrivers)
}

func TestTeamsBySeason(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rows := []models.DriverSeason{
		{Season: 2024, DriverID: 1, TeamID: 10, CarNumber: 1},
		{Season: 2024, DriverID: 2, TeamID: 20, CarNumber: 16},
		{Season: 2023, DriverID: 2, TeamID: 30, CarNumber: 16},
	}
	_, err := s.DB().NewInsert().Model(&rows).Exec(ctx)
	require.NoError(t, err)

	teams, err := s.TeamsBySeason(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 10, 2: 20}, teams)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.DB().NewInsert().Model(&models.User{Username: "lando", Password: "x"}).Exec(ctx)
	require.NoError(t, err)

	u, err := s.UserByUsername(ctx, "lando")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)

	_, err = s.UserByUsername(ctx, "oscar")
	assert.ErrorIs(t, err, ErrNotFound)
}
