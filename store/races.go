package store

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/padraicbc/f1picks/models"
)

// RaceLink is written onto a race once its results are imported.
type RaceLink struct {
	SessionKey int
	MeetingKey int
	ImportedAt time.Time
}

// Race loads a single race.
func (s *Store) Race(ctx context.Context, id int) (*models.Race, error) {
	race := &models.Race{}
	if err := s.db.NewSelect().Model(race).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "race", id)
	}
	return race, nil
}

// Races lists a season's races in calendar order.
func (s *Store) Races(ctx context.Context, season int) ([]models.Race, error) {
	var races []models.Race
	err := s.db.NewSelect().Model(&races).
		Where("season = ?", season).
		OrderExpr("scheduled_at ASC").
		Scan(ctx)
	return races, err
}

// Drivers lists every known driver.
func (s *Store) Drivers(ctx context.Context) ([]models.Driver, error) {
	var drivers []models.Driver
	err := s.db.NewSelect().Model(&drivers).OrderExpr("id ASC").Scan(ctx)
	return drivers, err
}

// Teams lists every team.
func (s *Store) Teams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := s.db.NewSelect().Model(&teams).OrderExpr("name ASC").Scan(ctx)
	return teams, err
}

// DriverSeasons returns the driver/team line-up of a season.
func (s *Store) DriverSeasons(ctx context.Context, season int) ([]models.DriverSeason, error) {
	var rows []models.DriverSeason
	err := s.db.NewSelect().Model(&rows).Where("season = ?", season).Scan(ctx)
	return rows, err
}

// TeamsBySeason maps driver id to team id for a season.
func (s *Store) TeamsBySeason(ctx context.Context, season int) (map[int]int, error) {
	rows, err := s.DriverSeasons(ctx, season)
	if err != nil {
		return nil, err
	}
	out := make(map[int]int, len(rows))
	for _, r := range rows {
		out[r.DriverID] = r.TeamID
	}
	return out, nil
}

// RaceResults returns the classification of a race ordered by position.
func (s *Store) RaceResults(ctx context.Context, raceID int) ([]models.RaceResult, error) {
	var rows []models.RaceResult
	err := s.db.NewSelect().Model(&rows).
		Where("race_id = ?", raceID).
		OrderExpr("position ASC").
		Scan(ctx)
	return rows, err
}

// FinalizedResults returns every result of the season's finalized races.
func (s *Store) FinalizedResults(ctx context.Context, season int) ([]models.RaceResult, error) {
	var rows []models.RaceResult
	err := s.db.NewSelect().Model(&rows).
		Join("JOIN races AS rc ON rc.id = rr.race_id").
		Where("rc.season = ?", season).
		Where("rc.status = ?", models.RaceFinalized).
		OrderExpr("rr.race_id ASC, rr.position ASC").
		Scan(ctx)
	return rows, err
}

// ReplaceRaceResults swaps the full result set of a race and marks the race
// as imported, all in one transaction.
func (s *Store) ReplaceRaceResults(ctx context.Context, raceID int, results []models.RaceResult, link RaceLink) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.NewDelete().Model((*models.RaceResult)(nil)).Where("race_id = ?", raceID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete results of race %d: %w", raceID, err)
	}

	if len(results) > 0 {
		if _, err = tx.NewInsert().Model(&results).Exec(ctx); err != nil {
			return fmt.Errorf("insert results of race %d: %w", raceID, err)
		}
	}

	res, err := tx.NewUpdate().
		TableExpr("races").
		Set("openf1_session_key = ?", link.SessionKey).
		Set("openf1_meeting_key = ?", link.MeetingKey).
		Set("results_imported = ?", true).
		Set("status = ?", models.RaceFinalized).
		Set("imported_at = ?", link.ImportedAt).
		Where("id = ?", raceID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("mark race %d imported: %w", raceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: race %d", ErrNotFound, raceID)
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// UpdateGridPosition sets the grid slot of an existing result row. It
// reports false when the race has no result for the driver.
func (s *Store) UpdateGridPosition(ctx context.Context, raceID, driverID, grid int) (bool, error) {
	res, err := s.db.NewUpdate().
		TableExpr("race_results").
		Set("grid_position = ?", grid).
		Where("race_id = ?", raceID).
		Where("driver_id = ?", driverID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// LockRace claims the import lease of a race for owner until the given time.
// It reports false while another owner holds a lease that has not expired.
func (s *Store) LockRace(ctx context.Context, raceID int, owner string, now, until time.Time) (bool, error) {
	res, err := s.db.NewUpdate().
		TableExpr("races").
		Set("import_owner = ?", owner).
		Set("import_lease_until = ?", until).
		Where("id = ?", raceID).
		WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.Where("import_owner IS NULL").WhereOr("import_lease_until < ?", now)
		}).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("lock race %d: %w", raceID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	exists, err := s.db.NewSelect().Model((*models.Race)(nil)).Where("id = ?", raceID).Exists(ctx)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("%w: race %d", ErrNotFound, raceID)
	}
	return false, nil
}

// UnlockRace drops the lease if owner still holds it.
func (s *Store) UnlockRace(ctx context.Context, raceID int, owner string) error {
	_, err := s.db.NewUpdate().
		TableExpr("races").
		Set("import_owner = NULL").
		Set("import_lease_until = NULL").
		Where("id = ?", raceID).
		Where("import_owner = ?", owner).
		Exec(ctx)
	return err
}
