package store

import (
	"context"

	"github.com/padraicbc/f1picks/models"
)

// PredictionsForRace returns the predictions of every group for a race.
func (s *Store) PredictionsForRace(ctx context.Context, raceID int) ([]models.Prediction, error) {
	var rows []models.Prediction
	err := s.db.NewSelect().Model(&rows).
		Where("race_id = ?", raceID).
		OrderExpr("id ASC").
		Scan(ctx)
	return rows, err
}

// SavePrediction inserts or replaces the user's prediction for a race in a group.
func (s *Store) SavePrediction(ctx context.Context, p *models.Prediction) error {
	_, err := s.db.NewInsert().Model(p).
		On("CONFLICT (group_id, race_id, user_id) DO UPDATE").
		Set("positions = EXCLUDED.positions").
		Set("fastest_lap_driver_id = EXCLUDED.fastest_lap_driver_id").
		Set("fastest_lap_team_id = EXCLUDED.fastest_lap_team_id").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// SaveScore inserts or fully replaces the score of a prediction.
func (s *Store) SaveScore(ctx context.Context, sc *models.Score) error {
	_, err := s.db.NewInsert().Model(sc).
		On("CONFLICT (group_id, race_id, user_id) DO UPDATE").
		Set("prediction_id = EXCLUDED.prediction_id").
		Set("points = EXCLUDED.points").
		Set("exact_hits = EXCLUDED.exact_hits").
		Set("correct_drivers = EXCLUDED.correct_drivers").
		Set("computed_at = EXCLUDED.computed_at").
		Exec(ctx)
	return err
}

// GroupScores returns every score recorded in a group.
func (s *Store) GroupScores(ctx context.Context, groupID int) ([]models.Score, error) {
	var rows []models.Score
	err := s.db.NewSelect().Model(&rows).
		Where("group_id = ?", groupID).
		OrderExpr("race_id ASC, user_id ASC").
		Scan(ctx)
	return rows, err
}
