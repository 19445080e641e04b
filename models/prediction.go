package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Prediction is one user's ordered pick for a race within a group.
type Prediction struct {
	bun.BaseModel `bun:"table:predictions,alias:p"`

	ID                 int       `bun:"id,pk,autoincrement" json:"id"`
	GroupID            int       `bun:"group_id,notnull,unique:predictions_no_dupes" json:"groupID"`
	RaceID             int       `bun:"race_id,notnull,unique:predictions_no_dupes" json:"raceID"`
	UserID             int       `bun:"user_id,notnull,unique:predictions_no_dupes" json:"userID"`
	Positions          []int     `bun:"positions,notnull,type:jsonb" json:"positions"`
	FastestLapDriverID *int      `bun:"fastest_lap_driver_id" json:"fastestLapDriverID,omitempty"`
	FastestLapTeamID   *int      `bun:"fastest_lap_team_id" json:"fastestLapTeamID,omitempty"`
	UpdatedAt          time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// Score is derived from a Prediction and the race results. Never edited by hand.
type Score struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID             int       `bun:"id,pk,autoincrement" json:"id"`
	GroupID        int       `bun:"group_id,notnull,unique:scores_no_dupes" json:"groupID"`
	RaceID         int       `bun:"race_id,notnull,unique:scores_no_dupes" json:"raceID"`
	UserID         int       `bun:"user_id,notnull,unique:scores_no_dupes" json:"userID"`
	PredictionID   int       `bun:"prediction_id,notnull" json:"predictionID"`
	Points         int       `bun:"points,notnull,default:0" json:"points"`
	ExactHits      int       `bun:"exact_hits,notnull,default:0" json:"exactHits"`
	CorrectDrivers int       `bun:"correct_drivers,notnull,default:0" json:"correctDrivers"`
	ComputedAt     time.Time `bun:"computed_at,notnull" json:"computedAt"`
}
