package models

import "github.com/uptrace/bun"

// RaceResult is the classified finish of one driver in one race.
type RaceResult struct {
	bun.BaseModel `bun:"table:race_results,alias:rr"`

	ID           int    `bun:"id,pk,autoincrement" json:"id"`
	RaceID       int    `bun:"race_id,notnull,unique:race_results_no_dupes" json:"raceID"`
	DriverID     int    `bun:"driver_id,notnull,unique:race_results_no_dupes" json:"driverID"`
	Position     int    `bun:"position,notnull" json:"position"`
	F1Points     int    `bun:"f1_points,notnull,default:0" json:"f1Points"`
	FastestLap   bool   `bun:"fastest_lap,notnull,default:false" json:"fastestLap"`
	GridPosition *int   `bun:"grid_position" json:"gridPosition,omitempty"`
	Status       string `bun:"status,notnull" json:"status"`
}
