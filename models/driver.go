package models

import "github.com/uptrace/bun"

// Driver is a Formula 1 driver. OpenF1Number is the number used by the
// telemetry API when it differs from the display number.
type Driver struct {
	bun.BaseModel `bun:"table:drivers,alias:d"`

	ID           int    `bun:"id,pk,autoincrement" json:"id"`
	FullName     string `bun:"full_name,notnull" json:"fullName"`
	Acronym      string `bun:"acronym,notnull" json:"acronym"`
	Number       int    `bun:"number,notnull,default:0" json:"number"`
	OpenF1Number *int   `bun:"openf1_number" json:"openf1Number,omitempty"`
}

// Team is a constructor.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID   int    `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// DriverSeason ties a driver to a team for one season.
type DriverSeason struct {
	bun.BaseModel `bun:"table:driver_seasons,alias:ds"`

	ID        int `bun:"id,pk,autoincrement" json:"id"`
	Season    int `bun:"season,notnull,unique:driver_seasons_no_dupes" json:"season"`
	DriverID  int `bun:"driver_id,notnull,unique:driver_seasons_no_dupes" json:"driverID"`
	TeamID    int `bun:"team_id,notnull" json:"teamID"`
	CarNumber int `bun:"car_number,notnull,default:0" json:"carNumber"`
}
