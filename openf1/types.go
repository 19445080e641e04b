package openf1

import "time"

// SessionKind is the OpenF1 session_type filter value.
type SessionKind string

const (
	KindRace       SessionKind = "Race"
	KindQualifying SessionKind = "Qualifying"
)

// Session is a timed track activity (practice, qualifying, race).
type Session struct {
	SessionKey       int       `json:"session_key"`
	MeetingKey       int       `json:"meeting_key"`
	SessionName      string    `json:"session_name"`
	SessionType      string    `json:"session_type"`
	Location         string    `json:"location"`
	CountryName      string    `json:"country_name"`
	CircuitShortName string    `json:"circuit_short_name"`
	DateStart        time.Time `json:"date_start"`
	DateEnd          time.Time `json:"date_end"`
	Year             int       `json:"year"`
}

// Place returns the location, falling back to the country name.
func (s Session) Place() string {
	if s.Location != "" {
		return s.Location
	}
	return s.CountryName
}

// Position is a timestamped position update for one driver.
type Position struct {
	DriverNumber int       `json:"driver_number"`
	Position     int       `json:"position"`
	Date         time.Time `json:"date"`
	SessionKey   int       `json:"session_key"`
	MeetingKey   int       `json:"meeting_key"`
}

// Lap is a single lap record. Durations are in seconds.
type Lap struct {
	DriverNumber    int      `json:"driver_number"`
	LapNumber       int      `json:"lap_number"`
	LapDuration     *float64 `json:"lap_duration"`
	IsPitOutLap     bool     `json:"is_pit_out_lap"`
	DurationSector1 *float64 `json:"duration_sector_1"`
	DurationSector2 *float64 `json:"duration_sector_2"`
	DurationSector3 *float64 `json:"duration_sector_3"`
	SessionKey      int      `json:"session_key"`
}

// Duration returns the lap time, zero when missing.
func (l Lap) Duration() float64 {
	if l.LapDuration == nil {
		return 0
	}
	return *l.LapDuration
}

// SessionDriver is an entry of a session's driver roster.
type SessionDriver struct {
	DriverNumber int    `json:"driver_number"`
	FullName     string `json:"full_name"`
	NameAcronym  string `json:"name_acronym"`
	TeamName     string `json:"team_name"`
	SessionKey   int    `json:"session_key"`
}
