package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Race lifecycle states.
const (
	RaceScheduled = "scheduled"
	RaceFinalized = "finalized"
)

// Race is a scheduled grand prix, optionally linked to an OpenF1 session.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:rc"`

	ID              int        `bun:"id,pk,autoincrement" json:"id"`
	Name            string     `bun:"name,notnull" json:"name"`
	ScheduledAt     time.Time  `bun:"scheduled_at,notnull" json:"scheduledAt"`
	Season          int        `bun:"season,notnull" json:"season"`
	Circuit         string     `bun:"circuit,notnull" json:"circuit"`
	Status          string     `bun:"status,notnull" json:"status"`
	SessionKey      *int       `bun:"openf1_session_key" json:"sessionKey,omitempty"`
	MeetingKey      *int       `bun:"openf1_meeting_key" json:"meetingKey,omitempty"`
	ResultsImported bool       `bun:"results_imported,notnull,default:false" json:"resultsImported"`
	ImportedAt      *time.Time `bun:"imported_at" json:"importedAt,omitempty"`

	// Held while an import or rescore of the race runs in any process.
	ImportOwner      string     `bun:"import_owner,nullzero" json:"-"`
	ImportLeaseUntil *time.Time `bun:"import_lease_until" json:"-"`
}
