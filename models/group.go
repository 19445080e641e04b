package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Group is a prediction league with its own scoring configuration.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID                    int         `bun:"id,pk,autoincrement" json:"id"`
	Name                  string      `bun:"name,notnull" json:"name"`
	InviteCode            string      `bun:"invite_code,notnull,unique" json:"inviteCode"`
	Season                int         `bun:"season,notnull" json:"season"`
	Positions             int         `bun:"positions,notnull,default:10" json:"positions"`
	DeadlineHours         int         `bun:"deadline_hours,notnull,default:2" json:"deadlineHours"`
	FastestLapDriverBonus bool        `bun:"fastest_lap_driver_bonus,notnull,default:false" json:"fastestLapDriverBonus"`
	FastestLapTeamBonus   bool        `bun:"fastest_lap_team_bonus,notnull,default:false" json:"fastestLapTeamBonus"`
	DualScoring           bool        `bun:"dual_scoring,notnull,default:false" json:"dualScoring"`
	CorrectDriverPoints   int         `bun:"correct_driver_points,notnull,default:5" json:"correctDriverPoints"`
	ExactPositionBonus    int         `bun:"exact_position_bonus,notnull,default:10" json:"exactPositionBonus"`
	PointsTable           map[int]int `bun:"points_table,type:jsonb" json:"pointsTable,omitempty"`
	CreatorID             int         `bun:"creator_id,notnull" json:"creatorID"`
	CreatedAt             time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// GroupMember records a user's membership of a group.
type GroupMember struct {
	bun.BaseModel `bun:"table:group_members,alias:gm"`

	ID      int  `bun:"id,pk,autoincrement" json:"id"`
	GroupID int  `bun:"group_id,notnull,unique:group_members_no_dupes" json:"groupID"`
	UserID  int  `bun:"user_id,notnull,unique:group_members_no_dupes" json:"userID"`
	IsAdmin bool `bun:"is_admin,notnull,default:false" json:"isAdmin"`
}
