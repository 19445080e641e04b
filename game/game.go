// Package game holds the rules around groups and predictions that do not
// depend on race results.
package game

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/padraicbc/f1picks/models"
	"github.com/padraicbc/f1picks/scoring"
)

var (
	ErrPredictionClosed  = errors.New("predictions are closed for this race")
	ErrNotMember         = errors.New("not a member of this group")
	ErrAlreadyMember     = errors.New("already a member of this group")
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrInvalidPrediction = errors.New("invalid prediction")
	ErrInvalidGroup      = errors.New("invalid group")
)

// DefaultDeadlineHours applies when a group leaves its deadline unset.
const DefaultDeadlineHours = 2

// InviteCodeLen is the length of generated invite codes.
const InviteCodeLen = 8

// Deadline is the instant predictions for race close in group g.
func Deadline(g *models.Group, race *models.Race) time.Time {
	hours := g.DeadlineHours
	if hours <= 0 {
		hours = DefaultDeadlineHours
	}
	return race.ScheduledAt.Add(-time.Duration(hours) * time.Hour)
}

// CanPredict reports whether predictions for race are still open at now.
func CanPredict(g *models.Group, race *models.Race, now time.Time) bool {
	if race.Status == models.RaceFinalized || race.ResultsImported {
		return false
	}
	return now.Before(Deadline(g, race)) && now.Before(race.ScheduledAt)
}

// ValidatePrediction checks a pick against the group's rules. teamOf maps
// every driver racing the group's season to their team.
func ValidatePrediction(g *models.Group, p *models.Prediction, teamOf map[int]int) error {
	if len(p.Positions) != g.Positions {
		return fmt.Errorf("%w: expected %d drivers, got %d", ErrInvalidPrediction, g.Positions, len(p.Positions))
	}
	if dupes := lo.FindDuplicates(p.Positions); len(dupes) > 0 {
		return fmt.Errorf("%w: driver %d picked more than once", ErrInvalidPrediction, dupes[0])
	}
	for _, id := range p.Positions {
		if _, ok := teamOf[id]; !ok {
			return fmt.Errorf("%w: driver %d is not racing in %d", ErrInvalidPrediction, id, g.Season)
		}
	}
	if p.FastestLapDriverID != nil {
		if _, ok := teamOf[*p.FastestLapDriverID]; !ok {
			return fmt.Errorf("%w: fastest lap driver %d is not racing in %d", ErrInvalidPrediction, *p.FastestLapDriverID, g.Season)
		}
	}
	if p.FastestLapTeamID != nil && !lo.Contains(lo.Values(teamOf), *p.FastestLapTeamID) {
		return fmt.Errorf("%w: team %d is not racing in %d", ErrInvalidPrediction, *p.FastestLapTeamID, g.Season)
	}
	return nil
}

// NewGroup fills in defaults for a group about to be created by creatorID.
func NewGroup(name string, season, creatorID int) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidGroup)
	}
	if season <= 0 {
		return nil, fmt.Errorf("%w: season is required", ErrInvalidGroup)
	}
	return &models.Group{
		Name:                name,
		InviteCode:          NewInviteCode(),
		Season:              season,
		Positions:           10,
		DeadlineHours:       DefaultDeadlineHours,
		CorrectDriverPoints: 5,
		ExactPositionBonus:  10,
		PointsTable:         scoring.OfficialPoints(),
		CreatorID:           creatorID,
	}, nil
}

// ValidateRules checks the scoring fields of a group.
func ValidateRules(g *models.Group) error {
	switch {
	case g.Positions < 1 || g.Positions > 20:
		return fmt.Errorf("%w: positions must be between 1 and 20", ErrInvalidGroup)
	case g.DeadlineHours < 0:
		return fmt.Errorf("%w: deadline hours cannot be negative", ErrInvalidGroup)
	case g.CorrectDriverPoints < 0 || g.ExactPositionBonus < 0:
		return fmt.Errorf("%w: bonus points cannot be negative", ErrInvalidGroup)
	}
	for pos, pts := range g.PointsTable {
		if pos < 1 || pts < 0 {
			return fmt.Errorf("%w: bad points table entry %d=%d", ErrInvalidGroup, pos, pts)
		}
	}
	return nil
}

// NewInviteCode returns a random upper-case code.
func NewInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:InviteCodeLen])
}

// NormalizeInviteCode cleans user input before lookup.
func NormalizeInviteCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != InviteCodeLen {
		return "", ErrInvalidInviteCode
	}
	return code, nil
}
