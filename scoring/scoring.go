// Package scoring turns a user's prediction and the official classification
// into points. Everything here is pure; callers recompute a score from
// scratch whenever the results of its race change.
package scoring

import (
	"slices"

	"github.com/samber/lo"

	"github.com/padraicbc/f1picks/models"
)

// FastestLapBonus is awarded for each correct fastest-lap guess.
const FastestLapBonus = 1

// officialPoints is the standard F1 table. Positions past tenth score nothing.
var officialPoints = map[int]int{
	1: 25, 2: 18, 3: 15, 4: 12, 5: 10,
	6: 8, 7: 6, 8: 4, 9: 2, 10: 1,
}

// OfficialPoints returns a copy of the standard F1 table.
func OfficialPoints() map[int]int {
	return lo.Assign(officialPoints)
}

// F1Points returns championship points for a classified position.
func F1Points(position int) int {
	return officialPoints[position]
}

// Rules is a group's scoring configuration.
type Rules struct {
	Positions             int
	PointsTable           map[int]int
	DualScoring           bool
	CorrectDriverPoints   int
	ExactPositionBonus    int
	FastestLapDriverBonus bool
	FastestLapTeamBonus   bool
}

// RulesFor reads the scoring configuration off a group. An empty points
// table falls back to the official table.
func RulesFor(g *models.Group) Rules {
	return Rules{
		Positions:             g.Positions,
		PointsTable:           g.PointsTable,
		DualScoring:           g.DualScoring,
		CorrectDriverPoints:   g.CorrectDriverPoints,
		ExactPositionBonus:    g.ExactPositionBonus,
		FastestLapDriverBonus: g.FastestLapDriverBonus,
		FastestLapTeamBonus:   g.FastestLapTeamBonus,
	}
}

func (r Rules) pointsFor(position int) int {
	if len(r.PointsTable) == 0 {
		return officialPoints[position]
	}
	return r.PointsTable[position]
}

// Pick is what the user predicted: driver ids in finishing order.
type Pick struct {
	Positions          []int
	FastestLapDriverID *int
	FastestLapTeamID   *int
}

// PickFrom converts a stored prediction.
func PickFrom(p *models.Prediction) Pick {
	return Pick{
		Positions:          p.Positions,
		FastestLapDriverID: p.FastestLapDriverID,
		FastestLapTeamID:   p.FastestLapTeamID,
	}
}

// Outcome is the official classification of a race. Order[i] is the driver
// that finished at position i+1, zero where no driver was classified.
type Outcome struct {
	Order              []int
	FastestLapDriverID int
	FastestLapTeamID   int
}

// OutcomeFrom builds an Outcome from stored results. teamOf maps driver id to
// team id for the race's season and may be nil.
func OutcomeFrom(results []models.RaceResult, teamOf map[int]int) Outcome {
	var o Outcome
	maxPos := 0
	for _, r := range results {
		maxPos = max(maxPos, r.Position)
	}
	o.Order = make([]int, maxPos)
	for _, r := range results {
		if r.Position > 0 {
			o.Order[r.Position-1] = r.DriverID
		}
		if r.FastestLap {
			o.FastestLapDriverID = r.DriverID
			o.FastestLapTeamID = teamOf[r.DriverID]
		}
	}
	return o
}

// Result is the computed score of one prediction.
type Result struct {
	Points         int `json:"points"`
	ExactHits      int `json:"exactHits"`
	CorrectDrivers int `json:"correctDrivers"`
}

// Compute scores a pick against an outcome.
//
// Each exact slot earns the table value for that position. With dual scoring
// a predicted driver that finished elsewhere inside the top N earns
// CorrectDriverPoints, and an exact slot earns ExactPositionBonus on top of
// the table value. Fastest-lap guesses add FastestLapBonus each when enabled.
func Compute(p Pick, o Outcome, r Rules) Result {
	n := r.Positions
	if n <= 0 {
		n = len(p.Positions)
	}

	top := o.Order[:min(n, len(o.Order))]
	seen := make(map[int]bool, n)

	var res Result
	for i := 0; i < n && i < len(p.Positions); i++ {
		d := p.Positions[i]
		if d == 0 || seen[d] {
			continue
		}
		seen[d] = true

		if i < len(top) && top[i] == d {
			res.ExactHits++
			res.CorrectDrivers++
			res.Points += r.pointsFor(i + 1)
			if r.DualScoring {
				res.Points += r.ExactPositionBonus
			}
			continue
		}
		if slices.Contains(top, d) {
			res.CorrectDrivers++
			if r.DualScoring {
				res.Points += r.CorrectDriverPoints
			}
		}
	}

	if r.FastestLapDriverBonus && matches(p.FastestLapDriverID, o.FastestLapDriverID) {
		res.Points += FastestLapBonus
	}
	if r.FastestLapTeamBonus && matches(p.FastestLapTeamID, o.FastestLapTeamID) {
		res.Points += FastestLapBonus
	}
	return res
}

func matches(guess *int, actual int) bool {
	return guess != nil && actual != 0 && *guess == actual
}
