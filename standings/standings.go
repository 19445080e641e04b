// Package standings aggregates stored scores and results into tables.
package standings

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/padraicbc/f1picks/models"
)

// Entry is one row of a group leaderboard.
type Entry struct {
	Rank           int    `json:"rank"`
	UserID         int    `json:"userID"`
	Username       string `json:"username"`
	Points         int    `json:"points"`
	ExactHits      int    `json:"exactHits"`
	CorrectDrivers int    `json:"correctDrivers"`
	Races          int    `json:"races"`
}

// Leaderboard sums scores per user. Ties on points go to more exact hits,
// then more correct drivers. Members without scores are listed with zero.
func Leaderboard(scores []models.Score, members []models.User) []Entry {
	byUser := make(map[int]*Entry, len(members))
	for _, u := range members {
		byUser[u.ID] = &Entry{UserID: u.ID, Username: u.Username}
	}
	for _, s := range scores {
		e, ok := byUser[s.UserID]
		if !ok {
			e = &Entry{UserID: s.UserID}
			byUser[s.UserID] = e
		}
		e.Points += s.Points
		e.ExactHits += s.ExactHits
		e.CorrectDrivers += s.CorrectDrivers
		e.Races++
	}

	out := lo.Map(lo.Values(byUser), func(e *Entry, _ int) Entry { return *e })
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(b.Points, a.Points),
			cmp.Compare(b.ExactHits, a.ExactHits),
			cmp.Compare(b.CorrectDrivers, a.CorrectDrivers),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
	for i := range out {
		if i > 0 && sameRank(out[i-1], out[i]) {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

func sameRank(a, b Entry) bool {
	return a.Points == b.Points && a.ExactHits == b.ExactHits && a.CorrectDrivers == b.CorrectDrivers
}

// Row is one line of a championship table.
type Row struct {
	Rank   int    `json:"rank"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Wins   int    `json:"wins"`
}

// Drivers builds the drivers' championship from finalized results.
func Drivers(results []models.RaceResult, drivers []models.Driver) []Row {
	names := lo.SliceToMap(drivers, func(d models.Driver) (int, string) { return d.ID, d.FullName })
	return table(results, func(r models.RaceResult) (int, bool) { return r.DriverID, true }, names)
}

// Teams builds the constructors' championship. teamOf maps driver id to
// team id for the season.
func Teams(results []models.RaceResult, teamOf map[int]int, teams []models.Team) []Row {
	names := lo.SliceToMap(teams, func(t models.Team) (int, string) { return t.ID, t.Name })
	return table(results, func(r models.RaceResult) (int, bool) {
		id, ok := teamOf[r.DriverID]
		return id, ok
	}, names)
}

func table(results []models.RaceResult, key func(models.RaceResult) (int, bool), names map[int]string) []Row {
	rows := map[int]*Row{}
	for _, r := range results {
		id, ok := key(r)
		if !ok {
			continue
		}
		row, ok := rows[id]
		if !ok {
			row = &Row{ID: id, Name: names[id]}
			rows[id] = row
		}
		row.Points += r.F1Points
		if r.Position == 1 {
			row.Wins++
		}
	}

	out := lo.Map(lo.Values(rows), func(r *Row, _ int) Row { return *r })
	slices.SortFunc(out, func(a, b Row) int {
		return cmp.Or(
			cmp.Compare(b.Points, a.Points),
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(a.ID, b.ID),
		)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
