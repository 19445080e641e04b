package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/padraicbc/f1picks/models"
)

func TestLeaderboard(t *testing.T) {
	members := []models.User{{ID: 1, Username: "lando"}, {ID: 2, Username: "oscar"}, {ID: 3, Username: "george"}, {ID: 4, Username: "alex"}}
	scores := []models.Score{
		{UserID: 1, RaceID: 1, Points: 30, ExactHits: 1, CorrectDrivers: 4},
		{UserID: 1, RaceID: 2, Points: 10, ExactHits: 1, CorrectDrivers: 2},
		{UserID: 2, RaceID: 1, Points: 40, ExactHits: 3, CorrectDrivers: 5},
		{UserID: 3, RaceID: 1, Points: 40, ExactHits: 2, CorrectDrivers: 6},
	}

	got := Leaderboard(scores, members)
	assert.Equal(t, []Entry{
		{Rank: 1, UserID: 2, Username: "oscar", Points: 40, ExactHits: 3, CorrectDrivers: 5, Races: 1},
		{Rank: 2, UserID: 1, Username: "lando", Points: 40, ExactHits: 2, CorrectDrivers: 6, Races: 2},
		{Rank: 2, UserID: 3, Username: "george", Points: 40, ExactHits: 2, CorrectDrivers: 6, Races: 1},
		{Rank: 4, UserID: 4, Username: "alex"},
	}, got)
}

func TestLeaderboard_SharedRank(t *testing.T) {
	got := Leaderboard([]models.Score{
		{UserID: 5, Points: 12, ExactHits: 1},
		{UserID: 3, Points: 12, ExactHits: 1},
	}, nil)
	assert.Equal(t, 3, got[0].UserID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 1, got[1].Rank)
}

func TestDriversAndTeams(t *testing.T) {
	results := []models.RaceResult{
		{RaceID: 1, DriverID: 1, Position: 1, F1Points: 25},
		{RaceID: 1, DriverID: 2, Position: 2, F1Points: 18},
		{RaceID: 1, DriverID: 3, Position: 3, F1Points: 15},
		{RaceID: 2, DriverID: 3, Position: 1, F1Points: 25},
		{RaceID: 2, DriverID: 1, Position: 2, F1Points: 18},
		{RaceID: 2, DriverID: 4, Position: 11},
	}
	drivers := []models.Driver{{ID: 1, FullName: "Max Verstappen"}, {ID: 2, FullName: "Sergio Perez"}, {ID: 3, FullName: "Carlos Sainz"}}

	assert.Equal(t, []Row{
		{Rank: 1, ID: 1, Name: "Max Verstappen", Points: 43, Wins: 1},
		{Rank: 2, ID: 3, Name: "Carlos Sainz", Points: 40, Wins: 1},
		{Rank: 3, ID: 2, Name: "Sergio Perez", Points: 18},
		{Rank: 4, ID: 4},
	}, Drivers(results, drivers))

	teamOf := map[int]int{1: 10, 2: 10, 3: 20}
	teams := []models.Team{{ID: 10, Name: "Red Bull Racing"}, {ID: 20, Name: "Ferrari"}}
	assert.Equal(t, []Row{
		{Rank: 1, ID: 10, Name: "Red Bull Racing", Points: 61, Wins: 1},
		{Rank: 2, ID: 20, Name: "Ferrari", Points: 40, Wins: 1},
	}, Teams(results, teamOf, teams))
}
