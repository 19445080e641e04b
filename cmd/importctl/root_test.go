package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceArg(t *testing.T) {
	id, err := raceArg([]string{"12"})
	require.NoError(t, err)
	assert.Equal(t, 12, id)

	_, err = raceArg([]string{"x"})
	assert.Error(t, err)
	_, err = raceArg([]string{"-3"})
	assert.Error(t, err)
}

func TestBindFlagsFromEnv(t *testing.T) {
	t.Setenv("SCORE_WORKERS", "9")
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	bindFlags(cmd, viper.New())

	n, err := cmd.Flags().GetInt("score-workers")
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestBindFlagsSkipsSubcommandFlags(t *testing.T) {
	t.Setenv("SESSION", "9472")
	t.Setenv("MEETING", "1229")
	t.Setenv("SCORE_WORKERS", "3")

	root := newRootCmd()
	for _, name := range []string{"race", "qualifying"} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.NoError(t, sub.ParseFlags(nil))
		bindFlags(sub, viper.New())

		n, err := sub.Flags().GetInt("score-workers")
		require.NoError(t, err)
		assert.Equal(t, 3, n, name)
	}

	race, _, err := root.Find([]string{"race"})
	require.NoError(t, err)
	session, err := race.Flags().GetInt("session")
	require.NoError(t, err)
	assert.Zero(t, session)

	quali, _, err := root.Find([]string{"qualifying"})
	require.NoError(t, err)
	meeting, err := quali.Flags().GetInt("meeting")
	require.NoError(t, err)
	assert.Zero(t, meeting)
}

func TestSubcommands(t *testing.T) {
	names := []string{}
	for _, c := range newRootCmd().Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"sessions", "race", "qualifying", "rescore"}, names)
}
