package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	l, err := New(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))

	l, err = New(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNewConsole(t *testing.T) {
	l, err := NewConsole(false)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
}
