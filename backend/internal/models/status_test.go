package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnlineStatusPopulatesOnlineBranch(t *testing.T) {
	s := OnlineStatus("mc.example.org:25565", "Welcome", 3, 20, 42.5)

	require.NoError(t, s.Validate())
	assert.True(t, s.Online)
	assert.Equal(t, "Welcome", *s.MOTD)
	assert.Equal(t, 3, *s.PlayersOnline)
	assert.Equal(t, 20, *s.PlayersMax)
	assert.Equal(t, 42.5, *s.LatencyMs)
	assert.Empty(t, s.Error)
	assert.False(t, s.CheckedAt.IsZero())
}

func TestOnlineStatusClampsNegatives(t *testing.T) {
	s := OnlineStatus("h:1", "", -1, -5, -0.1)

	assert.Equal(t, 0, *s.PlayersOnline)
	assert.Equal(t, 0, *s.PlayersMax)
	assert.Equal(t, 0.0, *s.LatencyMs)
}

func TestOfflineStatusPopulatesErrorOnly(t *testing.T) {
	s := OfflineStatus("h:1", "dial tcp: connection refused")

	require.NoError(t, s.Validate())
	assert.False(t, s.Online)
	assert.Equal(t, "dial tcp: connection refused", s.Error)
	assert.Nil(t, s.MOTD)
	assert.Nil(t, s.PlayersOnline)
	assert.Nil(t, s.PlayersMax)
	assert.Nil(t, s.LatencyMs)
}

func TestOfflineStatusNeverBlank(t *testing.T) {
	s := OfflineStatus("h:1", "")
	assert.NotEmpty(t, s.Error)
	assert.NoError(t, s.Validate())
}

func TestValidateRejectsMixedBranches(t *testing.T) {
	s := OnlineStatus("h:1", "x", 1, 2, 3)
	s.Error = "boom"
	assert.Error(t, s.Validate())

	off := OfflineStatus("h:1", "boom")
	n := 4
	off.PlayersOnline = &n
	assert.Error(t, off.Validate())

	partial := OnlineStatus("h:1", "x", 1, 2, 3)
	partial.LatencyMs = nil
	assert.Error(t, partial.Validate())
}

func TestSameStateIgnoresLatency(t *testing.T) {
	a := OnlineStatus("h:1", "Welcome", 3, 20, 10)
	b := OnlineStatus("h:1", "Welcome", 3, 20, 55.2)
	assert.True(t, a.SameState(b))

	c := OnlineStatus("h:1", "Welcome", 4, 20, 10)
	assert.False(t, a.SameState(c))

	assert.False(t, a.SameState(OfflineStatus("h:1", "down")))
}
