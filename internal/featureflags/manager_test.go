package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_Enabled(t *testing.T) {
	m := NewManager(" Activity_Broadcast = ON ,open_signup=off,half=50%,all=100%,none=0%,bad,junk=maybe")

	assert.True(t, m.EnabledGlobally(ActivityBroadcast))
	assert.False(t, m.Enabled(OpenSignup, 1))
	assert.True(t, m.Enabled("all", 0))
	assert.False(t, m.Enabled("none", 42))
	assert.False(t, m.Enabled("half", 0), "anonymous users are outside percentage rollouts")
	assert.False(t, m.Enabled("junk", 1))
	assert.False(t, m.Enabled("missing", 1))

	_, hasBad := m.Raw()["bad"]
	assert.False(t, hasBad)
}

func TestManager_RolloutIsDeterministic(t *testing.T) {
	m := NewManager("half=50%")

	enabled := 0
	for id := uint(1); id <= 1000; id++ {
		first := m.Enabled("half", id)
		assert.Equal(t, first, m.Enabled("half", id))
		if first {
			enabled++
		}
	}
	assert.InDelta(t, 500, enabled, 100)
}

func TestManager_Nil(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(ActivityBroadcast, 1))
	assert.Empty(t, m.Snapshot(1))
	assert.Empty(t, m.Raw())
}

func TestManager_Snapshot(t *testing.T) {
	m := NewManager("activity_broadcast=on,open_signup=off")
	assert.Equal(t, map[string]bool{ActivityBroadcast: true, OpenSignup: false}, m.Snapshot(3))
}
