package timer_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DYAI2025/stoppclock/internal/timer"
)

func TestEntityJSONFieldNames(t *testing.T) {
	e := timer.Entity{
		ID:      "rounds-1",
		Kind:    timer.KindRounds,
		Name:    "Rounds",
		Color:   "#4ade80",
		Current: 40000,
		Running: true,
		Target:  40000,
		Working: timer.Bool(true),
		Path:    "/rounds",
		Rounds: &timer.RoundsMeta{
			RoundSeconds: 40, RestSeconds: 20, TotalRounds: 10, CurrentRound: 1,
		},
	}
	data, err := json.Marshal(e)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"id", "type", "name", "color", "currentTime", "isRunning", "targetTime", "isWorking", "path", "meta"} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "rounds", raw["type"])

	var back timer.Entity
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(e, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEntityJSONOmitsAbsentMeta(t *testing.T) {
	data, err := json.Marshal(timer.Entity{ID: "countdown-1", Kind: timer.KindCountdown, Path: "/countdown"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"meta"`)
	assert.NotContains(t, string(data), `"isWorking"`)
}

func TestUnmarshalChessMeta(t *testing.T) {
	in := `{"id":"chess-1","type":"chess","name":"Chess","color":"#fff","currentTime":300000,
		"isRunning":true,"path":"/chess",
		"meta":{"activeSide":"right","leftMs":300000,"rightMs":295000,"increment":2,"baseMinutes":5}}`
	var e timer.Entity
	require.NoError(t, json.Unmarshal([]byte(in), &e))
	require.NotNil(t, e.Chess)
	assert.Equal(t, timer.SideRight, e.Chess.ActiveSide)
	assert.Equal(t, int64(295000), e.Chess.Remaining(timer.SideRight))
	assert.Equal(t, int64(2000), e.Chess.IncrementMs())
}

func TestUnmarshalMalformedMetaLeavesVariantNil(t *testing.T) {
	in := `{"id":"rounds-1","type":"rounds","currentTime":1000,"isRunning":true,"meta":"not-an-object"}`
	var e timer.Entity
	require.NoError(t, json.Unmarshal([]byte(in), &e))
	assert.Nil(t, e.Rounds)
	assert.Equal(t, int64(1000), e.Current)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		entity  timer.Entity
		wantErr string
	}{
		{"ok", timer.Entity{ID: "stopwatch-1", Kind: timer.KindStopwatch}, ""},
		{"missing id", timer.Entity{Kind: timer.KindStopwatch}, "missing id"},
		{"unknown kind", timer.Entity{ID: "x", Kind: "egg"}, "unknown kind"},
		{"negative current", timer.Entity{ID: "x", Kind: timer.KindCountdown, Current: -1}, "negative"},
		{"negative target", timer.Entity{ID: "x", Kind: timer.KindCountdown, Target: -5}, "negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entity.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := timer.Entity{
		ID:      "lap-1",
		Kind:    timer.KindLap,
		Working: timer.Bool(true),
		Laps:    &timer.LapMeta{Laps: []timer.Lap{{Time: 1000, Split: 1000}}, LastLapMs: 1000},
		Chess:   &timer.ChessMeta{LeftMs: 1},
	}
	c := orig.Clone()
	*c.Working = false
	c.Laps.Laps[0].Time = 99
	c.Chess.LeftMs = 2

	assert.True(t, *orig.Working)
	assert.Equal(t, int64(1000), orig.Laps.Laps[0].Time)
	assert.Equal(t, int64(1), orig.Chess.LeftMs)
}

func TestSideOther(t *testing.T) {
	assert.Equal(t, timer.SideRight, timer.SideLeft.Other())
	assert.Equal(t, timer.SideLeft, timer.SideRight.Other())
	assert.False(t, timer.Side("middle").Valid())
}

func TestNewInstanceID(t *testing.T) {
	a := timer.NewInstanceID("countdown")
	b := timer.NewInstanceID("countdown")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "countdown-"))
}
