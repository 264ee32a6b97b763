package state

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfathangn/streetlight-dashboard3/log2"
	"github.com/alfathangn/streetlight-dashboard3/telemetry"
)

func testGlobal(t testing.TB, configInput string) *Global {
	cfg, err := ReadConfigBytes([]byte(configInput))
	require.NoError(t, err)
	return NewGlobal(log2.NewTest(t, log2.LDebug), cfg)
}

func reading(intensity float64) *telemetry.Reading {
	v := 220.0
	r := &telemetry.Reading{
		Time:      time.Now(),
		Intensity: &intensity,
		Voltage:   &v,
		Source:    telemetry.SourceLive,
	}
	r.Relay, r.Lamp = telemetry.DeriveStates(r.Voltage)
	return r
}

func TestTickEmpty(t *testing.T) {
	t.Parallel()
	g := testGlobal(t, "")
	assert.False(t, g.Tick())
	assert.False(t, g.Tick())
	assert.Zero(t, g.LogLen())
	assert.Nil(t, g.LastReading())
}

func TestTickApplyOrder(t *testing.T) {
	t.Parallel()
	g := testGlobal(t, "")

	g.Queue.Push(telemetry.NewStatusEvent(true, "connected"))
	g.Queue.Push(telemetry.NewSensorEvent(reading(35)))
	g.Queue.Push(telemetry.NewErrorEvent("socket reset"))
	g.Queue.Push(telemetry.NewStatusEvent(false, "connection lost"))
	assert.True(t, g.Tick())

	st := g.Status()
	assert.False(t, st.Connected)
	assert.Equal(t, "connection lost", st.Message)
	assert.Equal(t, "socket reset", st.LastError)
	require.NotNil(t, g.LastReading())
	assert.Equal(t, 35.0, *g.LastReading().Intensity)
	assert.Equal(t, 1, g.LogLen())

	// drained: second tick is a no-op
	assert.False(t, g.Tick())
}

func TestCapacityEviction(t *testing.T) {
	t.Parallel()
	const c = 10
	const k = 7
	g := testGlobal(t, fmt.Sprintf("history { capacity = %d }", c))

	for i := 0; i < c+k; i++ {
		g.Queue.Push(telemetry.NewSensorEvent(reading(float64(i))))
	}
	assert.True(t, g.Tick())
	require.Equal(t, c, g.LogLen())

	// survivors are exactly the last c, original order
	snap := g.Snapshot(0)
	require.Len(t, snap, c)
	for i, r := range snap {
		assert.Equal(t, float64(k+i), *r.Intensity)
	}
	assert.Equal(t, float64(c+k-1), *g.LastReading().Intensity)
}

func TestSnapshotLimitAndReset(t *testing.T) {
	t.Parallel()
	g := testGlobal(t, "")
	for i := 0; i < 5; i++ {
		g.Queue.Push(telemetry.NewSensorEvent(reading(float64(i))))
	}
	g.Tick()

	tail := g.Snapshot(2)
	require.Len(t, tail, 2)
	assert.Equal(t, 3.0, *tail[0].Intensity)
	assert.Equal(t, 4.0, *tail[1].Intensity)

	g.ResetLog()
	assert.Zero(t, g.LogLen())
	assert.Nil(t, g.LastReading())
	assert.Empty(t, g.Snapshot(0))
}

func TestSummaryReadsCurrentLog(t *testing.T) {
	t.Parallel()
	g := testGlobal(t, "")
	g.Queue.Push(telemetry.NewSensorEvent(reading(10)))
	g.Queue.Push(telemetry.NewSensorEvent(reading(30)))
	g.Tick()
	s := g.Summary()
	assert.Equal(t, 20.0, s.AvgIntensity)
	assert.Equal(t, 2, s.Total)
}
