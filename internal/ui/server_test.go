package ui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfathangn/streetlight-dashboard3/internal/state"
	"github.com/alfathangn/streetlight-dashboard3/internal/tele"
	"github.com/alfathangn/streetlight-dashboard3/log2"
	"github.com/alfathangn/streetlight-dashboard3/telemetry"
)

type fakeConn struct {
	started      int
	disconnected int
	lastAttempt  time.Time
}

func (f *fakeConn) Start()                 { f.started++ }
func (f *fakeConn) Disconnect()            { f.disconnected++ }
func (f *fakeConn) LastAttempt() time.Time { return f.lastAttempt }

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Publish(command string) error {
	f.sent = append(f.sent, command)
	return f.err
}

func testServer(t testing.TB) (*Server, *state.Global, *fakeConn, *fakeSender) {
	t.Helper()
	cfg, err := state.ReadConfigBytes([]byte(`history { capacity = 100 tail = 3 }`))
	require.NoError(t, err)
	g := state.NewGlobal(log2.NewTest(t, log2.LDebug), cfg)
	t.Cleanup(g.Stop)
	conn := &fakeConn{}
	sender := &fakeSender{}
	return NewServer(g, conn, sender), g, conn, sender
}

func do(t testing.TB, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func pushReading(g *state.Global, intensity, voltage float64, at time.Time) {
	relay, lamp := telemetry.DeriveStates(&voltage)
	g.Queue.Push(telemetry.NewSensorEvent(&telemetry.Reading{
		Time:      at,
		Intensity: &intensity,
		Voltage:   &voltage,
		Relay:     relay,
		Lamp:      lamp,
		Source:    telemetry.SourceLive,
	}))
	g.Tick()
}

func TestStatusRoute(t *testing.T) {
	t.Parallel()
	s, g, conn, _ := testServer(t)
	conn.lastAttempt = time.Date(2023, 4, 1, 21, 30, 0, 0, time.UTC)

	rec := do(t, s, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["connected"])
	assert.Equal(t, "not connected", body["message"])
	// attempt timestamp comes from the supervisor, not shared state
	assert.Equal(t, "2023-04-01T21:30:00Z", body["last_attempt"])

	g.Queue.Push(telemetry.NewStatusEvent(true, "connected"))
	g.Tick()
	rec = do(t, s, http.MethodGet, "/api/status", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, "connected", body["message"])
}

func TestLatestAndReadings(t *testing.T) {
	t.Parallel()
	s, g, _, _ := testServer(t)

	rec := do(t, s, http.MethodGet, "/api/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reading":null}`, rec.Body.String())

	base := time.Date(2023, 4, 1, 21, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		pushReading(g, float64(10*i), 220.0, base.Add(time.Duration(i)*time.Second))
	}

	rec = do(t, s, http.MethodGet, "/api/readings?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count    int                 `json:"count"`
		Readings []telemetry.Reading `json:"readings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	assert.Equal(t, 30.0, *body.Readings[0].Intensity)
	assert.Equal(t, 40.0, *body.Readings[1].Intensity)

	rec = do(t, s, http.MethodGet, "/api/readings?limit=oops", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsRoute(t *testing.T) {
	t.Parallel()
	s, g, _, _ := testServer(t)
	base := time.Date(2023, 4, 1, 21, 30, 0, 0, time.UTC)
	pushReading(g, 40, 0.0, base)
	pushReading(g, 60, 220.0, base.Add(time.Second))

	rec := do(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum telemetry.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, 50.0, sum.AvgIntensity)
	assert.Equal(t, 110.0, sum.AvgVoltage)
	assert.Equal(t, 50.0, sum.LampOnPercent)
	assert.Equal(t, 2, sum.Total)
}

func TestConnectDisconnectReset(t *testing.T) {
	t.Parallel()
	s, g, conn, _ := testServer(t)
	pushReading(g, 40, 220.0, time.Now())

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/connect", "").Code)
	assert.Equal(t, 1, conn.started)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/disconnect", "").Code)
	assert.Equal(t, 1, conn.disconnected)

	require.Equal(t, 1, g.LogLen())
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodPost, "/api/reset", "").Code)
	assert.Equal(t, 0, g.LogLen())
	assert.Nil(t, g.LastReading())
}

func TestCommandRoute(t *testing.T) {
	t.Parallel()
	s, _, _, sender := testServer(t)

	rec := do(t, s, http.MethodPost, "/api/command", `{"command":"LAMP_ON"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{tele.CmdLampOn}, sender.sent)

	// free-form passes through untouched, same as the control topic contract
	rec = do(t, s, http.MethodPost, "/api/command", `{"command":"SET_LEVEL 50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{tele.CmdLampOn, "SET_LEVEL 50"}, sender.sent)

	rec = do(t, s, http.MethodPost, "/api/command", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, sender.sent, 2)
}

func TestCommandRouteSendError(t *testing.T) {
	t.Parallel()
	s, _, _, sender := testServer(t)
	sender.err = assert.AnError

	rec := do(t, s, http.MethodPost, "/api/command", `{"command":"GET_STATUS"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()
	s, g, _, _ := testServer(t)
	base := time.Date(2023, 4, 1, 21, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		pushReading(g, float64(10*i), 220.0, base.Add(time.Duration(i)*time.Second))
	}
	g.Queue.Push(telemetry.NewSensorEvent(&telemetry.Reading{
		Time:   base.Add(5 * time.Second),
		Relay:  telemetry.RelayUnknown,
		Lamp:   telemetry.LampUnknown,
		Source: telemetry.SourceLive,
	}))
	g.Tick()

	rec := do(t, s, http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	// header plus configured tail of 3
	require.Len(t, lines, 4)
	assert.Equal(t, "Time,Intensity,Voltage,Relay,Lamp", lines[0])
	assert.Equal(t, "21:30:04,40.0%,220.0V,ACTIVE,OFF", lines[2])
	assert.Equal(t, "21:30:05,N/A,N/A,UNKNOWN,UNKNOWN", lines[3])
}
