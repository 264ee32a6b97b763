package telemetry

import (
	"expvar"
	"strconv"
	"strings"
	"time"
)

// Wire frame: {<timestamp>;<intensity>;<voltage>}
// Example: {2024-01-01 12:30:45;35;220.0}
const (
	frameOpen    = '{'
	frameClose   = '}'
	frameSep     = ";"
	frameFields  = 3
	FrameTimeFmt = "2006-01-02 15:04:05"
)

// DecodeStat counts decoder outcomes. Malformed frames are dropped without
// any event or log line; the counter is the only trace they leave.
type DecodeStat struct {
	Frames  expvar.Int // well-formed frames decoded into a Reading
	Dropped expvar.Int // wrong wrapper or wrong field count
}

// DecodeFrame parses one raw payload into a Reading.
// Returns (nil, false) for a malformed frame: missing braces or a field
// count other than 3. Unparsable intensity/voltage leave the field nil,
// unparsable timestamp falls back to now; neither fails the frame.
func DecodeFrame(payload []byte, now time.Time, stat *DecodeStat) (*Reading, bool) {
	s := string(payload)
	if len(s) < 2 || s[0] != frameOpen || s[len(s)-1] != frameClose {
		if stat != nil {
			stat.Dropped.Add(1)
		}
		return nil, false
	}
	parts := strings.Split(s[1:len(s)-1], frameSep)
	if len(parts) != frameFields {
		if stat != nil {
			stat.Dropped.Add(1)
		}
		return nil, false
	}

	r := &Reading{Source: SourceLive}
	r.Intensity = parseFloatField(parts[1])
	r.Voltage = parseFloatField(parts[2])
	r.Relay, r.Lamp = DeriveStates(r.Voltage)

	ts := strings.TrimSpace(parts[0])
	if t, err := time.Parse(FrameTimeFmt, ts); err == nil {
		r.Time = t
	} else {
		r.Time = now
	}

	if stat != nil {
		stat.Frames.Add(1)
	}
	return r, true
}

func parseFloatField(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
