package state

import (
	"github.com/alfathangn/streetlight-dashboard3/telemetry"
)

// Tick drains the event queue once and folds every event into shared state
// in arrival order. Returns whether anything was applied, so callers can
// skip a refresh on an idle tick. Safe to call repeatedly; empty queue is
// a no-op.
//
// Tick is the single writer of status/log/last. Call it only from the
// presentation loop.
func (g *Global) Tick() bool {
	events := g.Queue.DrainAll()
	if len(events) == 0 {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ev := range events {
		switch e := ev.(type) {
		case telemetry.StatusEvent:
			g.status.Connected = e.Connected
			g.status.Message = e.Message
		case telemetry.ErrorEvent:
			g.status.LastError = e.Message
		case telemetry.SensorEvent:
			g.append(e.Reading)
		default:
			g.Log.Errorf("reduce: unknown event %#v", ev)
		}
	}
	return true
}

// append adds a reading and enforces FIFO eviction so the log never
// exceeds capacity and survivors keep relative order.
func (g *Global) append(r *telemetry.Reading) {
	if r == nil {
		return
	}
	g.readings = append(g.readings, *r)
	if c := g.Config.History.Capacity; len(g.readings) > c {
		over := len(g.readings) - c
		g.readings = append(g.readings[:0], g.readings[over:]...)
	}
	g.last = r
}
