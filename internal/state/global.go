package state

import (
	"sync"

	"github.com/temoto/alive/v2"

	"github.com/alfathangn/streetlight-dashboard3/log2"
	"github.com/alfathangn/streetlight-dashboard3/telemetry"
)

// ConnectionStatus is the broker session view the dashboard shows.
// Created once at start, mutated only by the reducer.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
	LastError string `json:"last_error"`
}

// Global bundles everything with process lifetime: config, logger, the
// event queue, and the shared presentation state behind it.
//
// Writer discipline: the network context only ever calls Queue.Push; the
// presentation tick loop is the sole writer of status/log/last via Tick().
// The RWMutex exists for concurrent HTTP readers, not for writer races.
type Global struct {
	Alive        *alive.Alive
	BuildVersion string
	Config       *Config
	Log          *log2.Log
	Queue        *telemetry.EventQueue
	DecodeStat   telemetry.DecodeStat

	mu       sync.RWMutex
	status   ConnectionStatus
	readings []telemetry.Reading // bounded FIFO, len <= Config.History.Capacity
	last     *telemetry.Reading

	_copy_guard sync.Mutex //nolint:unused
}

func NewGlobal(log *log2.Log, config *Config) *Global {
	g := &Global{
		Alive:  alive.NewAlive(),
		Config: config,
		Log:    log,
		Queue:  telemetry.NewEventQueue(),
	}
	g.status.Message = "not connected"
	return g
}

func (g *Global) Status() ConnectionStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

func (g *Global) LastReading() *telemetry.Reading {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.last
}

// Snapshot copies up to limit most recent readings in arrival order.
// limit<=0 means everything currently held.
func (g *Global) Snapshot(limit int) []telemetry.Reading {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := len(g.readings)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]telemetry.Reading, n)
	copy(out, g.readings[len(g.readings)-n:])
	return out
}

func (g *Global) LogLen() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.readings)
}

// ResetLog clears history and the latest reading. Connection status stays.
func (g *Global) ResetLog() {
	g.mu.Lock()
	g.readings = nil
	g.last = nil
	g.mu.Unlock()
}

func (g *Global) Summary() telemetry.Summary {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return telemetry.Summarize(g.readings)
}

func (g *Global) Stop() { g.Alive.Stop() }
