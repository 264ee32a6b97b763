// Package telemetry is the public domain model of the streetlight node:
// sensor readings, the wire frame decoder, tagged pipeline events, the
// producer/consumer event queue and aggregate statistics.
package telemetry

import "time"

// SourceLive marks readings decoded from the broker feed.
const SourceLive = "live"

type RelayState string

const (
	RelayActive  RelayState = "ACTIVE"
	RelayOff     RelayState = "OFF"
	RelayUnknown RelayState = "UNKNOWN"
)

type LampState string

const (
	LampOn      LampState = "ON"
	LampOff     LampState = "OFF"
	LampUnknown LampState = "UNKNOWN"
)

// Reading is one decoded sensor frame. Intensity and Voltage are nil when
// the node sent a value that did not parse as a number. Never mutated after
// creation.
type Reading struct {
	Time      time.Time  `json:"time"`
	Intensity *float64   `json:"intensity"`
	Voltage   *float64   `json:"voltage"`
	Relay     RelayState `json:"relay"`
	Lamp      LampState  `json:"lamp"`
	Source    string     `json:"source"`
}

// DeriveStates maps supply voltage to relay/lamp state. The node reports
// exactly 0.0 with the relay open (lamp powered through the bypass) and
// exactly 220.0 with the relay closed. Any other value, including a missing
// one, means we cannot tell. Exact float comparison is the node's contract.
func DeriveStates(voltage *float64) (RelayState, LampState) {
	if voltage == nil {
		return RelayUnknown, LampUnknown
	}
	switch *voltage {
	case 0.0:
		return RelayOff, LampOn
	case 220.0:
		return RelayActive, LampOff
	}
	return RelayUnknown, LampUnknown
}
