package telemetry

import "time"

// Event is what the network context hands to the consumer. Three kinds:
// connection status flips, session errors, decoded readings. Each is
// stamped with production time at the push site.
type Event interface {
	When() time.Time
}

type StatusEvent struct {
	At        time.Time
	Connected bool
	Message   string
}

type ErrorEvent struct {
	At      time.Time
	Message string
}

type SensorEvent struct {
	At      time.Time
	Reading *Reading
}

func (e StatusEvent) When() time.Time { return e.At }
func (e ErrorEvent) When() time.Time  { return e.At }
func (e SensorEvent) When() time.Time { return e.At }

func NewStatusEvent(connected bool, message string) StatusEvent {
	return StatusEvent{At: time.Now(), Connected: connected, Message: message}
}

func NewErrorEvent(message string) ErrorEvent {
	return ErrorEvent{At: time.Now(), Message: message}
}

func NewSensorEvent(r *Reading) SensorEvent {
	return SensorEvent{At: time.Now(), Reading: r}
}
