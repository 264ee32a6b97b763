package telemetry

import (
	"math"
	"time"
)

// Summary is the aggregate view over a history snapshot. Zero value is the
// correct answer for an empty snapshot; Latest stays the zero time then.
type Summary struct {
	AvgIntensity  float64   `json:"avg_intensity"`
	AvgVoltage    float64   `json:"avg_voltage"`
	LampOnPercent float64   `json:"lamp_on_percent"`
	Total         int       `json:"total"`
	Latest        time.Time `json:"latest"`
}

// Summarize computes aggregates over readings in one pass. Pure: no side
// effects, input not retained. Absent intensity/voltage values are excluded
// from both numerator and denominator of their mean.
func Summarize(readings []Reading) Summary {
	var s Summary
	s.Total = len(readings)
	if s.Total == 0 {
		return s
	}

	var intensitySum, voltageSum float64
	var intensityN, voltageN, lampOn int
	for i := range readings {
		r := &readings[i]
		if r.Intensity != nil {
			intensitySum += *r.Intensity
			intensityN++
		}
		if r.Voltage != nil {
			voltageSum += *r.Voltage
			voltageN++
		}
		if r.Lamp == LampOn {
			lampOn++
		}
	}

	if intensityN > 0 {
		s.AvgIntensity = round1(intensitySum / float64(intensityN))
	}
	if voltageN > 0 {
		s.AvgVoltage = round1(voltageSum / float64(voltageN))
	}
	s.LampOnPercent = round1(float64(lampOn) / float64(s.Total) * 100)
	s.Latest = readings[len(readings)-1].Time
	return s
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
