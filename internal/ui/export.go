package ui

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alfathangn/streetlight-dashboard3/telemetry"
)

const csvAbsent = "N/A"

// handleExportCSV streams the most recent readings, newest last, as the
// operators' spreadsheet expects them: wall clock time, percent and volt
// suffixes, N/A for fields the frame did not carry.
func (s *Server) handleExportCSV(c *gin.Context) {
	readings := s.g.Snapshot(s.g.Config.History.Tail)

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="streetlight.csv"`)
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Time", "Intensity", "Voltage", "Relay", "Lamp"})
	for i := range readings {
		_ = w.Write(csvRow(&readings[i]))
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.g.Log.Errorf("ui export.csv err=%v", err)
	}
}

func csvRow(r *telemetry.Reading) []string {
	intensity := csvAbsent
	if r.Intensity != nil {
		intensity = fmt.Sprintf("%.1f%%", *r.Intensity)
	}
	voltage := csvAbsent
	if r.Voltage != nil {
		voltage = fmt.Sprintf("%.1fV", *r.Voltage)
	}
	return []string{
		r.Time.Format("15:04:05"),
		intensity,
		voltage,
		string(r.Relay),
		string(r.Lamp),
	}
}
