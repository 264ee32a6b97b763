package ui

import "time"

// RunTickLoop folds queued events into shared state at the refresh
// interval. It is the only writer of presentation state; HTTP handlers
// read snapshots between ticks.
func (s *Server) RunTickLoop() {
	if !s.g.Alive.Add(1) {
		return
	}
	go func() {
		defer s.g.Alive.Done()
		interval := s.g.Config.Refresh()
		tmr := time.NewTicker(interval)
		defer tmr.Stop()
		stopch := s.g.Alive.StopChan()
		for {
			select {
			case <-tmr.C:
				s.g.Tick()
			case <-stopch:
				return
			}
		}
	}()
}
