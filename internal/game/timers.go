package game

import "time"

type timerKind int

const (
	choosingTimer timerKind = iota
	judgingTimer
	resultsTimer
	timerCount
)

var timerNames = [...]string{"choosing", "judging", "results"}

// arm schedules onExpire for the current phase. The callback re-checks the
// phase on entry because Stop can lose the race with a firing timer.
func (s *Session) arm(kind timerKind, d time.Duration, onExpire func()) {
	s.cancelTimer(kind)
	epoch := s.epoch
	s.timers[kind] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.killed || s.epoch != epoch {
			s.logger.Debug().Str("timer", timerNames[kind]).Msg("stale timer ignored")
			s.mu.Unlock()
			return
		}
		s.timers[kind] = nil
		onExpire()
		s.unlockAndFlush()
	})
}

func (s *Session) cancelTimer(kind timerKind) {
	if t := s.timers[kind]; t != nil {
		t.Stop()
		s.timers[kind] = nil
	}
}

func (s *Session) cancelAllTimers() {
	for kind := range s.timers {
		s.cancelTimer(timerKind(kind))
	}
}
