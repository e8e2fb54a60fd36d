package game

import "time"

const (
	EventGameUpdate   = "gameUpdate"
	EventNotification = "notification"
	EventPrepareGame  = "prepareGame"
	EventPlayerID     = "id"
)

// Broadcaster delivers session output to a room or to one member.
type Broadcaster interface {
	SendToRoom(roomID, event string, payload any) error
	SendToPlayer(playerID, event string, payload any) error
}

type Notification struct {
	Notification string `json:"notification"`
}

type PrepareGame struct {
	PlayerMinLimit int        `json:"playerMinLimit"`
	PlayerMaxLimit int        `json:"playerMaxLimit"`
	PointLimit     int        `json:"pointLimit"`
	TimeLimits     TimeLimits `json:"timeLimits"`
}

type TimeLimits struct {
	StateChoosing int `json:"stateChoosing"`
	StateJudging  int `json:"stateJudging"`
	StateResults  int `json:"stateResults"`
}

type Joined struct {
	ID          string `json:"id"`
	RoomID      string `json:"gameID"`
	PlayerIndex int    `json:"playerIndex"`
}

func timeLimits(s Settings) TimeLimits {
	seconds := func(d time.Duration) int { return int(d / time.Second) }
	return TimeLimits{
		StateChoosing: seconds(s.ChoosingDuration),
		StateJudging:  seconds(s.JudgingDuration),
		StateResults:  seconds(s.ResultsDuration),
	}
}

// outbound is a message queued inside the critical section and delivered
// after it is released.
type outbound struct {
	playerID string
	event    string
	payload  any
}

func (s *Session) emitRoom(event string, payload any) {
	s.outbox = append(s.outbox, outbound{event: event, payload: payload})
}

func (s *Session) emitPlayer(playerID, event string, payload any) {
	s.outbox = append(s.outbox, outbound{playerID: playerID, event: event, payload: payload})
}

func (s *Session) emitSnapshot() {
	s.emitRoom(EventGameUpdate, s.snapshot())
}

func (s *Session) notify(message string) {
	s.emitRoom(EventNotification, Notification{Notification: message})
}

// unlockAndFlush releases the session lock and delivers queued output.
// sendMu is taken before mu is released so deliveries keep their order.
func (s *Session) unlockAndFlush() {
	pending := s.outbox
	s.outbox = nil
	s.sendMu.Lock()
	s.mu.Unlock()
	defer s.sendMu.Unlock()
	if s.out == nil {
		return
	}
	for _, msg := range pending {
		var err error
		if msg.playerID != "" {
			err = s.out.SendToPlayer(msg.playerID, msg.event, msg.payload)
		} else {
			err = s.out.SendToRoom(s.id, msg.event, msg.payload)
		}
		if err != nil {
			s.logger.Error().Err(err).
				Str("event", msg.event).
				Str("player_id", msg.playerID).
				Msg("broadcast failed")
		}
	}
}
