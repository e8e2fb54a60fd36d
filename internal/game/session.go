// Package game runs one room of the card game: roster, hands, decks, the
// table and the timer-driven round state machine.
package game

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"card-czar/internal/cards"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrRoomFull         = errors.New("room is full")
	ErrGameStarted      = errors.New("game already started")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrAlreadyJoined    = errors.New("player already in room")
)

type Options struct {
	Settings    Settings
	Supplier    cards.Supplier
	Broadcaster Broadcaster
	Names       *NamePool
	Clock       clockwork.Clock
	Rand        *rand.Rand
}

// Session is one room. Every exported method runs inside the session's
// critical section; output is delivered after the lock is released.
type Session struct {
	id       string
	settings Settings
	supplier cards.Supplier
	out      Broadcaster
	names    *NamePool
	clock    clockwork.Clock
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	sendMu sync.Mutex
	outbox []outbound

	rng              *rand.Rand
	players          []*Player
	table            []TableEntry
	submitted        map[string]bool
	winningCard      int
	winningPlayer    int
	gameWinner       int
	winnerAutopicked bool
	pendingWinner    string
	czar             int
	state            State
	epoch            uint64
	round            int
	questions        []cards.Question
	answers          []cards.Card
	currentQuestion  *cards.Question
	timers           [timerCount]clockwork.Timer
	serial           uint64
	fetchingQ        bool
	fetchingA        bool
	killed           bool
}

func NewSession(id string, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	settings, filled := opts.Settings.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:            id,
		settings:      settings,
		supplier:      opts.Supplier,
		out:           opts.Broadcaster,
		names:         opts.Names,
		clock:         opts.Clock,
		logger:        log.With().Str("room_id", id).Logger(),
		ctx:           ctx,
		cancel:        cancel,
		rng:           opts.Rand,
		submitted:     make(map[string]bool),
		winningCard:   -1,
		winningPlayer: -1,
		gameWinner:    -1,
		czar:          -1,
		state:         StateAwaitingPlayers,
	}
	if len(filled) > 0 {
		s.logger.Warn().Strs("fields", filled).Msg("unset room settings replaced with defaults")
	}
	s.logger.Info().Msg("room created")
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Settings() Settings {
	return s.settings
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.players)
}

func (s *Session) HasPlayer(playerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerIndex(playerID) >= 0
}

// Snapshot returns a copy of the current room state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// AddPlayer seats a new member and returns their roster index.
func (s *Session) AddPlayer(info PlayerInfo) (int, error) {
	s.mu.Lock()
	if s.state != StateAwaitingPlayers {
		s.mu.Unlock()
		return -1, ErrGameStarted
	}
	if len(s.players) >= s.settings.PlayerMaxLimit {
		s.mu.Unlock()
		return -1, ErrRoomFull
	}
	if s.playerIndex(info.ID) >= 0 {
		s.mu.Unlock()
		return -1, ErrAlreadyJoined
	}
	name := strings.TrimSpace(info.Name)
	if name == "" || name == GuestName {
		name = s.names.Take()
	}
	s.players = append(s.players, &Player{
		ID:      info.ID,
		Name:    name,
		Avatar:  info.Avatar,
		Premium: info.Premium,
	})
	s.assignColors()
	index := len(s.players) - 1
	s.logger.Info().Str("player_id", info.ID).Str("name", name).Int("players", len(s.players)).Msg("player joined")
	s.emitPlayer(info.ID, EventPlayerID, Joined{ID: info.ID, RoomID: s.id, PlayerIndex: index})
	s.emitSnapshot()
	s.unlockAndFlush()
	return index, nil
}

// Start begins the game once the roster is within the configured limits.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateAwaitingPlayers {
		s.mu.Unlock()
		return ErrGameStarted
	}
	if n := len(s.players); n < s.settings.PlayerMinLimit || n > s.settings.PlayerMaxLimit {
		s.mu.Unlock()
		return ErrNotEnoughPlayers
	}
	s.prepareGame()
	s.unlockAndFlush()
	return nil
}

func (s *Session) PickCards(playerID string, cardIDs []string) {
	s.mu.Lock()
	s.pickCards(playerID, cardIDs)
	s.unlockAndFlush()
}

func (s *Session) PickWinning(playerID, cardID string) {
	s.mu.Lock()
	s.pickWinning(cardID, playerID, false)
	s.unlockAndFlush()
}

// RemovePlayer drops a member and reports whether they were in the room.
func (s *Session) RemovePlayer(playerID string) bool {
	s.mu.Lock()
	removed := s.removePlayer(playerID)
	s.unlockAndFlush()
	return removed
}

func (s *Session) Notify(message string) {
	s.mu.Lock()
	s.notify(message)
	s.unlockAndFlush()
}

// Dissolve ends the room from any state and stops its timers.
func (s *Session) Dissolve() {
	s.mu.Lock()
	s.dissolve()
	s.unlockAndFlush()
}

// Kill stops every timer and pending fetch. It must be called whenever a
// room is torn down.
func (s *Session) Kill() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kill()
}

func (s *Session) kill() {
	if s.killed {
		return
	}
	s.killed = true
	s.cancelAllTimers()
	s.cancel()
	s.logger.Info().Stringer("state", s.state).Msg("killing game")
}

// setState moves along a legal edge and invalidates timers armed for the
// previous phase.
func (s *Session) setState(next State) bool {
	if !canTransition(s.state, next) {
		s.logger.Warn().Stringer("from", s.state).Stringer("to", next).Msg("illegal state transition")
		return false
	}
	s.state = next
	s.epoch++
	return true
}
