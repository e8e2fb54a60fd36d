package game

import (
	"time"

	"card-czar/internal/cards"
	"card-czar/internal/config"
)

type State int

const (
	StateAwaitingPlayers State = iota
	StateGameInProgress
	StateChoosing
	StateJudging
	StateResults
	StateEndGame
	StateDissolved
)

var stateNames = [...]string{
	StateAwaitingPlayers: "awaiting players",
	StateGameInProgress:  "game in progress",
	StateChoosing:        "waiting for players to pick",
	StateJudging:         "waiting for czar to decide",
	StateResults:         "winner has been chosen",
	StateEndGame:         "game ended",
	StateDissolved:       "game dissolved",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s State) Terminal() bool {
	return s == StateEndGame || s == StateDissolved
}

// InProgress reports whether the game has started and not finished.
func (s State) InProgress() bool {
	return s >= StateGameInProgress && s <= StateResults
}

// transitions lists every legal edge of the round state machine.
var transitions = map[State][]State{
	StateAwaitingPlayers: {StateGameInProgress, StateDissolved},
	StateGameInProgress:  {StateChoosing, StateDissolved},
	StateChoosing:        {StateChoosing, StateJudging, StateDissolved},
	StateJudging:         {StateResults, StateDissolved},
	StateResults:         {StateChoosing, StateEndGame, StateDissolved},
	StateEndGame:         {StateDissolved},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Settings struct {
	PlayerMinLimit   int
	PlayerMaxLimit   int
	PointLimit       int
	HandSize         int
	ChoosingDuration time.Duration
	JudgingDuration  time.Duration
	ResultsDuration  time.Duration
	QuestionBatch    int
	AnswerBatch      int
	QuestionLowWater int
	AnswerLowWater   int
}

func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default())
}

// withDefaults fills every unset field from DefaultSettings and reports
// which fields it filled. A zero low-water mark is valid and means refill on
// empty, so only negative marks are replaced. The zero Settings is all defaults.
func (s Settings) withDefaults() (Settings, []string) {
	def := DefaultSettings()
	if s == (Settings{}) {
		return def, nil
	}
	var filled []string
	fillInt := func(name string, v *int, d int) {
		if *v <= 0 {
			*v = d
			filled = append(filled, name)
		}
	}
	fillDuration := func(name string, v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
			filled = append(filled, name)
		}
	}
	fillInt("player_min_limit", &s.PlayerMinLimit, def.PlayerMinLimit)
	fillInt("player_max_limit", &s.PlayerMaxLimit, def.PlayerMaxLimit)
	fillInt("point_limit", &s.PointLimit, def.PointLimit)
	fillInt("hand_size", &s.HandSize, def.HandSize)
	fillDuration("choosing_duration", &s.ChoosingDuration, def.ChoosingDuration)
	fillDuration("judging_duration", &s.JudgingDuration, def.JudgingDuration)
	fillDuration("results_duration", &s.ResultsDuration, def.ResultsDuration)
	fillInt("question_batch", &s.QuestionBatch, def.QuestionBatch)
	fillInt("answer_batch", &s.AnswerBatch, def.AnswerBatch)
	if s.QuestionLowWater < 0 {
		s.QuestionLowWater = def.QuestionLowWater
		filled = append(filled, "question_low_water")
	}
	if s.AnswerLowWater < 0 {
		s.AnswerLowWater = def.AnswerLowWater
		filled = append(filled, "answer_low_water")
	}
	if s.PlayerMaxLimit < s.PlayerMinLimit {
		s.PlayerMaxLimit = s.PlayerMinLimit
	}
	return s, filled
}

func SettingsFromConfig(cfg config.Config) Settings {
	return Settings{
		PlayerMinLimit:   cfg.PlayerMinLimit,
		PlayerMaxLimit:   cfg.PlayerMaxLimit,
		PointLimit:       cfg.PointLimit,
		HandSize:         cfg.HandSize,
		ChoosingDuration: cfg.ChoosingDuration(),
		JudgingDuration:  cfg.JudgingDuration(),
		ResultsDuration:  cfg.ResultsDuration(),
		QuestionBatch:    cfg.QuestionBatch,
		AnswerBatch:      cfg.AnswerBatch,
		QuestionLowWater: cfg.QuestionLowWater,
		AnswerLowWater:   cfg.AnswerLowWater,
	}
}

// PlayerInfo is what a connection supplies when joining a room.
type PlayerInfo struct {
	ID      string
	Name    string
	Avatar  string
	Premium bool
}

type Player struct {
	ID      string
	Name    string
	Avatar  string
	Premium bool
	Color   int
	Points  int
	Hand    []cards.Card
}

type TableEntry struct {
	Cards    []cards.Card
	PlayerID string
}
