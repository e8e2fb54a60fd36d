package game

import "card-czar/internal/cards"

// Snapshot is the room state broadcast after every observable change.
type Snapshot struct {
	RoomID            string          `json:"gameID"`
	Players           []PlayerView    `json:"players"`
	Czar              int             `json:"czar"`
	State             string          `json:"state"`
	Round             int             `json:"round"`
	GameWinner        int             `json:"gameWinner"`
	WinningCard       int             `json:"winningCard"`
	WinningCardPlayer int             `json:"winningCardPlayer"`
	WinnerAutopicked  bool            `json:"winnerAutopicked"`
	Table             []TableView     `json:"table"`
	PointLimit        int             `json:"pointLimit"`
	CurQuestion       *cards.Question `json:"curQuestion"`
}

type PlayerView struct {
	Hand     []cards.Card `json:"hand"`
	Points   int          `json:"points"`
	Username string       `json:"username"`
	Avatar   string       `json:"avatar"`
	Premium  bool         `json:"premium"`
	SocketID string       `json:"socketID"`
	Color    int          `json:"color"`
}

type TableView struct {
	Card   []cards.Card `json:"card"`
	Player string       `json:"player"`
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		RoomID:            s.id,
		Players:           make([]PlayerView, 0, len(s.players)),
		Czar:              s.czar,
		State:             s.state.String(),
		Round:             s.round,
		GameWinner:        s.gameWinner,
		WinningCard:       s.winningCard,
		WinningCardPlayer: s.winningPlayer,
		WinnerAutopicked:  s.winnerAutopicked,
		Table:             make([]TableView, 0, len(s.table)),
		PointLimit:        s.settings.PointLimit,
	}
	for _, p := range s.players {
		snap.Players = append(snap.Players, PlayerView{
			Hand:     append([]cards.Card{}, p.Hand...),
			Points:   p.Points,
			Username: p.Name,
			Avatar:   p.Avatar,
			Premium:  p.Premium,
			SocketID: p.ID,
			Color:    p.Color,
		})
	}
	for _, entry := range s.table {
		snap.Table = append(snap.Table, TableView{
			Card:   append([]cards.Card{}, entry.Cards...),
			Player: entry.PlayerID,
		})
	}
	if s.currentQuestion != nil {
		q := *s.currentQuestion
		snap.CurQuestion = &q
	}
	return snap
}

// WithoutHands strips every hand, for observers outside the room.
func (s Snapshot) WithoutHands() Snapshot {
	players := make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		p.Hand = nil
		players[i] = p
	}
	s.Players = players
	return s
}
