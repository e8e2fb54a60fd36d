package game

import (
	"fmt"

	"card-czar/internal/cards"
)

func (s *Session) stateChoosing() {
	if !s.setState(StateChoosing) {
		return
	}
	s.table = nil
	clear(s.submitted)
	s.winningCard = -1
	s.winningPlayer = -1
	s.winnerAutopicked = false
	s.pendingWinner = ""
	s.nextQuestion()
	s.round++
	s.rotateCzar()
	s.dealAnswers()
	s.logger.Debug().Int("round", s.round).Int("czar", s.czar).Msg("round started")
	s.emitSnapshot()
	s.arm(choosingTimer, s.settings.ChoosingDuration, s.stateJudging)
}

func (s *Session) rotateCzar() {
	switch {
	case len(s.players) == 0:
		s.czar = -1
	case s.czar >= len(s.players)-1:
		s.czar = 0
	default:
		s.czar++
	}
}

func (s *Session) pickCards(playerID string, cardIDs []string) {
	if s.state != StateChoosing {
		s.logger.Debug().Str("player_id", playerID).Stringer("state", s.state).Msg("picked cards outside choosing")
		return
	}
	index := s.playerIndex(playerID)
	if index < 0 {
		s.logger.Debug().Str("player_id", playerID).Msg("picked cards for unknown player")
		return
	}
	if index == s.czar {
		s.logger.Debug().Str("player_id", playerID).Msg("czar tried to pick cards")
		return
	}
	if s.submitted[playerID] {
		s.logger.Debug().Str("player_id", playerID).Msg("player already picked this round")
		return
	}
	if s.currentQuestion == nil {
		s.logger.Debug().Str("player_id", playerID).Msg("no question in play")
		return
	}
	s.submitted[playerID] = true

	player := s.players[index]
	picked := make([]cards.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		pos := handIndex(player.Hand, id)
		if pos < 0 {
			continue
		}
		picked = append(picked, player.Hand[pos])
		player.Hand = append(player.Hand[:pos], player.Hand[pos+1:]...)
	}
	// A wrong-sized submission is dropped and its cards stay out of the hand.
	if len(picked) == s.currentQuestion.NumAnswers {
		s.table = append(s.table, TableEntry{Cards: picked, PlayerID: playerID})
	} else {
		s.logger.Debug().
			Str("player_id", playerID).
			Int("picked", len(picked)).
			Int("required", s.currentQuestion.NumAnswers).
			Msg("submission discarded")
	}

	if s.choosingComplete() {
		s.cancelTimer(choosingTimer)
		s.stateJudging()
		return
	}
	s.emitSnapshot()
}

// choosingComplete reports whether every non-czar player is on the table.
func (s *Session) choosingComplete() bool {
	return len(s.players) > 1 && len(s.table) >= len(s.players)-1
}

func (s *Session) stateJudging() {
	if !s.setState(StateJudging) {
		return
	}
	if len(s.table) <= 1 {
		s.selectFirst()
		return
	}
	s.emitSnapshot()
	s.arm(judgingTimer, s.settings.JudgingDuration, s.selectFirst)
}

// selectFirst awards the earliest submission, or nobody when the table is empty.
func (s *Session) selectFirst() {
	if len(s.table) == 0 {
		s.cancelTimer(judgingTimer)
		s.winnerAutopicked = true
		s.logger.Debug().Int("round", s.round).Msg("no cards were picked")
		s.stateResults()
		return
	}
	s.award(0, true)
}

func (s *Session) pickWinning(cardID, playerID string, autopicked bool) {
	if s.state != StateJudging {
		s.logger.Debug().Str("player_id", playerID).Stringer("state", s.state).Msg("picked winner outside judging")
		return
	}
	if !autopicked && (s.czar < 0 || s.playerIndex(playerID) != s.czar) {
		s.logger.Debug().Str("player_id", playerID).Msg("non-czar tried to pick winner")
		return
	}
	entry := s.tableIndexByCard(cardID)
	if entry < 0 {
		s.logger.Warn().Str("player_id", playerID).Str("card_id", cardID).Msg("czar picked a card that was not on the table")
		return
	}
	s.award(entry, autopicked)
}

func (s *Session) award(entry int, autopicked bool) {
	owner := s.playerIndex(s.table[entry].PlayerID)
	if owner < 0 {
		s.logger.Warn().Str("player_id", s.table[entry].PlayerID).Msg("winning entry has no owner")
		return
	}
	winner := s.players[owner]
	winner.Points++
	s.winningCard = entry
	s.winningPlayer = owner
	s.winnerAutopicked = autopicked
	s.cancelTimer(judgingTimer)
	s.notify(fmt.Sprintf("%s has won the round!", winner.Name))
	s.stateResults()
}

func (s *Session) stateResults() {
	if !s.setState(StateResults) {
		return
	}
	s.pendingWinner = ""
	if winner := s.thresholdWinner(); winner >= 0 {
		s.pendingWinner = s.players[winner].ID
	}
	s.emitSnapshot()
	s.arm(resultsTimer, s.settings.ResultsDuration, s.finishResults)
}

// thresholdWinner returns the last roster index at or above the point limit.
func (s *Session) thresholdWinner() int {
	winner := -1
	for i, p := range s.players {
		if p.Points >= s.settings.PointLimit {
			winner = i
		}
	}
	return winner
}

func (s *Session) finishResults() {
	winner := -1
	if s.pendingWinner != "" {
		if winner = s.playerIndex(s.pendingWinner); winner < 0 {
			winner = s.thresholdWinner()
		}
	}
	if winner >= 0 {
		s.stateEndGame(winner)
		return
	}
	s.stateChoosing()
}

func (s *Session) stateEndGame(winner int) {
	if !s.setState(StateEndGame) {
		return
	}
	s.gameWinner = winner
	s.cancelAllTimers()
	s.logger.Info().Int("round", s.round).Str("winner", s.players[winner].Name).Msg("game ended")
	s.emitSnapshot()
}

func (s *Session) dissolve() {
	if s.state == StateDissolved {
		return
	}
	if s.setState(StateDissolved) {
		s.logger.Info().Int("round", s.round).Msg("game dissolved")
		s.emitSnapshot()
	}
	s.kill()
}

func (s *Session) tableIndexByCard(cardID string) int {
	for i, entry := range s.table {
		for _, card := range entry.Cards {
			if card.ID == cardID {
				return i
			}
		}
	}
	return -1
}

func handIndex(hand []cards.Card, id string) int {
	for i, card := range hand {
		if card.ID == id {
			return i
		}
	}
	return -1
}
