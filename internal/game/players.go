package game

func (s *Session) playerIndex(playerID string) int {
	if playerID == "" {
		return -1
	}
	for i, p := range s.players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) assignColors() {
	for i, p := range s.players {
		p.Color = i
	}
}

func (s *Session) hasEntry(playerID string) bool {
	for _, entry := range s.table {
		if entry.PlayerID == playerID {
			return true
		}
	}
	return false
}

func (s *Session) removePlayer(playerID string) bool {
	index := s.playerIndex(playerID)
	if index < 0 {
		return false
	}
	name := s.players[index].Name
	roundWinner, gameWinner := s.winnerIDs()

	if s.hasEntry(playerID) {
		kept := s.table[:0]
		for _, entry := range s.table {
			if entry.PlayerID != playerID {
				kept = append(kept, entry)
			}
		}
		s.table = kept
	}
	delete(s.submitted, playerID)
	s.players = append(s.players[:index], s.players[index+1:]...)
	s.reindexWinners(roundWinner, gameWinner)
	if s.state == StateAwaitingPlayers {
		s.assignColors()
	}
	s.logger.Info().Str("player_id", playerID).Str("name", name).Int("players", len(s.players)).Msg("player left")

	if index == s.czar {
		s.clampCzar()
		switch s.state {
		case StateChoosing:
			s.cancelTimer(choosingTimer)
			s.notify("The Czar left the game! Starting a new round.")
			s.stateChoosing()
			return true
		case StateJudging:
			s.notify("The Czar left the game! First answer submitted wins!")
			if len(s.table) > 0 {
				s.pickWinning(s.table[0].Cards[0].ID, playerID, true)
			} else {
				s.selectFirst()
			}
		}
	} else {
		if index < s.czar {
			s.czar--
		}
		s.notify(name + " has left the game.")
		if s.state == StateChoosing && len(s.table) > 0 && s.choosingComplete() {
			s.cancelTimer(choosingTimer)
			s.stateJudging()
		}
	}
	s.emitSnapshot()
	return true
}

// winnerIDs returns the owners of the winning entry and of the game, if any.
func (s *Session) winnerIDs() (roundID, gameID string) {
	if s.winningCard >= 0 && s.winningCard < len(s.table) {
		roundID = s.table[s.winningCard].PlayerID
	}
	if s.gameWinner >= 0 && s.gameWinner < len(s.players) {
		gameID = s.players[s.gameWinner].ID
	}
	return roundID, gameID
}

// reindexWinners points the winner indexes back at their owners after the
// table and roster shifted. A winner who left resets to -1.
func (s *Session) reindexWinners(roundID, gameID string) {
	s.winningCard, s.winningPlayer = -1, -1
	if roundID != "" {
		for i, entry := range s.table {
			if entry.PlayerID == roundID {
				s.winningCard = i
				s.winningPlayer = s.playerIndex(roundID)
				break
			}
		}
	}
	s.gameWinner = s.playerIndex(gameID)
}

// clampCzar keeps the czar index inside the roster after a removal.
func (s *Session) clampCzar() {
	switch {
	case len(s.players) == 0:
		s.czar = -1
	case s.czar >= len(s.players):
		s.czar = len(s.players) - 1
	}
}
