package game

import (
	"fmt"
	"strconv"

	"card-czar/internal/cards"

	"golang.org/x/sync/errgroup"
)

func (s *Session) prepareGame() {
	if !s.setState(StateGameInProgress) {
		return
	}
	s.logger.Info().Int("players", len(s.players)).Msg("preparing game")
	s.emitRoom(EventPrepareGame, PrepareGame{
		PlayerMinLimit: s.settings.PlayerMinLimit,
		PlayerMaxLimit: s.settings.PlayerMaxLimit,
		PointLimit:     s.settings.PointLimit,
		TimeLimits:     timeLimits(s.settings),
	})
	s.fetchingQ = true
	s.fetchingA = true
	go s.fetchDecks()
}

// fetchDecks loads both decks in parallel and opens the first round with
// whatever arrived.
func (s *Session) fetchDecks() {
	var (
		questions []cards.Question
		answers   []cards.Card
		g         errgroup.Group
	)
	g.Go(func() error {
		batch, err := s.fetchQuestions()
		questions = batch
		return err
	})
	g.Go(func() error {
		batch, err := s.fetchAnswers()
		answers = batch
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	s.fetchingQ = false
	s.fetchingA = false
	if s.killed || s.state != StateGameInProgress {
		s.logger.Debug().Msg("discarding decks for inactive room")
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Int("questions", len(questions)).Int("answers", len(answers)).Msg("deck fetch incomplete")
	}
	s.stampAnswers(answers)
	s.questions = cards.Shuffle(questions, s.rng)
	s.answers = cards.Shuffle(answers, s.rng)
	s.stateChoosing()
	s.unlockAndFlush()
}

func (s *Session) fetchQuestions() ([]cards.Question, error) {
	if s.supplier == nil {
		return nil, fmt.Errorf("fetch questions: no card supplier")
	}
	batch, err := s.supplier.Questions(s.ctx, s.settings.QuestionBatch)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	return batch, nil
}

func (s *Session) fetchAnswers() ([]cards.Card, error) {
	if s.supplier == nil {
		return nil, fmt.Errorf("fetch answers: no card supplier")
	}
	batch, err := s.supplier.Answers(s.ctx, s.settings.AnswerBatch)
	if err != nil {
		return nil, fmt.Errorf("fetch answers: %w", err)
	}
	return batch, nil
}

// refillQuestions requests another batch in the background. At most one
// request per deck is in flight.
func (s *Session) refillQuestions() {
	if s.fetchingQ || s.killed {
		return
	}
	s.fetchingQ = true
	go func() {
		batch, err := s.fetchQuestions()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fetchingQ = false
		if s.killed {
			s.logger.Debug().Msg("discarding question refill for killed room")
			return
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("question refill failed")
			return
		}
		cards.Shuffle(batch, s.rng)
		s.questions = append(batch, s.questions...)
		s.logger.Debug().Int("questions", len(s.questions)).Msg("question deck refilled")
	}()
}

func (s *Session) refillAnswers() {
	if s.fetchingA || s.killed {
		return
	}
	s.fetchingA = true
	go func() {
		batch, err := s.fetchAnswers()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.fetchingA = false
		if s.killed {
			s.logger.Debug().Msg("discarding answer refill for killed room")
			return
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("answer refill failed")
			return
		}
		s.stampAnswers(batch)
		cards.Shuffle(batch, s.rng)
		s.answers = append(batch, s.answers...)
		s.logger.Debug().Int("answers", len(s.answers)).Msg("answer deck refilled")
	}()
}

// nextQuestion pops the next question. An empty deck keeps the previous
// question in play until a refill lands.
func (s *Session) nextQuestion() {
	if n := len(s.questions); n > 0 {
		q := s.questions[n-1]
		s.questions = s.questions[:n-1]
		s.currentQuestion = &q
	} else {
		s.logger.Warn().Msg("question deck empty")
	}
	if len(s.questions) <= s.settings.QuestionLowWater {
		s.refillQuestions()
	}
}

// dealAnswers tops every hand up to the hand size with what the deck holds.
func (s *Session) dealAnswers() {
	for _, p := range s.players {
		for len(p.Hand) < s.settings.HandSize && len(s.answers) > 0 {
			n := len(s.answers)
			p.Hand = append(p.Hand, s.answers[n-1])
			s.answers = s.answers[:n-1]
			if len(s.answers) <= s.settings.AnswerLowWater {
				s.refillAnswers()
			}
		}
	}
	if len(s.answers) <= s.settings.AnswerLowWater {
		s.refillAnswers()
	}
}

// stampAnswers makes every answer id unique within the room. Suppliers may
// hand out the same card again in a later batch.
func (s *Session) stampAnswers(batch []cards.Card) {
	for i := range batch {
		s.serial++
		batch[i].ID = batch[i].ID + "#" + strconv.FormatUint(s.serial, 10)
	}
}
