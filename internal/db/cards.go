package db

import (
	"context"
	"errors"
	"strconv"

	"card-czar/internal/cards"

	"gorm.io/gorm"
)

// CardStore draws random cards from the questions and answers tables.
type CardStore struct {
	conn *gorm.DB
}

func NewCardStore(conn *gorm.DB) *CardStore {
	return &CardStore{conn: conn}
}

func (s *CardStore) Questions(ctx context.Context, n int) ([]cards.Question, error) {
	if s.conn == nil {
		return nil, errors.New("card store has no connection")
	}
	var records []Question
	if err := randomRows(s.conn.WithContext(ctx), n).Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]cards.Question, 0, len(records))
	for _, record := range records {
		out = append(out, questionCard(record))
	}
	return out, nil
}

func (s *CardStore) Answers(ctx context.Context, n int) ([]cards.Card, error) {
	if s.conn == nil {
		return nil, errors.New("card store has no connection")
	}
	var records []Answer
	if err := randomRows(s.conn.WithContext(ctx), n).Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]cards.Card, 0, len(records))
	for _, record := range records {
		out = append(out, answerCard(record))
	}
	return out, nil
}

func randomRows(query *gorm.DB, n int) *gorm.DB {
	query = query.Order("random()")
	if n > 0 {
		query = query.Limit(n)
	}
	return query
}

func questionCard(record Question) cards.Question {
	numAnswers := record.NumAnswers
	if numAnswers <= 0 {
		numAnswers = 1
	}
	return cards.Question{
		ID:         "q" + strconv.FormatUint(uint64(record.ID), 10),
		Text:       record.Text,
		NumAnswers: numAnswers,
	}
}

func answerCard(record Answer) cards.Card {
	return cards.Card{
		ID:   "a" + strconv.FormatUint(uint64(record.ID), 10),
		Text: record.Text,
	}
}
