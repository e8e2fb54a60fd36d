package db

import (
	"context"
	"errors"
	"strings"

	"card-czar/internal/cards"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type LoadResult struct {
	Questions int
	Answers   int
	Skipped   int
}

// LoadCardPack inserts every card of pack, skipping texts already stored.
func LoadCardPack(ctx context.Context, conn *gorm.DB, pack cards.Pack) (LoadResult, error) {
	var result LoadResult
	if conn == nil {
		return result, errors.New("db connection is nil")
	}
	conn = conn.WithContext(ctx)
	name := strings.TrimSpace(pack.Name)
	for _, q := range pack.Questions {
		record := Question{Text: q.Text, NumAnswers: q.NumAnswers, Pack: name}
		err := conn.Create(&record).Error
		switch {
		case err == nil:
			result.Questions++
		case isUniqueViolation(err):
			result.Skipped++
		default:
			return result, err
		}
	}
	for _, text := range pack.Answers {
		record := Answer{Text: text, Pack: name}
		err := conn.Create(&record).Error
		switch {
		case err == nil:
			result.Answers++
		case isUniqueViolation(err):
			result.Skipped++
		default:
			return result, err
		}
	}
	return result, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
