package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	PlayerMinLimit           int
	PlayerMaxLimit           int
	PointLimit               int
	HandSize                 int
	ChoosingDurationSeconds  int
	JudgingDurationSeconds   int
	ResultsDurationSeconds   int
	QuestionBatch            int
	AnswerBatch              int
	QuestionLowWater         int
	AnswerLowWater           int
	CardPackPath             string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	NATSURL                  string
	NATSSubjectPrefix        string
	LogLevel                 string
}

func Default() Config {
	return Config{
		PlayerMinLimit:           3,
		PlayerMaxLimit:           6,
		PointLimit:               5,
		HandSize:                 10,
		ChoosingDurationSeconds:  21,
		JudgingDurationSeconds:   16,
		ResultsDurationSeconds:   6,
		QuestionBatch:            50,
		AnswerBatch:              200,
		QuestionLowWater:         3,
		AnswerLowWater:           30,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		NATSSubjectPrefix:        "rooms",
		LogLevel:                 "info",
	}
}

func Load() Config {
	cfg := Default()
	positive := map[string]*int{
		"PLAYER_MIN_LIMIT":             &cfg.PlayerMinLimit,
		"PLAYER_MAX_LIMIT":             &cfg.PlayerMaxLimit,
		"POINT_LIMIT":                  &cfg.PointLimit,
		"HAND_SIZE":                    &cfg.HandSize,
		"QUESTION_BATCH":               &cfg.QuestionBatch,
		"ANSWER_BATCH":                 &cfg.AnswerBatch,
		"DB_MAX_OPEN_CONNS":            &cfg.DBMaxOpenConns,
		"DB_MAX_IDLE_CONNS":            &cfg.DBMaxIdleConns,
		"DB_CONN_MAX_LIFETIME_SECONDS": &cfg.DBConnMaxLifetimeSeconds,
		"DB_CONN_MAX_IDLE_SECONDS":     &cfg.DBConnMaxIdleTimeSeconds,
	}
	for key, target := range positive {
		if raw := os.Getenv(key); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil && value > 0 {
				*target = value
			}
		}
	}
	// Durations and low-water marks accept zero.
	nonNegative := map[string]*int{
		"CHOOSING_SECONDS":   &cfg.ChoosingDurationSeconds,
		"JUDGING_SECONDS":    &cfg.JudgingDurationSeconds,
		"RESULTS_SECONDS":    &cfg.ResultsDurationSeconds,
		"QUESTION_LOW_WATER": &cfg.QuestionLowWater,
		"ANSWER_LOW_WATER":   &cfg.AnswerLowWater,
	}
	for key, target := range nonNegative {
		if raw := os.Getenv(key); raw != "" {
			if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
				*target = value
			}
		}
	}
	if cfg.PlayerMaxLimit < cfg.PlayerMinLimit {
		cfg.PlayerMaxLimit = cfg.PlayerMinLimit
	}
	if raw := os.Getenv("CARD_PACK_PATH"); raw != "" {
		cfg.CardPackPath = raw
	}
	if raw := os.Getenv("NATS_URL"); raw != "" {
		cfg.NATSURL = raw
	}
	if raw := os.Getenv("NATS_SUBJECT_PREFIX"); raw != "" {
		cfg.NATSSubjectPrefix = raw
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	return cfg
}

func (c Config) ChoosingDuration() time.Duration {
	return time.Duration(c.ChoosingDurationSeconds) * time.Second
}

func (c Config) JudgingDuration() time.Duration {
	return time.Duration(c.JudgingDurationSeconds) * time.Second
}

func (c Config) ResultsDuration() time.Duration {
	return time.Duration(c.ResultsDurationSeconds) * time.Second
}
