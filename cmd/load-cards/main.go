package main

import (
	"context"
	"fmt"
	"time"

	"card-czar/internal/cards"
	"card-czar/internal/config"
	"card-czar/internal/db"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var (
		file    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "load-cards",
		Short: "Loads a YAML card pack into the database.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return run(ctx, file)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to a YAML card pack (default: embedded pack)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "time allowed for the load")
	return cmd
}

func run(ctx context.Context, file string) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	conn, err := db.Open(config.Load())
	if err != nil {
		return fmt.Errorf("database connection: %w", err)
	}

	pack := cards.DefaultPack()
	if file != "" {
		if pack, err = cards.ReadPack(file); err != nil {
			return fmt.Errorf("read card pack %s: %w", file, err)
		}
	}

	result, err := db.LoadCardPack(ctx, conn, pack)
	if err != nil {
		return fmt.Errorf("load card pack: %w", err)
	}
	log.Info().
		Str("pack", pack.Name).
		Int("questions", result.Questions).
		Int("answers", result.Answers).
		Int("skipped", result.Skipped).
		Msg("loaded card pack")
	return nil
}
