package main

import (
	"context"

	"tiffinbox/internal/config"
	"tiffinbox/internal/db"
	"tiffinbox/internal/logger"
	"tiffinbox/internal/migrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New("production")
		fallback.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Env)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	log.Info().Msg("migrations applied")
}
