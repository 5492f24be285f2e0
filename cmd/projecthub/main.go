package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sem0ark/projecthub/db"
	"github.com/sem0ark/projecthub/internal/auth"
	"github.com/sem0ark/projecthub/internal/blob"
	"github.com/sem0ark/projecthub/internal/config"
	"github.com/sem0ark/projecthub/internal/router"
	"github.com/sem0ark/projecthub/internal/store"
	"github.com/sem0ark/projecthub/internal/sweeper"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	conn, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	blobs, err := blob.NewStoreFromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize blob storage")
	}

	users := store.NewUserStore(conn)
	projects := store.NewProjectStore(conn)
	documents := store.NewDocumentStore(conn)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	if cfg.SweepInterval > 0 {
		sweep := sweeper.New(documents, projects, blobs, cfg.SweepInterval)
		sweep.Start()
		defer sweep.Stop()
	}

	r := router.New(router.Deps{
		Users:     users,
		Projects:  projects,
		Documents: documents,
		Blobs:     blobs,
		Tokens:    tokens,
		LogoSize:  cfg.LogoSize,
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
