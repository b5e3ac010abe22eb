package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/db"
	"github.com/lu2a-dev/dayplaner/internal/mail"
	"github.com/lu2a-dev/dayplaner/internal/mqtt"
	"github.com/lu2a-dev/dayplaner/internal/pairing"
	"github.com/lu2a-dev/dayplaner/internal/redis"
)

// orphaned display rows are swept in the background at this cadence
const cleanupInterval = time.Hour

func main() {
	env := LoadEnvironment()

	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}
	store := db.NewStore(db.DB)

	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
	}

	mailer := mail.NewMailer(mail.Config{
		SMTPHost:  env.SMTPHost,
		SMTPPort:  env.SMTPPort,
		SMTPUser:  env.SMTPUser,
		SMTPPass:  env.SMTPPass,
		FromName:  env.FromName,
		FromEmail: env.FromEmail,
	})

	var notifier pairing.Notifier
	if env.MQTTBrokerURL != "" {
		publisher, err := mqtt.NewPublisher(env.MQTTBrokerURL, "dayplaner-server")
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer publisher.Close()
		notifier = publisher
	}
	pairingService := pairing.NewService(store, notifier)

	go runOrphanCleanup(pairingService)

	files := InitStorage(env)

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, env, store, files, mailer, pairingService)

	log.Info().Str("address", env.ServerAddress).Msg("server listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// runOrphanCleanup periodically resets displays whose organisation was
// deleted, so they fall back to pairing mode even if they never poll.
func runOrphanCleanup(svc *pairing.Service) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cleaned, _, err := svc.CleanupOrphans()
		if err != nil {
			log.Error().Err(err).Msg("orphan cleanup failed")
			continue
		}
		if cleaned > 0 {
			log.Info().Int("cleaned", cleaned).Msg("orphaned displays reset")
		}
	}
}
