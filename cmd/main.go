package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/SoulxxMerchant/New/internal/config"
	"github.com/SoulxxMerchant/New/internal/entities"
	"github.com/SoulxxMerchant/New/internal/infrastructure"
	httpiface "github.com/SoulxxMerchant/New/internal/interfaces/http"
	"github.com/SoulxxMerchant/New/internal/interfaces/telegram"
	"github.com/SoulxxMerchant/New/internal/repository"
	"github.com/SoulxxMerchant/New/internal/usecases"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration error")
	}

	// Quota storage: flat file by default, Postgres when DATABASE_URL is set.
	var quotaRepo repository.QuotaRepository
	if cfg.DatabaseURL != "" {
		pg, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()
		quotaRepo = repository.NewPostgresQuotaRepository(pg.Pool)
		log.Info().Msg("quota storage: postgres")
	} else {
		fileRepo, err := repository.NewFileQuotaRepository(cfg.QuotaFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.QuotaFile).Msg("failed to load quota file")
		}
		quotaRepo = fileRepo
		log.Info().Str("path", cfg.QuotaFile).Msg("quota storage: file")
	}

	sessions, err := repository.NewSessionStore(cfg.SessionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SessionsFile).Msg("failed to load sessions file")
	}
	log.Info().Int("sessions", sessions.Count()).Msg("session pool loaded")

	quotas := usecases.NewQuotaService(quotaRepo, cfg.BaseDailyLimit, cfg.PremiumDailyLimit, log)

	waManager, err := infrastructure.NewWhatsAppManager(cfg.DeviceDB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open device store")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Telegram")
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram bot connected")

	notifier := infrastructure.NewTelegramNotifier(bot, log)
	campaigns := usecases.NewCampaignService(entities.DefaultCampaignConfig(), sessions, quotas, waManager, notifier, log)

	auth, err := usecases.NewAuthService(cfg.APIUser, cfg.APIPassword, cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth")
	}

	// Keepalive HTTP server runs alongside the polling loop.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpiface.SetupRoutes(r, campaigns, quotas, sessions, auth, httpiface.NewMiddleware(cfg.JWTSecret))
	go func() {
		addr := "0.0.0.0:" + cfg.Port
		log.Info().Str("addr", addr).Msg("http server starting")
		if err := r.Run(addr); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	telegram.NewBot(bot, cfg, campaigns, quotas, sessions, waManager, log).Run()
}
