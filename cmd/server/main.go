package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"teleconsult-ai/internal/archive"
	"teleconsult-ai/internal/config"
	"teleconsult-ai/internal/gateway"
	"teleconsult-ai/internal/pipeline"
	"teleconsult-ai/internal/platform/telegram"
	"teleconsult-ai/internal/report"
	"teleconsult-ai/internal/safety"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg)

	// 1. Infrastructure. The database is optional: runs are still served,
	// just not archived.
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = openDB(cfg.DatabaseURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("could not connect to database; runs will not be archived")
			db = nil
		} else {
			log.Info().Msg("connected to database")
			runMigrations(cfg.DatabaseURL, log)
		}
	}

	// 2. Clients
	gw := gateway.NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	var tgClient report.TelegramClient
	if cfg.TelegramToken != "" {
		tgClient = telegram.NewClient(cfg.TelegramToken)
	}

	// 3. Services
	rules := safety.StaticRules{}
	formulary := safety.StaticFormulary{}
	validator := safety.NewValidator(rules)
	verification := safety.NewVerificationService(validator, formulary, rules, log)

	orch := pipeline.NewOrchestrator(
		gw, validator, cfg.OpenAIModel,
		time.Duration(cfg.GenerateTimeout)*time.Second,
		cfg.MaxTokens, log,
	)

	var archiver pipeline.Archiver
	if db != nil {
		archiver = archive.NewRepository(db)
	}
	var notifier pipeline.Notifier
	if tgClient != nil && cfg.PhysicianChatID != 0 {
		notifier = report.NewService(tgClient, cfg.PhysicianChatID, log)
	} else {
		log.Warn().Msg("physician notification not configured")
	}

	svc := pipeline.NewService(orch, archiver, notifier, log)
	pipelineHandler := pipeline.NewHandler(svc, log)
	safetyHandler := safety.NewHandler(verification, formulary, log)

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// CORS for the consultation frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == "OPTIONS" {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	pipeline.RegisterRoutes(r, pipelineHandler)
	safety.RegisterRoutes(r, safetyHandler)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	log.Info().Str("port", cfg.Port).Msg("server starting")
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func openDB(connStr string, log zerolog.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			return db, nil
		}
		log.Info().Int("attempt", i+1).Msg("waiting for database")
		time.Sleep(2 * time.Second)
	}
	return nil, err
}

func runMigrations(connStr string, log zerolog.Logger) {
	m, err := migrate.New("file://migrations", connStr)
	if err != nil {
		log.Warn().Err(err).Msg("migration init failed")
		return
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Warn().Err(err).Msg("migration up failed")
		return
	}
	log.Info().Msg("migrations applied")
}
