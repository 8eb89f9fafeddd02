package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"barberhub/internal/actions"
	"barberhub/internal/config"
	"barberhub/internal/engine"
	"barberhub/internal/fatigue"
	"barberhub/internal/features"
	"barberhub/internal/lifecycle"
	"barberhub/internal/notifier"
	"barberhub/internal/processor"
	"barberhub/internal/repository"
	"barberhub/internal/scoring"
	"barberhub/internal/server"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize repositories
	alertRepo := repository.NewAlertRepository(db, logger)
	ruleRepo := repository.NewRuleRepository(db, logger)
	prefsRepo := repository.NewPreferencesRepository(db, logger)
	interactionRepo := repository.NewInteractionRepository(db, logger)
	trainingRepo := repository.NewTrainingRepository(db, logger)
	patternRepo := repository.NewPatternRepository(db, logger)

	// Scoring pipeline: rule scorer plus a learned strategy. The
	// in-process classifier is the default; an external scoring service
	// takes its place when configured.
	extractor := features.NewExtractor(logger)
	classifier := scoring.NewOnlineClassifier(cfg.Engine.MinTrainingSamples)

	var remoteScorer *scoring.RemoteScorer
	var learned scoring.Strategy = classifier
	if cfg.Scorer.Enabled {
		remoteScorer = scoring.NewRemoteScorer(cfg.Scorer.URL)
		learned = remoteScorer
		logger.Info("Remote scoring service enabled", zap.String("url", cfg.Scorer.URL))
	}
	blender := scoring.NewBlender(scoring.NewRuleScorer(), learned, logger)

	// Initialize action recommender (optional augmentation service)
	var augmenter actions.Augmenter
	if cfg.Augmenter.Enabled {
		augmenter = actions.NewClient(cfg.Augmenter.URL)
		logger.Info("Action augmentation service enabled", zap.String("url", cfg.Augmenter.URL))
	}
	recommender := actions.NewRecommender(augmenter, logger)

	// Initialize notification gateway
	var gateway notifier.Gateway = notifier.NewLogGateway(logger)
	if cfg.Notifier.Enabled {
		tg, err := notifier.NewTelegramGateway(cfg.Notifier.TelegramBotToken, cfg.Notifier.TelegramChatID, logger)
		if err != nil {
			logger.Warn("Failed to initialize Telegram notifier, continuing with log delivery", zap.Error(err))
		} else {
			gateway = tg
		}
	}

	guard := fatigue.NewGuard(24 * time.Hour)
	lifecycleManager := lifecycle.NewManager(alertRepo, interactionRepo, trainingRepo, ruleRepo, logger)

	eng := engine.New(cfg, alertRepo, ruleRepo, prefsRepo, interactionRepo, patternRepo,
		extractor, blender, guard, recommender, lifecycleManager, gateway, logger)

	proc := processor.NewProcessor(alertRepo, trainingRepo, patternRepo, interactionRepo,
		ruleRepo, classifier, blender, remoteScorer, cfg, logger)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run background processor in a goroutine
	go proc.Run(ctx)

	// Initialize and run the server
	srv := server.NewServer(eng, cfg.Server.JWTSecret, logger, logrus.New())
	srv.Run(cfg.Server.Port)

	<-ctx.Done()
	logger.Info("Application stopped.")
}
