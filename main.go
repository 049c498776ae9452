package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"

	"sniperbot/config"
	"sniperbot/internal/adapters/binanceclient"
	"sniperbot/internal/adapters/calendar"
	"sniperbot/internal/adapters/kafka"
	"sniperbot/internal/adapters/logger"
	"sniperbot/internal/adapters/sqlite"
	"sniperbot/internal/app"
	"sniperbot/internal/pipeline"
	"sniperbot/internal/ports"
	"sniperbot/internal/risk"
	"sniperbot/internal/strategy/filters"
	"sniperbot/internal/strategy/storyline"
	"sniperbot/internal/strategy/structure"
	"sniperbot/internal/strategy/trigger"
	"sniperbot/internal/strategy/zones"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	var appLogger ports.Logger
	if cfg.LogFormat == "json" {
		appLogger = logger.NewZeroLogger(os.Stderr, cfg.LogLevel)
	} else {
		appLogger = logger.NewStdLogger(cfg.LogLevel)
	}
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}

	// 5. Initialize Gating Adapters
	sessions := calendar.NewSessionClock(cfg.Session)
	var newsCal ports.Calendar
	if cfg.UseNewsFilter {
		newsCal, err = calendar.NewNewsCalendar(calendar.Config{
			Logger:          appLogger,
			FeedURL:         cfg.CalendarURL,
			Impacts:         cfg.NewsImpact,
			CacheTTL:        cfg.NewsCacheTTL,
			BlackoutMinutes: cfg.NewsBlackoutMinutes,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize news calendar")
			log.Fatalf("FATAL: Failed to initialize news calendar: %v", err)
		}
	}

	// 6. Initialize Observers
	var observers []ports.CycleObserver
	if cfg.KafkaEnabled {
		publisher, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Kafka publisher")
			log.Fatalf("FATAL: Failed to initialize Kafka publisher: %v", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing Kafka publisher")
			}
		}()
		observers = append(observers, publisher)
	}

	// 7. Initialize Engines and the Pipeline
	pipe, zoneEngine, err := buildPipeline(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize pipeline")
		log.Fatalf("FATAL: Failed to initialize pipeline: %v", err)
	}

	// 8. Initialize and Run the Application Service
	service, err := app.NewScanService(app.Deps{
		Config:    cfg,
		Logger:    appLogger,
		Feed:      binanceClient,
		Executor:  binanceClient,
		Account:   binanceClient,
		Repo:      repo,
		Calendar:  newsCal,
		Sessions:  sessions,
		Pipeline:  pipe,
		Zones:     zoneEngine,
		Observers: observers,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize scan service")
		log.Fatalf("FATAL: Failed to initialize scan service: %v", err)
	}

	if err := service.Run(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Scan service exited with error")
		log.Fatalf("FATAL: Scan service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// buildPipeline wires the five layers from configuration.
func buildPipeline(cfg *config.Config, appLogger ports.Logger) (*pipeline.Pipeline, *zones.Engine, error) {
	zoneEngine, err := zones.New(zones.Config{
		Lookback:         cfg.ZoneLookback,
		MitigationBuffer: cfg.MitigationBuffer,
		MissWindow:       cfg.MissWindow,
	})
	if err != nil {
		return nil, nil, err
	}
	structEngine, err := structure.New(structure.Config{
		SwingLookback: cfg.SwingLookback,
		BOSLookback:   cfg.BOSLookback,
	})
	if err != nil {
		return nil, nil, err
	}
	storyEngine, err := storyline.New(storyline.Config{}, zoneEngine)
	if err != nil {
		return nil, nil, err
	}
	arrival, err := filters.NewArrival(filters.ArrivalConfig{
		Lookback:         cfg.ArrivalLookback,
		AvgBodyWindow:    cfg.AvgBodyWindow,
		MarubozuMultiple: cfg.MarubozuMultiple,
	})
	if err != nil {
		return nil, nil, err
	}
	roadblock, err := filters.NewRoadblock(filters.RoadblockConfig{MinRR: cfg.MinRR})
	if err != nil {
		return nil, nil, err
	}
	trig, err := trigger.New(trigger.Config{}, structEngine)
	if err != nil {
		return nil, nil, err
	}
	calc, err := risk.NewCalculator(risk.Config{
		RiskPercent: cfg.RiskPercent,
		MaxRiskPips: cfg.MaxRiskPips,
	})
	if err != nil {
		return nil, nil, err
	}

	pipe, err := pipeline.New(pipeline.Config{
		ExecMode:        cfg.ExecMode,
		LimitExpiryBars: cfg.LimitExpiryBars,
		MaxRiskPips:     cfg.MaxRiskPips,
	}, pipeline.Deps{
		Logger:    appLogger,
		Zones:     zoneEngine,
		Structure: structEngine,
		Storyline: storyEngine,
		Arrival:   arrival,
		Roadblock: roadblock,
		Trigger:   trig,
		Calc:      calc,
	})
	if err != nil {
		return nil, nil, err
	}
	return pipe, zoneEngine, nil
}
