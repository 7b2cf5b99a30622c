package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"remobot/internal/ai"
	"remobot/internal/app"
	"remobot/internal/cache"
	"remobot/internal/config"
	"remobot/internal/platform/database"
	rabbitmqClient "remobot/internal/platform/rabbitmq"
	redisClient "remobot/internal/platform/redis"
	"remobot/internal/repository"
	"remobot/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB         *gorm.DB
	Redis      *redis.Client
	MQConn     *amqp.Connection
	TurnWorker *worker.TurnPersistWorker

	Auth    *app.AuthService
	History *app.HistoryService
	Chat    *app.ChatService

	StartedAt time.Time
}

// New connects the stores and brokers named by cfg and wires the services.
// Redis and RabbitMQ are optional; without them history is cached in process
// and turns are written synchronously.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN(), log)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		_ = a.Close()
		return nil, err
	}

	historyCache, err := a.historyCache(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	credentials := app.NewCredentialStore(userRepo, bcrypt.DefaultCost)
	a.Auth = app.NewAuthService(
		credentials,
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		log,
	)
	a.History = app.NewHistoryService(db, historyCache, log)

	var publisher app.TurnPublisher
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.MQConn = mqConn

		a.TurnWorker = worker.NewTurnPersistWorker(mqConn, a.History, cfg.RabbitMQ.TurnPersistQueue, log)
		if err := a.TurnWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start turn worker failed: %w", err)
		}
		publisher = rabbitmqClient.NewTurnPublisher(mqConn, cfg.RabbitMQ.TurnPersistQueue)
	}

	a.Chat = app.NewChatService(a.History, NewRegistry(cfg, log), publisher, log)

	log.Info("application ready",
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", a.Redis != nil),
		zap.Bool("rabbitmq", a.MQConn != nil),
		zap.Strings("generators", a.Chat.Models()),
	)
	return a, nil
}

// NewRegistry builds the keyword generator plus the configured LLM backend.
func NewRegistry(cfg *config.Config, log *zap.Logger) *ai.Registry {
	charDelay := time.Duration(cfg.Generator.CharDelayMillis) * time.Millisecond
	basic := ai.NewKeywordGenerator(charDelay)
	groq := ai.NewLLMGenerator(ai.LLMGeneratorOptions{
		Name: ai.GroqGeneratorName,
		Config: ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		},
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		ChunkDelay: time.Duration(cfg.Generator.ChunkDelayMillis) * time.Millisecond,
		CharDelay:  charDelay,
		Logger:     log,
	})
	if cfg.LLM.APIKey == "" {
		log.Warn("llm api key not configured; groq replies will report it")
	}
	return ai.NewRegistry(basic, cfg.Generator.Default, groq)
}

func (a *App) historyCache(ctx context.Context) (app.HistoryCache, error) {
	cfg := a.Config.Redis
	historyTTL := time.Duration(cfg.HistoryTTLSeconds) * time.Second
	dirtyTTL := time.Duration(cfg.HistoryDirtyTTLSeconds) * time.Second
	if !cfg.Enabled {
		return cache.NewMemoryHistoryCache(historyTTL, dirtyTTL), nil
	}

	client, err := redisClient.New(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}
	a.Redis = client
	return cache.NewRedisHistoryCache(client, historyTTL, dirtyTTL), nil
}

func (a *App) Close() error {
	var closeErr error
	if a.TurnWorker != nil {
		a.TurnWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
