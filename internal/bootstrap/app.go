// Package bootstrap wires configuration into concrete stores, clients and the router.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"resumeai-backend/internal/llm"
	"resumeai-backend/internal/llm/gemini"
	"resumeai-backend/internal/llm/openai"
	"resumeai-backend/internal/rasterizer"
	"resumeai-backend/internal/resumes"
	"resumeai-backend/internal/services/health"
	"resumeai-backend/internal/shared/config"
	"resumeai-backend/internal/shared/server"
	"resumeai-backend/internal/shared/storage/db"
	"resumeai-backend/internal/shared/storage/kv"
	"resumeai-backend/internal/shared/storage/kv/pgstore"
	"resumeai-backend/internal/shared/storage/kv/redisstore"
	"resumeai-backend/internal/shared/storage/object"
	localstore "resumeai-backend/internal/shared/storage/object/local"
	s3store "resumeai-backend/internal/shared/storage/object/s3"
	"resumeai-backend/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config     config.Config
	Router     *gin.Engine
	DB         *sql.DB
	Blobs      object.ObjectStore
	Records    kv.Store
	Rasterizer *rasterizer.Rasterizer
	LLM        llm.Client
	Resumes    *resumes.Service
	Handler    *resumes.Handler
	Health     *health.Service
}

// Options adjusts Build for callers that do not serve HTTP.
type Options struct {
	// SkipRouter leaves App.Router nil.
	SkipRouter bool
	// DBOptions overrides the connection pool settings for the Postgres record store.
	DBOptions *db.Options
}

// Build prepares shared dependencies and the router.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	telemetry.Configure(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg}

	blobs, err := buildBlobs(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Blobs = blobs

	dbOpts := db.OptionsFromEnv(db.DefaultServerOptions())
	if opts.DBOptions != nil {
		dbOpts = *opts.DBOptions
	}
	records, sqlDB, err := buildRecords(ctx, cfg, dbOpts)
	if err != nil {
		return nil, err
	}
	app.Records = records
	app.DB = sqlDB

	llmClient, err := buildLLM(ctx, cfg, blobs)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = llmClient

	app.Rasterizer = rasterizer.New(rasterizer.Default())
	app.Resumes = &resumes.Service{
		Blobs:      app.Blobs,
		Records:    app.Records,
		Rasterizer: app.Rasterizer,
		LLM:        app.LLM,
	}
	app.Handler = resumes.NewHandler(app.Resumes, cfg.MaxUploadBytes())
	app.Health = health.NewService(map[string]health.Pinger{"record_store": app.Records})

	if !opts.SkipRouter {
		app.Router = server.NewRouter(server.RouterDeps{
			Config:  cfg,
			Resumes: app.Handler,
			Health:  app.Health,
		})
	}

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"record_store": cfg.RecordStoreType,
		"llm_provider": cfg.LLMProvider,
	})
	return app, nil
}

// Close releases the record store connection.
func (a *App) Close() error {
	if a == nil || a.Records == nil {
		return nil
	}
	return a.Records.Close()
}

func buildBlobs(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildRecords(ctx context.Context, cfg config.Config, dbOpts db.Options) (kv.Store, *sql.DB, error) {
	switch cfg.RecordStoreType {
	case "redis":
		store, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil, nil
	case "postgres":
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, dbOpts)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return pgstore.New(sqlDB), sqlDB, nil
	default:
		return kv.NewMemoryStore(), nil, nil
	}
}

func buildLLM(ctx context.Context, cfg config.Config, blobs object.ObjectStore) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, blobs)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, blobs)
	case "none":
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	default:
		return nil, errors.New("unknown LLM_PROVIDER " + cfg.LLMProvider)
	}
}
