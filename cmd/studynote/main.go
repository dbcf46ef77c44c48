package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/studynote/internal/ai"
	"github.com/xxxsen/studynote/internal/config"
	"github.com/xxxsen/studynote/internal/db"
	"github.com/xxxsen/studynote/internal/extract"
	"github.com/xxxsen/studynote/internal/fetch"
	"github.com/xxxsen/studynote/internal/filestore"
	"github.com/xxxsen/studynote/internal/handler"
	"github.com/xxxsen/studynote/internal/job"
	"github.com/xxxsen/studynote/internal/middleware"
	"github.com/xxxsen/studynote/internal/repo"
	"github.com/xxxsen/studynote/internal/schedule"
	"github.com/xxxsen/studynote/internal/search"
	"github.com/xxxsen/studynote/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "studynote",
		Short: "studynote backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run studynote server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("model", cfg.Gemini.Model),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Bool("web_search", cfg.Search.APIKey != ""),
	)

	contentRepo := repo.NewContentRepo(database)
	sessionRepo := repo.NewSessionRepo(database)

	client, err := ai.NewGeminiClient(context.Background(), cfg.Gemini)
	if err != nil {
		return fmt.Errorf("init gemini client: %w", err)
	}
	fetcher := fetch.NewClient(30 * time.Second)
	extractor := extract.New(fetcher, client, cfg)
	augmenter := search.NewAugmenter(client, fetcher, cfg)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	notesService := service.NewNotesService(client, extractor, augmenter, contentRepo, store, cfg)
	artifactService := service.NewArtifactService(client, contentRepo, cfg)
	chatService := service.NewChatService(client, augmenter, contentRepo, sessionRepo, cfg)

	deps := handler.RouterDeps{
		Study: handler.NewStudyHandler(notesService, artifactService, chatService),
		Files: handler.NewFileHandler(store),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.New()
	cleanup := job.NewSessionCleanupJob(sessionRepo, time.Duration(cfg.Cleanup.RetentionDays)*24*time.Hour)
	if err := scheduler.Add(cfg.Cleanup.Spec, cleanup); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
