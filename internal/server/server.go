package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/formkv/internal/pipeline"
	"github.com/OFFIS-RIT/formkv/internal/queue"
	mid "github.com/OFFIS-RIT/formkv/internal/server/middleware"
	"github.com/OFFIS-RIT/formkv/internal/storage"
	"github.com/OFFIS-RIT/formkv/internal/util"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	"github.com/OFFIS-RIT/formkv/pkg/logger"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New creates the echo instance with all middleware and routes.
func New(app *mid.App) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(util.GetEnvString("FORMKV_BODY_LIMIT", "20M")))

	RegisterRoutes(e)

	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	retryTTL := util.GetEnvDuration("FORMKV_RETRY_DELAY", 10*time.Second)
	if err := queue.SetupQueues(ch, []string{queue.AnalyseQueue}, retryTTL); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Failed to create S3 client", "err", err)
	}

	analyzer, err := pipeline.NewAnalyzer(ctx, util.GetEnv("FORMKV_REPLAY_DIR"), "")
	if err != nil {
		logger.Fatal("Failed to create analyzer", "err", err)
	}
	processor, err := pipeline.NewProcessorFromEnv(analyzer, util.GetEnvInt("FORMKV_LONG_EDGE", imgloader.DefaultLongEdge))
	if err != nil {
		logger.Fatal("Invalid pipeline configuration", "err", err)
	}

	masterAPIKey := util.GetEnv("MASTER_API_KEY")
	if masterAPIKey == "" {
		logger.Warn("MASTER_API_KEY is not set, all /api requests will be rejected")
	}

	e := New(&mid.App{
		Queue:        ch,
		Store:        storage.NewStore(s3Client, util.GetEnvString("AWS_BUCKET", "formkv")),
		Processor:    processor,
		UploadPrefix: util.GetEnvString("FORMKV_UPLOAD_PREFIX", "uploads"),
		ResultPrefix: util.GetEnvString("FORMKV_RESULT_PREFIX", "results"),
		MasterAPIKey: masterAPIKey,
	})

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
