package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vidscope-backend/internal/analyses"
	googleauth "vidscope-backend/internal/auth"
	"vidscope-backend/internal/catalog"
	"vidscope-backend/internal/media"
	"vidscope-backend/internal/providers"
	"vidscope-backend/internal/queue"
	"vidscope-backend/internal/session"
	"vidscope-backend/internal/shared/config"
	"vidscope-backend/internal/shared/server"
	"vidscope-backend/internal/shared/storage/db"
	"vidscope-backend/internal/shared/storage/object"
	localstore "vidscope-backend/internal/shared/storage/object/local"
	s3store "vidscope-backend/internal/shared/storage/object/s3"
	"vidscope-backend/internal/usage"
	"vidscope-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	MediaRepo    media.Repo
	AnalysesRepo analyses.Repo
	UsersRepo    users.Repo

	MediaService    *media.Service
	AnalysesService *analyses.Service
	SessionService  *session.Service
	UsageService    *usage.Service
	UsersService    *users.Service

	CatalogHandler  *catalog.Handler
	MediaHandler    *media.Handler
	AnalysisHandler *analyses.Handler
	SessionHandler  *session.Handler
	UsageHandler    *usage.Handler
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		CatalogHandler:  app.CatalogHandler,
		MediaHandler:    app.MediaHandler,
		AnalysisHandler: app.AnalysisHandler,
		SessionHandler:  app.SessionHandler,
		UsageHandler:    app.UsageHandler,
		UsersHandler:    app.UsersHandler,
		GoogleAuth:      app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("VS_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	var mediaRepo media.Repo
	var analysisRepo analyses.Repo
	var userRepo users.Repo

	if app.DB != nil {
		mediaRepo = &media.PGRepo{DB: app.DB}
		analysisRepo = &analyses.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
	} else {
		mediaRepo = media.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	mediaSvc := &media.Service{
		Store:          app.Store,
		Repo:           mediaRepo,
		MaxUploadBytes: app.Config.MaxUploadBytes,
	}

	latency := time.Duration(app.Config.SimLatencyMs) * time.Millisecond
	analysisSvc := &analyses.Service{
		Repo:      analysisRepo,
		MediaRepo: mediaRepo,
		Caller:    providers.NewSimulator(latency),
		Usage:     usageSvc,
	}
	if app.Queue != nil {
		analysisSvc.Queue = queueEnqueuer{client: app.Queue}
	}

	sessionSvc := &session.Service{
		Analyses: analysisSvc,
		Media:    mediaSvc,
		Usage:    usageSvc,
	}

	userSvc := users.NewService(userRepo)
	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.MediaRepo = mediaRepo
	app.AnalysesRepo = analysisRepo
	app.UsersRepo = userRepo
	app.MediaService = mediaSvc
	app.AnalysesService = analysisSvc
	app.SessionService = sessionSvc
	app.UsageService = usageSvc
	app.UsersService = userSvc
	app.CatalogHandler = catalog.NewHandler(app.Config.ProviderKey)
	app.MediaHandler = media.NewHandler(mediaSvc)
	app.AnalysisHandler = analyses.NewHandler(analysisSvc)
	app.SessionHandler = session.NewHandler(sessionSvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc
}

type queueEnqueuer struct {
	client queue.Client
}

func (q queueEnqueuer) EnqueueAnalysis(ctx context.Context, sessionID, analysisID string) error {
	return q.client.Send(ctx, queue.Message{
		AnalysisID: analysisID,
		SessionID:  sessionID,
		RequestID:  uuid.NewString(),
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	})
}
