package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediahub/domain/repository"
	"mediahub/infrastructure/cache"
	"mediahub/infrastructure/clients"
	"mediahub/infrastructure/clients/douyin"
	"mediahub/infrastructure/clients/stub"
	youtubeclient "mediahub/infrastructure/clients/youtube"
	"mediahub/infrastructure/configuration"
	"mediahub/infrastructure/logger"
	"mediahub/infrastructure/metrics"
	"mediahub/infrastructure/persistence"
	"mediahub/infrastructure/persistence/memory"
	"mediahub/infrastructure/pubsub"
	"mediahub/infrastructure/realtime"
	"mediahub/infrastructure/servicebus"
	"mediahub/infrastructure/utils"
	httpHandler "mediahub/interfaces/http"
	"mediahub/server"
	"mediahub/usecase"

	gpubsub "cloud.google.com/go/pubsub"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"
)

const draftsSQLitePath = "mediahub-drafts.db"

type stores struct {
	accounts     repository.IAccount
	tasks        repository.ITask
	taskAccounts repository.ITaskAccount
	drafts       repository.IDraft
	db           *sql.DB
}

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()

	// OS env wins over config.env, which wins over .env
	configuration.LoadEnvFiles("config.env", ".env")
	configuration.Reload()
	cfg := configuration.C

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := utils.SystemClock{}

	st, err := initStores(clock)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("vendor", cfg.Database.Vendor).Error("Database initialization failed")
		os.Exit(1)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	cacheStore := initCache(ctx, clock)
	registry := initPlatforms(cacheStore, clock)
	m := metrics.New()

	hub := realtime.NewTaskHub()
	sinks := []repository.ITaskEventSink{hub}
	var closers []func(context.Context)

	if audit, client := initAudit(ctx); audit != nil {
		sinks = append(sinks, audit)
		closers = append(closers, func(ctx context.Context) { _ = client.Disconnect(ctx) })
	}
	if publisher := initPubsub(ctx); publisher != nil {
		sinks = append(sinks, publisher)
		closers = append(closers, func(context.Context) { publisher.Stop() })
	}
	if sender := initServiceBus(); sender != nil {
		sinks = append(sinks, sender)
		closers = append(closers, sender.Close)
	}
	events := usecase.NewEventBus(sinks...)

	aggregator := usecase.NewAggregator(st.tasks, st.taskAccounts, events, clock)
	dispatcher := usecase.NewDispatcher(usecase.DispatcherConfig{
		MaxConcurrency: cfg.Dispatcher.MaxConcurrency,
		CallTimeout:    cfg.Dispatcher.UploadTimeout,
	}, registry, st.taskAccounts, aggregator, events, m, clock)
	scheduler := usecase.NewScheduler(st.tasks, st.taskAccounts, st.accounts, dispatcher, events, m, clock, cfg.Scheduler.Interval)

	webhookSecrets := map[string]string{}
	if cfg.Douyin.ClientSecret != "" {
		webhookSecrets[clients.Douyin] = cfg.Douyin.ClientSecret
	}

	taskUsecase := usecase.NewTaskUsecase(st.tasks, st.taskAccounts, st.accounts, registry, dispatcher, events, m, clock)
	accountUsecase := usecase.NewAccountUsecase(st.accounts, registry, clock)
	authUsecase := usecase.NewAuthUsecase(usecase.NewOAuthStateStore(cacheStore, clock), registry, st.accounts, clock)
	shareUsecase := usecase.NewShareUsecase(st.tasks, registry)
	draftUsecase := usecase.NewDraftUsecase(st.drafts)
	webhookUsecase := usecase.NewWebhookUsecase(webhookSecrets, registry, st.tasks, st.taskAccounts, events, m, clock)

	router := server.InitiateRouter(server.Handlers{
		Health:  httpHandler.NewHealthHandler(),
		Task:    httpHandler.NewTaskHandler(taskUsecase, hub),
		Account: httpHandler.NewAccountHandler(accountUsecase, registry),
		Auth:    httpHandler.NewAuthHandler(authUsecase, cfg.App.FrontendURL),
		Share:   httpHandler.NewShareHandler(shareUsecase),
		Draft:   httpHandler.NewDraftHandler(draftUsecase),
		Webhook: httpHandler.NewWebhookHandler(webhookUsecase),
		Metrics: m.Handler(),
	}, cfg.App.SecretKey, cfg.App.CorsOrigins)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return scheduler.Run(ctx)
	})

	g.Go(func() error {
		logger.GetLogger().WithFields(map[string]interface{}{
			"port":      cfg.App.Port,
			"tls":       cfg.App.TLSEnabled,
			"vendor":    cfg.Database.Vendor,
			"platforms": registry.Names(),
		}).Info("Starting application")
		var err error
		if cfg.App.TLSEnabled && cfg.App.TLSCertFile != "" && cfg.App.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.App.TLSCertFile, cfg.App.TLSKeyFile)
		} else {
			if cfg.App.TLSEnabled {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
			}
			err = httpServer.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.GetLogger().Info("Application shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)

		// in-flight publishes get a grace period before being cancelled
		drainCtx, cancelDrain := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelDrain()
		if err := dispatcher.Shutdown(drainCtx); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Dispatcher did not drain in time")
		}
		for _, closeFn := range closers {
			closeFn(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

func initStores(clock utils.Clock) (*stores, error) {
	vendor := configuration.C.Database.Vendor
	if vendor == "memory" {
		s := memory.NewStore(clock)
		drafts, err := initDrafts(vendor, nil)
		if err != nil {
			return nil, err
		}
		return &stores{accounts: s.Accounts(), tasks: s.Tasks(), taskAccounts: s.TaskAccounts(), drafts: drafts}, nil
	}

	var (
		db  *sql.DB
		err error
	)
	dialect := persistence.Dialect(vendor)
	switch dialect {
	case persistence.MSSQL:
		db, err = persistence.NewMSSQLDB()
	case persistence.MySQL:
		db, err = persistence.NewMySQLDB()
	case persistence.Postgres:
		db, err = persistence.NewPostgreSQLDB()
	default:
		return nil, fmt.Errorf("unknown database vendor %q", vendor)
	}
	if err != nil {
		return nil, err
	}
	if err := persistence.EnsureSchema(db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	drafts, err := initDrafts(vendor, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.GetLogger().WithField("vendor", vendor).Info("Database connected.")
	return &stores{
		accounts:     persistence.NewAccountRepository(db, dialect, clock),
		tasks:        persistence.NewTaskRepository(db, dialect, clock),
		taskAccounts: persistence.NewTaskAccountRepository(db, dialect, clock),
		drafts:       drafts,
		db:           db,
	}, nil
}

func initDrafts(vendor string, db *sql.DB) (repository.IDraft, error) {
	path := draftsSQLitePath
	if vendor == "memory" {
		path = ""
	}
	gdb, err := persistence.NewGormDB(vendor, db, path)
	if err != nil {
		return nil, err
	}
	drafts := persistence.NewDraftRepository(gdb)
	if err := drafts.Migrate(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// initCache prefers redis so OAuth state and platform credentials are shared
// across instances.
func initCache(ctx context.Context, clock utils.Clock) repository.ICache {
	rc := configuration.C.RedisClient
	if rc.Host == "" {
		logger.GetLogger().Info("REDIS_HOST not set - using in-process cache")
		return cache.NewMemoryCache(clock)
	}
	client, err := cache.NewCache(ctx, fmt.Sprintf("%s:%s", rc.Host, rc.Port), rc.Username, rc.Password, rc.DB)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - using in-process cache")
		return cache.NewMemoryCache(clock)
	}
	logger.GetLogger().Info("Redis client initialized successfully.")
	return cache.NewRedisCache(client, clock, "mediahub:")
}

func initPlatforms(cacheStore repository.ICache, clock utils.Clock) *clients.Registry {
	cfg := configuration.C
	registry := clients.NewRegistry(stub.New(clients.Kuaishou), stub.New(clients.Xiaohongshu))

	if cfg.DouyinEnabled() {
		registry.Register(douyin.NewClient(douyin.Config{
			ClientKey:     cfg.Douyin.ClientKey,
			ClientSecret:  cfg.Douyin.ClientSecret,
			RedirectURI:   cfg.Douyin.RedirectURI,
			BaseURL:       cfg.Douyin.BaseURL,
			APITimeout:    cfg.Dispatcher.APITimeout,
			UploadTimeout: cfg.Dispatcher.UploadTimeout,
		}, cacheStore, clock))
	} else {
		logger.GetLogger().Info("Douyin credentials not configured - douyin calls will fail as not configured")
		registry.Register(stub.New(clients.Douyin))
	}

	if cfg.YouTubeEnabled() {
		registry.Register(youtubeclient.NewYouTubeClient(&youtubeclient.Config{
			ClientID:      cfg.YouTube.ClientID,
			ClientSecret:  cfg.YouTube.ClientSecret,
			RedirectURL:   cfg.YouTube.RedirectURI,
			Scopes:        cfg.YouTube.Scopes,
			UploadTimeout: cfg.Dispatcher.UploadTimeout,
		}))
	} else {
		logger.GetLogger().Info("YouTube credentials not configured - youtube calls will fail as not configured")
		registry.Register(stub.New(clients.YouTube))
	}
	return registry
}

func initAudit(ctx context.Context) (*persistence.TaskEventAudit, *mongo.Client) {
	mc := configuration.C.Database.Mongo
	if mc.Host == "" {
		return nil, nil
	}
	client, err := persistence.NewMongoDb(mc.Host, mc.Port, mc.User, mc.Password, mc.Name)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without task event audit")
		return nil, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without task event audit")
		_ = client.Disconnect(context.Background())
		return nil, nil
	}
	logger.GetLogger().Info("MongoDB connected successfully")
	return persistence.NewTaskEventAudit(client, mc.Name), client
}

func initPubsub(ctx context.Context) *pubsub.TaskEventPublisher {
	pc := configuration.C.Pubsub
	if pc.ProjectID == "" {
		return nil
	}
	client, err := gpubsub.NewClient(ctx, pc.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
		return nil
	}
	publisher, err := pubsub.NewTaskEventPublisher(ctx, client, pc.Topic)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while resolving PubSub topic")
		_ = client.Close()
		return nil
	}
	return publisher
}

func initServiceBus() *servicebus.TaskEventSender {
	sc := configuration.C.ServiceBus
	if sc.Namespace == "" {
		return nil
	}
	client, err := servicebus.NewClient(sc.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus features")
		return nil
	}
	sender, err := servicebus.NewTaskEventSender(client, sc.Queue)
	if err != nil {
		return nil
	}
	return sender
}
