package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"github.com/wagslane/go-rabbitmq"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	_ "modernc.org/sqlite"

	_ "github.com/Nazarious-ucu/notification-preferences/docs"
	"github.com/Nazarious-ucu/notification-preferences/internal/cache"
	"github.com/Nazarious-ucu/notification-preferences/internal/config"
	"github.com/Nazarious-ucu/notification-preferences/internal/features"
	http2 "github.com/Nazarious-ucu/notification-preferences/internal/handlers/http"
	"github.com/Nazarious-ucu/notification-preferences/internal/metrics"
	"github.com/Nazarious-ucu/notification-preferences/internal/notifier"
	"github.com/Nazarious-ucu/notification-preferences/internal/preferences"
	"github.com/Nazarious-ucu/notification-preferences/internal/producers"
	"github.com/Nazarious-ucu/notification-preferences/internal/repository/sqlite"
	"github.com/Nazarious-ucu/notification-preferences/internal/services/push"
	"github.com/Nazarious-ucu/notification-preferences/migrations"
	"github.com/Nazarious-ucu/notification-preferences/pkg/logger"
)

const (
	timeoutDuration = 5 * time.Second
	serviceName     = "preferences_service"
	healthService   = "notification-preferences"
)

type ServiceContainer struct {
	Sessions    *preferences.Manager
	Producer    *producers.Producer
	Notificator *notifier.Notifier
	GrpcServer  *grpc.Server
	Health      *health.Server

	Router     *gin.Engine
	Srv        *http.Server
	Db         *sql.DB
	Redis      *redis.Client
	RabbitConn *rabbitmq.Conn
	Publisher  *rabbitmq.Publisher
	fileLogger *zap.Logger
	M          *metrics.Metrics
}

type App struct {
	cfg config.Config
	l   zerolog.Logger
}

func New(cfg config.Config, logger zerolog.Logger) *App {
	logger = logger.With().Str("service", "preferences-service").Logger()
	return &App{cfg: cfg, l: logger}
}

// Start wires the service, serves HTTP and gRPC and blocks until ctx is done.
func (a *App) Start(ctx context.Context) error {
	srv, err := a.init(ctx)
	if err != nil {
		return err
	}

	if err := srv.Notificator.Start(ctx); err != nil {
		a.stop(srv)
		return err
	}

	errCh := make(chan error, 2)

	go func() {
		lc := net.ListenConfig{}
		lis, err := lc.Listen(ctx, "tcp", a.cfg.GrpcAddress())
		if err != nil {
			errCh <- fmt.Errorf("grpc listen: %w", err)
			return
		}
		a.l.Info().Str("grpc_addr", a.cfg.GrpcAddress()).Msg("gRPC server running")
		if err := srv.GrpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	go func() {
		a.l.Info().Str("http_addr", a.cfg.ServerAddress()).Msg("HTTP server listening")
		if err := srv.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	srv.Health.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		a.l.Info().Msg("Shutdown signal received")
	case err = <-errCh:
		a.l.Error().Err(err).Msg("server error")
	}

	a.stop(srv)
	return err
}

func (a *App) stop(srv ServiceContainer) {
	a.l.Info().Msg("Stopping application")

	srv.Health.Shutdown()
	srv.Notificator.Stop()

	srv.GrpcServer.GracefulStop()
	a.l.Info().Msg("gRPC server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()
	if err := srv.Srv.Shutdown(ctx); err != nil {
		a.l.Error().Err(err).Msg("HTTP shutdown error")
	} else {
		a.l.Info().Msg("HTTP server stopped")
	}

	srv.Publisher.Close()
	if err := srv.RabbitConn.Close(); err != nil {
		a.l.Error().Err(err).Msg("RabbitMQ close error")
	}

	if err := srv.Redis.Close(); err != nil {
		a.l.Error().Err(err).Msg("Redis close error")
	}

	if err := srv.Db.Close(); err != nil {
		a.l.Error().Err(err).Msg("Database close error")
	} else {
		a.l.Info().Msg("Database closed")
	}

	if err := srv.fileLogger.Sync(); err != nil {
		a.l.Warn().Err(err).Msg("failed to sync access log")
	}

	a.l.Info().Msg("Application shutdown complete")
}

func (a *App) init(ctx context.Context) (ServiceContainer, error) {
	a.l.Info().
		Str("http_addr", a.cfg.ServerAddress()).
		Str("db", a.cfg.DB.Source).
		Msg("Initializing application")

	weeklyDay, err := a.cfg.Notifier.Weekday()
	if err != nil {
		return ServiceContainer{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, timeoutDuration)
	defer cancel()
	db, err := CreateSqliteDb(dbCtx, a.cfg.DB.Driver, a.cfg.DB.Source)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("open db: %w", err)
	}
	if err := InitSqliteDb(db, a.cfg.DB.Dialect, a.l); err != nil {
		return ServiceContainer{}, fmt.Errorf("migrate db: %w", err)
	}

	m := metrics.NewMetrics(serviceName, db, a.cfg.DB.Source)

	accessLog, err := logger.NewFileLogger(a.cfg.AccessLogPath)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("access log: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err := redisClient.Ping(dbCtx).Err(); err != nil {
		a.l.Warn().Err(err).Str("addr", a.cfg.Redis.Addr).Msg("Redis is not reachable, alert flags will use defaults")
	}
	flags := cache.NewMetricsDecorator(cache.NewRedisFlagStore(redisClient, a.l), m)

	rabbitConn, err := a.setupConn()
	if err != nil {
		return ServiceContainer{}, err
	}
	publisher, err := a.setupPublisher(rabbitConn)
	if err != nil {
		return ServiceContainer{}, err
	}
	producer := producers.NewProducer(publisher, a.l, m)
	analytics := producers.NewBreakerEmitter("analytics",
		producer,
		a.cfg.Breaker.MaxFailures,
		a.cfg.Breaker.Interval,
		a.cfg.Breaker.Timeout,
	)

	digests := sqlite.NewDigestRepository(db, a.l, m)
	profiles := sqlite.NewProfileRepository(db, a.l, m)
	bridge := push.NewBridge(sqlite.NewPushRepository(db, a.l, m), a.l, m)

	sessions := preferences.NewManager(preferences.Dependencies{
		Digests:   digests,
		Profiles:  profiles,
		Analytics: analytics,
		Push:      bridge,
		Flags:     flags,
	}, features.NewResolver(a.cfg.Features.ReminderCouplingRollout, a.cfg.Features.ReminderCouplingForce), a.l, m)

	n := notifier.New(digests, producer, sessions, a.l, notifier.Schedule{
		DueSpec:          a.cfg.Notifier.Spec,
		HousekeepingSpec: a.cfg.Notifier.HousekeepingSpec,
		WeeklyDay:        weeklyDay,
		SessionTTL:       a.cfg.SessionTTL,
	}, m)

	router := gin.New()
	router.Use(gin.Recovery(), m.HTTPMiddleware(), http2.AccessLog(accessLog))

	http2.NewHandler(sessions, a.l, m).Register(router.Group("/api/notifications"))
	router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))
	router.GET("/metrics", gin.WrapH(m.Handler()))

	httpSrv := &http.Server{
		Addr:        a.cfg.ServerAddress(),
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(m.UnaryServerInterceptor()),
		grpc.StreamInterceptor(m.StreamServerInterceptor()),
	)
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	m.InitializeGRPC(grpcServer)

	return ServiceContainer{
		Sessions:    sessions,
		Producer:    producer,
		Notificator: n,
		GrpcServer:  grpcServer,
		Health:      healthSrv,
		Router:      router,
		Srv:         httpSrv,
		Db:          db,
		Redis:       redisClient,
		RabbitConn:  rabbitConn,
		Publisher:   publisher,
		fileLogger:  accessLog,
		M:           m,
	}, nil
}

func CreateSqliteDb(ctx context.Context, driver, name string) (*sql.DB, error) {
	if name == "" {
		return nil, errors.New("database name cannot be empty")
	}
	connectionString := "file:" + name + "?cache=shared&mode=rwc&_pragma=foreign_keys(1)"
	db, err := sql.Open(driver, connectionString)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

// InitSqliteDb applies the embedded migrations.
func InitSqliteDb(db *sql.DB, dialect string, l zerolog.Logger) error {
	l.Info().Str("dialect", dialect).Msg("Applying migrations")
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	return goose.Up(db, ".")
}
