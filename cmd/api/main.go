package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"intranet-approval/internal/adapter/directory"
	httpadp "intranet-approval/internal/adapter/http"
	authmw "intranet-approval/internal/adapter/middleware"
	"intranet-approval/internal/adapter/notify"
	"intranet-approval/internal/adapter/repository/mysql"
	"intranet-approval/internal/config"
	domainDirectory "intranet-approval/internal/domain/directory"
	domainNotify "intranet-approval/internal/domain/notify"
	"intranet-approval/internal/domain/uow"
	"intranet-approval/internal/infrastructure/cache"
	"intranet-approval/internal/infrastructure/db"
	"intranet-approval/internal/infrastructure/logging"
	"intranet-approval/internal/infrastructure/metrics"
	ucApproval "intranet-approval/internal/usecase/approval"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("mysql connect failed")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Str("db", cfg.MySQLDB).Msg("gorm: connected")

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis connect failed")
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWorkflow(reg)

	dir, static := buildDirectory(cfg, gdb, rdb, log)
	notifier, closeNotifier := buildNotifier(cfg, log)
	dispatcher := notify.NewDispatcher(notifier, cfg.NotifyQueueSize,
		notify.WithDispatchMetrics(m),
		notify.WithDispatchLogger(log.With().Str("component", "notify").Logger()),
	)

	repos := uow.Repos{
		Requests: mysql.NewRequestRepository(gdb),
		Lines:    mysql.NewLineRepository(gdb),
		Audit:    mysql.NewAuditRepository(gdb),
	}
	uc := ucApproval.NewUsecase(repos, mysql.NewGormUoW(gdb), dir, dispatcher,
		ucApproval.WithMetrics(m),
		ucApproval.WithLogger(log.With().Str("component", "approval").Logger()),
	)

	health := httpadp.NewHandler(
		httpadp.Check{Name: "mysql", Probe: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}},
		httpadp.Check{Name: "redis", Probe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Recover(), middleware.RequestID(), requestLogger(log))

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	httpadp.Register(e, health, httpadp.NewApprovalHandler(uc),
		authmw.BearerAuth([]byte(cfg.JWTSecret)),
		authmw.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log.With().Str("component", "idempotency").Logger()),
	)

	go func() {
		addr := ":" + cfg.AppPort
		log.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for s := range sig {
		if s == syscall.SIGHUP {
			reloadDirectory(static, log)
			continue
		}
		log.Info().Str("signal", s.String()).Msg("shutting down")
		break
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// flush queued notifications before the transport goes away
	if err := dispatcher.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("notification queue not drained")
	}
	closeNotifier()
}

// buildDirectory picks the YAML or database directory and puts the Redis
// cache in front when a TTL is configured. The static directory is returned
// separately so SIGHUP can reload it.
func buildDirectory(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, log zerolog.Logger) (domainDirectory.Directory, *directory.StaticDirectory) {
	var (
		src    domainDirectory.Directory
		static *directory.StaticDirectory
	)
	if cfg.DirectoryFile != "" {
		s, err := directory.NewStaticDirectory(cfg.DirectoryFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.DirectoryFile).Msg("load directory file")
		}
		src, static = s, s
		log.Info().Str("file", cfg.DirectoryFile).Msg("directory: static")
	} else {
		src = directory.NewGormDirectory(gdb)
		log.Info().Msg("directory: database")
	}

	if ttl := cfg.DirectoryCacheTTL(); ttl > 0 {
		return directory.NewCached(src, rdb, ttl, log.With().Str("component", "directory").Logger()), static
	}
	return src, static
}

func reloadDirectory(static *directory.StaticDirectory, log zerolog.Logger) {
	if static == nil {
		return
	}
	if err := static.Sync(); err != nil {
		log.Error().Err(err).Msg("directory reload failed; keeping previous actors")
		return
	}
	log.Info().Msg("directory reloaded")
}

func buildNotifier(cfg *config.Config, log zerolog.Logger) (domainNotify.Notifier, func()) {
	nlog := log.With().Str("component", "notify").Logger()
	if cfg.NATSURL == "" {
		log.Info().Msg("notifications: log")
		return notify.NewLogNotifier(nlog), func() {}
	}
	nc, err := notify.ConnectNATS(cfg.NATSURL, nlog)
	if err != nil {
		log.Fatal().Err(err).Str("url", cfg.NATSURL).Msg("nats connect failed")
	}
	log.Info().Str("url", cfg.NATSURL).Msg("notifications: nats")
	return notify.NewNATSNotifier(nc, nlog), func() {
		if err := nc.Drain(); err != nil {
			nlog.Warn().Err(err).Msg("nats drain")
		}
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("actor_id", authmw.ActorID(c)).
				Msg("request")
			return nil
		},
	})
}
