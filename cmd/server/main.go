package main

import (
    "context"
    "errors"
    "log"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/hotel-reservation/internal/config"
    "github.com/iliyamo/hotel-reservation/internal/database"
    "github.com/iliyamo/hotel-reservation/internal/handler"
    "github.com/iliyamo/hotel-reservation/internal/middleware"
    "github.com/iliyamo/hotel-reservation/internal/model"
    "github.com/iliyamo/hotel-reservation/internal/queue"
    "github.com/iliyamo/hotel-reservation/internal/repository"
    "github.com/iliyamo/hotel-reservation/internal/reservation"
    "github.com/iliyamo/hotel-reservation/internal/router"
    "github.com/iliyamo/hotel-reservation/internal/service"
    "github.com/iliyamo/hotel-reservation/internal/utils"
)

func main() {
    config.LoadDotEnv()
    cfg := config.Load()
    cacheCfg := config.LoadCacheConfig()
    rlCfg := config.LoadRateLimitConfig()

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()
    if cfg.AutoMigrate {
        if err := database.Migrate(ctx, db); err != nil {
            log.Fatalf("database: migrate: %v", err)
        }
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    if cfg.StaffEmail != "" {
        seedStaff(ctx, users, cfg)
    }

    pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
    rdb, err := config.NewRedisClient(pingCtx)
    cancelPing()
    if err != nil {
        log.Printf("redis unavailable, cache and rate limiting disabled: %v", err)
    } else {
        defer rdb.Close()
    }

    var events reservation.Notifier = service.LogNotifier{}
    if cfg.EventsEnabled {
        pub := service.NewRabbitPublisher(cfg.RabbitURL, cfg.EventsQueue)
        defer pub.Close()
        events = pub
        go func() {
            err := queue.StartEventConsumer(ctx, queue.ConsumerConfig{
                URL:     cfg.RabbitURL,
                Queue:   cfg.EventsQueue,
                LogPath: cfg.EventLogPath,
            })
            if err != nil && !errors.Is(err, context.Canceled) {
                log.Printf("event-consumer: %v", err)
            }
        }()
    }

    store := repository.NewStore(db)
    manager := reservation.NewManager(store, reservation.Options{
        Location:            cfg.Location(),
        OpTimeout:           cfg.OpTimeout,
        RequireConfirmation: cfg.RequireConfirmation(),
        Notifier: service.Fanout{
            events,
            service.CachePurger{Redis: rdb, Prefix: cacheCfg.AvailabilityPrefix},
        },
    })

    e := echo.New()
    e.HideBanner = true
    e.Validator = handler.NewValidator()
    e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
    e.Use(echomw.Logger())
    e.Use(echomw.Recover())
    e.Use(middleware.NewTokenBucket(rlCfg, rdb))

    router.RegisterPublic(e,
        handler.Health(db),
        handler.NewRoomHandler(store.Rooms, manager),
        middleware.NewRedisCache(cacheCfg, rdb),
        middleware.NewRedisCache(cacheCfg.ForAvailability(), rdb),
    )
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
    router.RegisterGuest(e, handler.NewGuestHandler(manager, store.Res), cfg.JWTSecret,
        middleware.NewTokenBucket(rlCfg.ForWrites(), rdb))
    router.RegisterStaff(e, handler.NewStaffHandler(manager, store.Res, store.Rooms, nil, cfg.Location()), cfg.JWTSecret)

    addr := ":" + cfg.Port
    go func() {
        log.Printf("listening on %s (env=%s, tz=%s)", addr, cfg.Env, cfg.PropertyTZ)
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("shutdown: %v", err)
    }
}

// seedStaff creates the configured STAFF account when it does not exist.
func seedStaff(ctx context.Context, users *repository.UserRepo, cfg config.Config) {
    if err := utils.CheckPassword(cfg.StaffPassword); err != nil {
        log.Printf("seed staff account: %v", err)
        return
    }
    _, err := users.Create(ctx, cfg.StaffEmail, "Front Desk", cfg.StaffPassword, model.RoleStaff, cfg.BcryptCost)
    switch {
    case err == nil:
        log.Printf("seeded staff account %s", cfg.StaffEmail)
    case errors.Is(err, repository.ErrEmailExists):
    default:
        log.Printf("seed staff account: %v", err)
    }
}
