package main

import (
	"context"
	"errors"
	netHttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"catalog-server/internal/adapters/http"
	"catalog-server/internal/adapters/http/middleware"
	"catalog-server/internal/adapters/openlibrary"
	"catalog-server/internal/adapters/ws/userws"
	"catalog-server/internal/adapters/ws/userws/subscribers"
	"catalog-server/internal/application/auth"
	"catalog-server/internal/application/book"
	"catalog-server/internal/application/ownership"
	"catalog-server/internal/application/user"
	"catalog-server/internal/application/workers"
	"catalog-server/internal/config"
	"catalog-server/internal/domain"
	"catalog-server/internal/event"
	"catalog-server/internal/logger"
	"catalog-server/internal/storage/memory"
	"catalog-server/internal/storage/sqlstore"
)

type repositories struct {
	books domain.BookRepository
	users domain.UserRepository
	close func() error
}

func openRepositories(ctx context.Context, cfg *config.Config, log logger.Logger) (*repositories, error) {
	if cfg.DBDriver == config.DriverMemory {
		store := memory.NewStore()
		return &repositories{books: store.Books(), users: store.Users(), close: func() error { return nil }}, nil
	}

	dsn := cfg.DatabaseURL
	if cfg.DBDriver == config.DriverSqlite {
		dsn = sqlstore.SqliteDSN(cfg.DBPath)
	}

	db, err := sqlstore.Open(ctx, cfg.DBDriver, dsn, log)
	if err != nil {
		return nil, err
	}

	return &repositories{books: db.Books(), users: db.Users(), close: db.Close}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logger.New(cfg)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is mandatory")
		os.Exit(1)
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := repos.close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	bus := event.New()
	policy := domain.NewRolePolicy()

	// Services
	authService := auth.NewService(repos.users, auth.Options{
		JWTSecret:  cfg.JWTSecret,
		JWTExpiry:  cfg.JWTExpiry,
		BcryptCost: cfg.BcryptCost,
	}, log)
	lookup := openlibrary.NewClient(cfg.OpenLibraryURL, cfg.OpenLibraryTimeout, log)
	bookService := book.NewService(repos.books, lookup, bus, log)
	userService := user.NewService(repos.users, authService, log)
	ownershipService := ownership.NewService(repos.books, repos.users, bus, log)

	// WebSocket
	wsUserHub := userws.NewHub(ctx, log)
	wsUserHandler := userws.NewHandler(wsUserHub, log, cfg.AllowedOrigins)
	subscribers.Register(bus, wsUserHub)

	// Workers
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	manager := workers.NewManager(workers.NewScheduler(log), log, &workers.ManagerServices{
		Books:   bookService,
		Users:   userService,
		Limiter: limiter,
	})

	router := http.NewRouter(cfg, &http.RouterDeps{
		WsUser:    wsUserHandler,
		Auth:      http.NewAuthHandler(authService, log),
		Book:      http.NewBookHandler(bookService, log),
		User:      http.NewUserHandler(userService, policy, log),
		Ownership: http.NewOwnershipHandler(ownershipService, log),

		AuthService: authService,
		Policy:      policy,
		Limiter:     limiter,
		Log:         log,
	})

	srv := http.NewServer(router, cfg.Address)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsUserHub.Run()
		return nil
	})

	g.Go(func() error {
		manager.Start(gCtx)
		return nil
	})

	g.Go(func() error {
		log.Info("http: starting server", "address", cfg.Address, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, netHttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		wsUserHub.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("http: server error", "error", err)
	}

	log.Info("server stopped")
}
