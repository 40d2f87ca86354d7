package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/verte-zerg/speedtype/internal/cache"
	"github.com/verte-zerg/speedtype/internal/config"
	"github.com/verte-zerg/speedtype/internal/repository"
	"github.com/verte-zerg/speedtype/internal/service"
	"github.com/verte-zerg/speedtype/internal/store"
	"github.com/verte-zerg/speedtype/internal/transport/rest"
)

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

var serveEnvFile string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the score server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveEnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)

	if err := config.LoadDotEnv(serveEnvFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", serveEnvFile, err)
	}
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, closeRepo, err := openUserRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	var leaderboard service.LeaderboardCache
	if cfg.RedisURI != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Printf("failed to close redis: %v", cerr)
			}
		}()
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Println("Connected to Redis")
		leaderboard = cache.NewLeaderboardCache(rdb)
	}

	userService := service.NewUserService(repo, leaderboard)
	if leaderboard != nil {
		n, err := userService.WarmLeaderboard(ctx)
		if err != nil {
			log.Printf("failed to warm leaderboard cache: %v", err)
		} else {
			log.Printf("Leaderboard cache warmed with %d scores", n)
		}
	}

	router := rest.NewRouter(&rest.Container{
		UserService:    userService,
		Prefix:         cfg.Prefix,
		AllowedOrigins: cfg.AllowedOrigins,
		JWTSecret:      []byte(cfg.JWTSecret),
	})
	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set, update route is unauthenticated")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s (store=%s, prefix=%s)", cfg.Port, cfg.Store, cfg.Prefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server exited")
	return nil
}

// openUserRepo connects the configured user store. The returned func releases it.
func openUserRepo(ctx context.Context, cfg config.ServerConfig) (service.UserRepo, func(), error) {
	switch cfg.Store {
	case config.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		closeFn := func() {
			if cerr := client.Disconnect(context.Background()); cerr != nil {
				log.Printf("failed to disconnect MongoDB: %v", cerr)
			}
		}
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx, nil); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		log.Println("Connected to MongoDB")
		repo := repository.NewUserRepo(client.Database(cfg.MongoDB))
		if err := repo.EnsureIndexes(pingCtx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return repo, closeFn, nil
	default:
		st, err := store.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		log.Printf("Using SQLite store at %s", cfg.SQLitePath)
		closeFn := func() {
			if cerr := st.Close(); cerr != nil {
				log.Printf("failed to close db: %v", cerr)
			}
		}
		return st, closeFn, nil
	}
}
