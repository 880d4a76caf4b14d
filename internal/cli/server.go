package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gift-quiz-service/internal/app"
	"gift-quiz-service/internal/config"
	"gift-quiz-service/internal/gate"
	"gift-quiz-service/internal/infra/memory"
	"gift-quiz-service/internal/infra/postgres"
	redisstore "gift-quiz-service/internal/infra/redis"
	"gift-quiz-service/internal/logging"
	transport "gift-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultPublicURL = "http://localhost:8080/"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	configs := configStore(cfg, redisClient, pool, redisTTL)

	var plays app.SessionRepository
	if redisClient != nil {
		plays = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		plays = memory.NewSessionStore()
	}

	publicURL := cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = defaultPublicURL
	}
	service := app.NewQuizService(configs, plays,
		app.WithLogger(logger),
		app.WithLocation(cfg.Location()),
		app.WithShareBaseURL(publicURL),
		app.WithGateOptions(gate.WithInterval(config.TTLDuration(cfg.Quiz.TickInterval, gate.DefaultInterval))),
	)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, logger, cfg.Server.AllowedOrigin),
		ReadTimeout: config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		// WebSocket plays outlive any write deadline the server could impose.
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 0),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting quiz service", slog.String("addr", server.Addr), slog.String("publicUrl", publicURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// configStore layers the configured backends: Postgres is the durable store when
// present, Redis caches it (or is the store itself), and an in-process cache fronts
// Postgres when Redis is absent.
func configStore(cfg config.Config, client *redis.Client, pool *pgxpool.Pool, redisTTL time.Duration) app.ConfigStore {
	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, time.Minute)
	switch {
	case pool != nil && client != nil:
		return redisstore.NewConfigStore(client, postgres.NewConfigStore(pool), redisTTL)
	case pool != nil:
		return memory.NewConfigRepository(postgres.NewConfigStore(pool), cacheTTL)
	case client != nil:
		return redisstore.NewConfigStore(client, nil, 0)
	default:
		return memory.NewConfigStore()
	}
}
