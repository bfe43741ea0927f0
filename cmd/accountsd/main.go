// Command accountsd serves the account API over HTTP.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory. Beyond the engine variables read by
// goAccount.LoadConfigFromEnv it needs DATABASE_URI, and uses REDIS_ADDR for
// the refresh registry when set.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/httpapi"
	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/provider/apple"
	"github.com/MrEthical07/goAccount/provider/facebook"
	"github.com/MrEthical07/goAccount/provider/google"
	mongostore "github.com/MrEthical07/goAccount/store/mongo"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type serviceConfig struct {
	Port           string        `env:"PORT" envDefault:"3000"`
	DatabaseURI    string        `env:"DATABASE_URI,required"`
	DatabaseName   string        `env:"DATABASE_NAME" envDefault:"accounts"`
	Collection     string        `env:"DATABASE_COLLECTION" envDefault:"users"`
	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	AllowedOrigins []string      `env:"CORS_ORIGINS" envSeparator:","`
	ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"10s"`
	Development    bool          `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

func main() {
	dotenvErr := godotenv.Load()

	var svc serviceConfig
	if err := env.Parse(&svc); err != nil {
		fmt.Fprintf(os.Stderr, "accountsd: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(svc.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "accountsd: logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if dotenvErr != nil {
		logger.Info("no .env file loaded, relying on process environment")
	}

	if err := run(svc, logger); err != nil {
		logger.Fatal("accountsd stopped", zap.Error(err))
	}
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(svc serviceConfig, logger *zap.Logger) error {
	cfg, err := goAccount.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	for _, w := range cfg.Lint() {
		logger.Warn("config lint", zap.String("code", w.Code), zap.String("detail", w.Message))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(svc.DatabaseURI))
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(closeCtx)
	}()
	if err := client.Ping(connectCtx, nil); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	store := mongostore.New(client.Database(svc.DatabaseName), svc.Collection)
	if err := store.EnsureIndexes(connectCtx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	builder := goAccount.New().
		WithConfig(cfg).
		WithStore(store).
		WithLogger(logger)

	if svc.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: svc.RedisAddr, Password: svc.RedisPassword})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(connectCtx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		builder.WithRedis(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set, refresh registry is process local")
	}

	if cfg.Audit.Enabled {
		builder.WithAuditSink(goAccount.NewZapAuditSink(logger))
	}

	if err := wireVerifiers(builder, cfg.Providers, logger); err != nil {
		return err
	}

	if cfg.Email.ServiceURL != "" {
		sender, err := mailer.New(mailer.Config{BaseURL: cfg.Email.ServiceURL, Timeout: cfg.Email.Timeout})
		if err != nil {
			return err
		}
		builder.WithSender(sender)
	}

	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	opts := httpapi.Options{AllowedOrigins: svc.AllowedOrigins, Logger: logger}
	if cfg.Metrics.Enabled {
		opts.Metrics = prometheus.NewPrometheusExporter(engine).Handler()
	}

	srv := &http.Server{
		Addr:              ":" + svc.Port,
		Handler:           httpapi.NewRouter(engine, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("accountsd listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), svc.ShutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// wireVerifiers registers every provider the environment configures.
// Facebook needs no client id and is always available.
func wireVerifiers(b *goAccount.Builder, cfg goAccount.ProvidersConfig, logger *zap.Logger) error {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	if cfg.AppleAppID != "" {
		v, err := apple.New(apple.Config{
			AppID: cfg.AppleAppID,
			Keys:  apple.RemoteKeys{URL: cfg.AppleKeysURL, Client: httpClient},
		})
		if err != nil {
			return fmt.Errorf("apple verifier: %w", err)
		}
		b.WithVerifier(v)
	} else {
		logger.Info("apple sign-in disabled")
	}

	if cfg.GoogleClientID != "" {
		v, err := google.New(cfg.GoogleClientID, nil)
		if err != nil {
			return fmt.Errorf("google verifier: %w", err)
		}
		b.WithVerifier(v)
	} else {
		logger.Info("google sign-in disabled")
	}

	b.WithVerifier(facebook.New(facebook.Config{
		GraphURL:  cfg.FacebookGraphURL,
		AppSecret: cfg.FacebookAppSecret,
		Client:    httpClient,
	}))
	return nil
}
