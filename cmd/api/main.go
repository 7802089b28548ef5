package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/app"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/clock"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/gateway"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/ledger"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/metrics"
	ledgerfile "github.com/whaydenschwartz-lang/SeeAgain/internal/storage/file"
	"github.com/whaydenschwartz-lang/SeeAgain/internal/storage/postgres"
	transporthttp "github.com/whaydenschwartz-lang/SeeAgain/internal/transport/http"
	"github.com/whaydenschwartz-lang/SeeAgain/migrations"
)

const defaultPort = "8080"
const defaultLedgerPath = "data/payments.json"
const defaultMaxPending = 2 * time.Hour
const defaultSweepInterval = 30 * time.Minute
const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	loadEnvFile(logger)

	port := os.Getenv("PORT")
	if port == "" {
		logger.Printf("WARN: PORT not set, using default %s", defaultPort)
		port = defaultPort
	}

	stripeKey := os.Getenv("STRIPE_API_KEY")
	if stripeKey == "" {
		logger.Printf("WARN: STRIPE_API_KEY not set, gateway calls will fail")
	}
	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		logger.Printf("WARN: STRIPE_WEBHOOK_SECRET not set, webhook deliveries will be rejected")
	}

	maxPending := durationEnv(logger, "MAX_PENDING_AUTH", defaultMaxPending)
	sweepInterval := durationEnv(logger, "SWEEP_INTERVAL", defaultSweepInterval)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var store ledger.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(startupCtx, dbURL)
		if err != nil {
			log.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(startupCtx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		if err := migrations.Apply(startupCtx, pool); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		store = postgres.NewStore(pool)
	} else {
		ledgerPath := os.Getenv("LEDGER_PATH")
		if ledgerPath == "" {
			logger.Printf("WARN: DATABASE_URL and LEDGER_PATH not set, using default ledger file %s", defaultLedgerPath)
			ledgerPath = defaultLedgerPath
		}
		fileStore, err := ledgerfile.Open(ledgerPath, logger)
		if err != nil {
			log.Fatalf("open ledger: %v", err)
		}
		store = fileStore
	}

	gw := gateway.NewClient(stripeKey)
	reconciler := app.NewReconciler(store, gw, clock.NewSystem(), app.WithLogger(logger))
	sweeper := app.NewSweeper(reconciler, store, clock.NewSystem(),
		app.WithSweepInterval(sweepInterval),
		app.WithMaxPending(maxPending),
		app.WithSweeperLogger(logger),
	)

	metrics.Register()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/webhooks/stripe", transporthttp.HandleStripeWebhook(reconciler, webhookSecret, logger))
	mux.Handle("/internal/jobs/", transporthttp.HandleJobOutcome(reconciler))
	mux.Handle("/payments/", transporthttp.HandleGetPayment(store))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(mux, logger)

	server := &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	log.Printf("api listening on :%s (sweep every %s, max pending %s)", port, sweepInterval, maxPending)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}

func durationEnv(logger *log.Logger, key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Printf("WARN: invalid %s=%q, using default %s", key, raw, def)
		return def
	}
	return d
}

func loadEnvFile(logger *log.Logger) {
	path, err := findEnvFile()
	if err != nil {
		logger.Printf("WARN: failed to locate .env: %v", err)
		return
	}
	if path == "" {
		return
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Printf("WARN: failed to open %s: %v", path, err)
		return
	}
	if err := parseEnvFile(logger, file); err != nil {
		logger.Printf("WARN: failed to load %s: %v", path, err)
	} else {
		logger.Printf("loaded env from %s", path)
	}
	_ = file.Close()
}

func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for i := 0; i < 6; i++ {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil
}

func parseEnvFile(logger *log.Logger, file *os.File) error {
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		value = trimQuotes(value)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			logger.Printf("WARN: failed to set %s from env file", key)
		}
	}
	return scanner.Err()
}

func trimQuotes(value string) string {
	if len(value) < 2 {
		return value
	}
	if (value[0] == '"' && value[len(value)-1] == '"') ||
		(value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}
