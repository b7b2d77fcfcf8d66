package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/c4sa/Unido-sub000/internal/application"
	"github.com/c4sa/Unido-sub000/internal/config"
	httptransport "github.com/c4sa/Unido-sub000/internal/http"
	"github.com/c4sa/Unido-sub000/internal/notify"
	"github.com/c4sa/Unido-sub000/internal/persistence/sqlite"
	"github.com/c4sa/Unido-sub000/internal/persistence/sqlite/migration"
)

func main() {
	issueToken := flag.String("issue-token", "", "issue a new API token for the user ID, print it and exit")
	revokeToken := flag.String("revoke-token", "", "revoke the API token of the user ID and exit")
	seedPath := flag.String("seed", "", "load users, rooms and meetings from a YAML file before starting")
	flag.Parse()

	bootstrap := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runOptions{issueToken: *issueToken, revokeToken: *revokeToken, seedPath: *seedPath}, os.Stdout, logger); err != nil {
		logger.Error("venued stopped with error", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	issueToken  string
	revokeToken string
	seedPath    string
}

func run(ctx context.Context, cfg config.Config, opts runOptions, stdout io.Writer, logger *slog.Logger) error {
	store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if opts.seedPath != "" {
		written, err := seedFromFile(ctx, store, opts.seedPath)
		if err != nil {
			return err
		}
		logger.Info("seed data loaded", "path", opts.seedPath, "records", written)
	}

	svc := newServices(cfg, store, time.Now, logger)

	if opts.issueToken != "" {
		token, err := svc.auth.IssueToken(ctx, opts.issueToken)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Fprintln(stdout, token)
		return nil
	}

	if opts.revokeToken != "" {
		if err := svc.auth.RevokeToken(ctx, opts.revokeToken); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		fmt.Fprintf(stdout, "token revoked for %s\n", opts.revokeToken)
		return nil
	}

	if cfg.Kafka.Enabled() {
		stopRelay, err := startRelay(cfg, store, logger)
		if err != nil {
			return err
		}
		defer stopRelay()
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newHandler(cfg, svc, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("venue API listening", "addr", server.Addr, "timezone", cfg.Location.String())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

type services struct {
	rooms   *application.RoomService
	booking *application.BookingService
	auth    *application.AuthService
}

func newServices(cfg config.Config, store *sqlite.Store, now func() time.Time, logger *slog.Logger) *services {
	emitter := notify.NewEmitter(store.Notifications, uuid.NewString, now, logger)

	return &services{
		rooms: application.NewRoomServiceWithLogger(newRoomRepositoryAdapter(store.Rooms), uuid.NewString, now, logger),
		booking: application.NewBookingService(application.BookingDeps{
			Rooms:        newRoomRepositoryAdapter(store.Rooms),
			Reservations: newReservationRepositoryAdapter(store.Reservations),
			Meetings:     newMeetingDirectoryAdapter(store.Meetings),
			Users:        newUserDirectoryAdapter(store.Users),
			Notifier:     emitter,
			Policy: application.BookingPolicy{
				Location:         cfg.Location,
				Search:           cfg.SearchPolicy(),
				Grid:             cfg.GridLayout(),
				AllowedDurations: cfg.Policy.AllowedDurations,
			},
			IDGenerator: uuid.NewString,
			Now:         now,
			Logger:      logger,
		}),
		auth: application.NewAuthServiceWithLogger(newCredentialStoreAdapter(store.Users), nil, nil, now, logger),
	}
}

func newHandler(cfg config.Config, svc *services, store *sqlite.Store, logger *slog.Logger) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:        httptransport.NewRoomHandler(svc.rooms, logger),
		Venue:        httptransport.NewVenueHandler(svc.booking, cfg.Location, logger),
		Reservations: httptransport.NewReservationHandler(svc.booking, cfg.Location, time.Now, logger),
		Health:       httptransport.NewHealthHandler(store, logger),
		Authenticate: httptransport.RequireSession(svc.auth, logger),
		Idempotency:  httptransport.Idempotency(cfg.IdempotencyTTL, 0),
		Middleware:   []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
}

// startRelay drains the notification outbox to Kafka on the configured cron
// schedule. The returned function stops the schedule and closes the writer.
func startRelay(cfg config.Config, store *sqlite.Store, logger *slog.Logger) (func(), error) {
	publisher, err := notify.NewKafkaPublisher(notify.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}

	relay := notify.NewRelay(store.Notifications, publisher, notify.RelayConfig{}, time.Now, logger)
	jobs := cron.New()
	if _, err := relay.Schedule(jobs, cfg.Kafka.RelayCron); err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("schedule relay: %w", err)
	}
	jobs.Start()
	logger.Info("notification relay started", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic, "schedule", cfg.Kafka.RelayCron)

	return func() {
		<-jobs.Stop().Done()
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close kafka publisher", "error", err)
		}
	}, nil
}
