package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/gallery/postgres"
	"github.com/vbartonek/face-attendance/internal/notify"
	"github.com/vbartonek/face-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the face attendance API server.
The server exposes the identification and check-in endpoints together
with person, sample and attendance event management.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
}

// initSignatureIndex loads the persisted signature index when one exists,
// otherwise rebuilds it from the gallery.
func initSignatureIndex(ctx context.Context, index *gallery.SignatureIndex, store gallery.Reader, indexPath string) error {
	entries, err := store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("listing gallery entries: %w", err)
	}

	if indexPath != "" {
		if meta, metaErr := gallery.LoadIndexMeta(indexPath); metaErr == nil {
			fmt.Printf("Loading signature index from %s (%d samples)...\n", indexPath, meta.Samples)
			if loadErr := index.Load(indexPath); loadErr != nil {
				fmt.Printf("Warning: failed to load signature index: %v\n", loadErr)
			} else {
				index.RefreshKeys(entries)
				fmt.Printf("Signature index ready with %d samples (persisted to %s)\n", index.Count(), indexPath)
				return nil
			}
		}
	}

	fmt.Printf("Building signature index for %d samples...\n", len(entries))
	index.Rebuild(entries)
	fmt.Printf("Signature index built with %d samples\n", index.Count())
	return nil
}

// saveIndex persists the signature index to disk during shutdown.
func saveIndex(index *gallery.SignatureIndex, path string) {
	if path == "" {
		return
	}
	if err := index.Save(path); err != nil {
		fmt.Printf("Warning: failed to save signature index: %v\n", err)
	} else {
		fmt.Println("Signature index saved to disk")
	}
}

// buildDeduper returns the Redis-backed deduper when REDIS_URL is set. A nil
// return leaves the service on its in-process window.
func buildDeduper(cfg *config.Config) (attendance.Deduper, error) {
	if cfg.Redis.URL == "" {
		return nil, nil
	}
	d, err := attendance.NewRedisDeduper(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	fmt.Printf("Check-in deduplication backed by Redis\n")
	return d, nil
}

// buildNotifier returns the MQTT publisher when MQTT_BROKER is set.
func buildNotifier(cfg *config.Config, log *logrus.Logger) (*notify.MQTT, error) {
	if cfg.MQTT.BrokerURL == "" {
		return nil, nil
	}
	n, err := notify.NewMQTT(notify.Config{
		BrokerURL: cfg.MQTT.BrokerURL,
		Topic:     cfg.MQTT.Topic,
		ClientID:  cfg.MQTT.ClientID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	fmt.Printf("Publishing check-in events to MQTT topic %s\n", cfg.MQTT.Topic)
	return n, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if addr := mustGetString(cmd, "addr"); addr != "" {
		cfg.Web.Addr = addr
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var (
		store   gallery.Store
		events  attendance.EventStore
		closeDB func() error
	)
	if cfg.Database.URL != "" {
		fmt.Printf("Connecting to PostgreSQL database...\n")
		pool, err := postgres.NewPool(pgConfig(cfg.Database), log)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		if err := pool.Migrate(ctx); err != nil {
			_ = pool.Close()
			return fmt.Errorf("applying migrations: %w", err)
		}
		store = postgres.NewStore(pool)
		events = postgres.NewEventRepository(pool)
		closeDB = pool.Close
		fmt.Printf("Using PostgreSQL gallery backend\n")
	} else {
		store = gallery.NewMemory()
		events = attendance.NewMemoryEvents()
		closeDB = func() error { return nil }
		fmt.Printf("Warning: DATABASE_URL not set, using in-memory gallery (lost on exit)\n")
	}
	defer func() { _ = closeDB() }()

	matcher, err := newMatcher(cfg, 0, log)
	if err != nil {
		return err
	}

	snapshot := gallery.NewSnapshot(store, cfg.Attendance.SnapshotTTL)
	index := gallery.NewSignatureIndex()
	if err := initSignatureIndex(ctx, index, store, cfg.Attendance.IndexPath); err != nil {
		return err
	}

	deduper, err := buildDeduper(cfg)
	if err != nil {
		return err
	}
	mqttClient, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}

	deps := attendance.Deps{
		Snapshot: snapshot,
		Matcher:  matcher,
		Events:   events,
		Deduper:  deduper,
		Index:    index,
	}
	if mqttClient != nil {
		deps.Notifier = mqttClient
		defer mqttClient.Close()
	}

	service, err := attendance.NewService(deps, attendance.Config{
		DedupWindow:   cfg.Attendance.DedupWindow,
		ShortlistSize: cfg.Attendance.ShortlistSize,
	}, log)
	if err != nil {
		return fmt.Errorf("building attendance service: %w", err)
	}

	server := web.NewServer(cfg.Web, web.Deps{
		Store:    store,
		Snapshot: snapshot,
		Index:    index,
		Events:   events,
		Service:  service,
	}, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		saveIndex(index, cfg.Attendance.IndexPath)

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance API on %s\n", cfg.Web.Addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
