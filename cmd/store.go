package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/detector"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/gallery/postgres"
	"github.com/vbartonek/face-attendance/internal/landmark"
	"github.com/vbartonek/face-attendance/internal/logging"
	"github.com/vbartonek/face-attendance/internal/match"
)

// newLogger builds the process logger from the environment config.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	log, err := logging.New(logging.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	return log, nil
}

func pgConfig(cfg config.DatabaseConfig) postgres.Config {
	return postgres.Config{
		URL:          cfg.URL,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}
}

// backend bundles the stores a CLI command operates on. File mode keeps
// events in memory only.
type backend struct {
	store  gallery.Store
	events attendance.EventStore
	close  func() error
}

// openBackend returns the configured gallery backend. A --gallery export
// file takes precedence and yields an in-memory copy; otherwise DATABASE_URL
// selects PostgreSQL.
func openBackend(ctx context.Context, cfg *config.Config, galleryFile string, log *logrus.Logger) (*backend, error) {
	if galleryFile != "" {
		exp, err := gallery.ReadFile(galleryFile)
		if err != nil {
			return nil, fmt.Errorf("reading gallery file: %w", err)
		}
		mem := gallery.NewMemory()
		if err := exp.Apply(ctx, mem); err != nil {
			return nil, fmt.Errorf("loading gallery file: %w", err)
		}
		return &backend{
			store:  mem,
			events: attendance.NewMemoryEvents(),
			close:  func() error { return nil },
		}, nil
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("no gallery configured: set DATABASE_URL or pass --gallery")
	}
	pool, err := postgres.NewPool(pgConfig(cfg.Database), log)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}
	return &backend{
		store:  postgres.NewStore(pool),
		events: postgres.NewEventRepository(pool),
		close:  pool.Close,
	}, nil
}

// newMatcher builds the matching engine from config, with an optional
// --threshold override.
func newMatcher(cfg *config.Config, threshold float64, log *logrus.Logger) (*match.Matcher, error) {
	var weights *match.WeightTable
	if cfg.Match.WeightsFile != "" {
		w, err := match.LoadWeights(cfg.Match.WeightsFile)
		if err != nil {
			return nil, fmt.Errorf("loading weight table: %w", err)
		}
		weights = w
	}

	mc := match.Config{
		AcceptThreshold:    cfg.Match.AcceptThreshold,
		VoteThreshold:      cfg.Match.VoteThreshold,
		MinSharedKeyPoints: cfg.Match.MinSharedKeyPoints,
		MinMeshPoints:      cfg.Match.MinMeshPoints,
		Concurrency:        cfg.Match.Concurrency,
	}
	if threshold > 0 {
		mc.AcceptThreshold = threshold
	}
	return match.NewMatcher(mc, weights, log), nil
}

// newDetector builds the landmark detector client from config.
func newDetector(cfg *config.Config, log *logrus.Logger) (*detector.Client, error) {
	if cfg.Detector.URL == "" {
		return nil, errors.New("--detect requires DETECTOR_URL")
	}
	return detector.New(detector.Config{
		URL:     cfg.Detector.URL,
		Timeout: cfg.Detector.Timeout,
	}, log)
}

// detectFile runs the detector over one image file and returns the best face.
func detectFile(ctx context.Context, client *detector.Client, path string) (landmark.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return landmark.Set{}, fmt.Errorf("reading %s: %w", path, err)
	}
	set, err := client.DetectBest(ctx, data)
	if err != nil {
		return landmark.Set{}, fmt.Errorf("detecting landmarks in %s: %w", path, err)
	}
	return set, nil
}

// readLandmarkFile parses a landmark set from a JSON file.
func readLandmarkFile(path string) (landmark.Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return landmark.Set{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var set landmark.Set
	if err := json.Unmarshal(data, &set); err != nil {
		return landmark.Set{}, fmt.Errorf("parsing landmark file %s: %w", path, err)
	}
	if set.IsEmpty() {
		return landmark.Set{}, fmt.Errorf("landmark file %s holds no points", path)
	}
	return set, nil
}

// readProbe loads a probe landmark set from a landmark JSON file, or from an
// image via the detector sidecar when detect is set.
func readProbe(ctx context.Context, cfg *config.Config, path string, detect bool, log *logrus.Logger) (landmark.Set, error) {
	if !detect {
		return readLandmarkFile(path)
	}
	client, err := newDetector(cfg, log)
	if err != nil {
		return landmark.Set{}, err
	}
	return detectFile(ctx, client, path)
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
