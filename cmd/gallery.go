package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/gallery/mariadb"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Show gallery statistics and move data in and out",
	Long:  `Show gallery statistics. Use subcommands to export or import enrollment data.`,
	RunE:  runGalleryStats,
}

var galleryExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the gallery to a JSON file",
	Long: `Export every person and sample to a portable JSON file.

Example:
  face-attendance gallery export faces.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGalleryExport,
}

var galleryImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import persons and samples into the gallery",
	Long: `Import enrollment data into the database gallery.

The argument names a gallery export file. With --legacy-dsn the data comes
from the legacy MariaDB attendance system instead.

Example:
  face-attendance gallery import faces.json
  face-attendance gallery import --legacy-dsn "user:pass@tcp(legacy:3306)/attendance"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGalleryImport,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
	galleryCmd.AddCommand(galleryExportCmd)
	galleryCmd.AddCommand(galleryImportCmd)

	// Stats flags
	galleryCmd.Flags().String("gallery", "", "Read from a gallery export file instead of the database")
	galleryCmd.Flags().Bool("json", false, "Output as JSON")

	// Import flags
	galleryImportCmd.Flags().String("legacy-dsn", "", "Import from the legacy MariaDB system at this DSN")
}

func runGalleryStats(cmd *cobra.Command, args []string) error {
	galleryFile := mustGetString(cmd, "gallery")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, galleryFile, log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	stats, err := b.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("reading gallery stats: %w", err)
	}
	events, err := b.events.CountEvents(ctx)
	if err != nil {
		return fmt.Errorf("counting events: %w", err)
	}

	if jsonOutput {
		return outputJSON(map[string]any{
			"persons": stats.Persons,
			"samples": stats.Samples,
			"events":  events,
		})
	}

	fmt.Printf("Persons: %d\n", stats.Persons)
	fmt.Printf("Samples: %d\n", stats.Samples)
	fmt.Printf("Events:  %d\n", events)
	return nil
}

func runGalleryExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, "", log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	exp, err := gallery.WriteFile(ctx, b.store, args[0])
	if err != nil {
		return fmt.Errorf("exporting gallery: %w", err)
	}

	fmt.Printf("Exported %d person(s) and %d sample(s) to %s\n", len(exp.Persons), len(exp.Entries), args[0])
	return nil
}

// importLegacy copies persons and templates out of the legacy MariaDB system.
func importLegacy(ctx context.Context, store gallery.Store, dsn string) error {
	pool, err := mariadb.NewPool(dsn)
	if err != nil {
		return fmt.Errorf("connecting to legacy database: %w", err)
	}
	defer func() { _ = pool.Close() }()

	persons, err := pool.GetPersons(ctx)
	if err != nil {
		return fmt.Errorf("reading legacy users: %w", err)
	}
	fmt.Printf("Found %d legacy user(s)\n", len(persons))
	for _, p := range persons {
		if err := store.UpsertPerson(ctx, p); err != nil {
			return fmt.Errorf("importing person %s: %w", p.ID, err)
		}
	}

	entries, skipped, err := pool.GetEntries(ctx)
	if err != nil {
		return fmt.Errorf("reading legacy templates: %w", err)
	}
	if skipped > 0 {
		fmt.Printf("Skipped %d legacy template(s) with unreadable landmarks\n", skipped)
	}

	bar := progressbar.NewOptions(len(entries),
		progressbar.OptionSetDescription("Importing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("samples"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	imported := 0
	var failures []string
	for _, e := range entries {
		if err := store.SaveEntry(ctx, e); err != nil {
			failures = append(failures, fmt.Sprintf("%s/%s: %v", e.PersonID, e.SampleID, err))
			_ = bar.Add(1)
			continue
		}
		imported++
		_ = bar.Add(1)
	}
	fmt.Println()

	for _, msg := range failures {
		fmt.Printf("Failed: %s\n", msg)
	}

	fmt.Printf("\nDone! Imported %d person(s) and %d sample(s)\n", len(persons), imported)
	return nil
}

func runGalleryImport(cmd *cobra.Command, args []string) error {
	legacyDSN := mustGetString(cmd, "legacy-dsn")
	if legacyDSN == "" && len(args) == 0 {
		return errors.New("pass an export file or --legacy-dsn")
	}
	if legacyDSN != "" && len(args) > 0 {
		return errors.New("pass either an export file or --legacy-dsn, not both")
	}

	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	b, err := openBackend(ctx, cfg, "", log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	if legacyDSN != "" {
		return importLegacy(ctx, b.store, legacyDSN)
	}

	exp, err := gallery.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading gallery file: %w", err)
	}
	if err := exp.Apply(ctx, b.store); err != nil {
		return fmt.Errorf("importing gallery: %w", err)
	}

	fmt.Printf("Imported %d person(s) and %d sample(s) from %s\n", len(exp.Persons), len(exp.Entries), args[0])
	return nil
}
