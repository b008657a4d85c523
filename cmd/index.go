package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and rebuild the signature index",
	Long:  `Show the saved signature index. Use the rebuild subcommand to build it from the gallery.`,
	RunE:  runIndexInfo,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the signature index from the gallery",
	Long: `Rebuild the HNSW signature index from every enrolled sample and save
it to disk. The server loads the saved index on startup instead of
rebuilding it.

Example:
  face-attendance index rebuild
  face-attendance index rebuild --gallery faces.json --out faces.idx`,
	RunE: runIndexRebuild,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexRebuildCmd)

	indexCmd.Flags().String("path", "", "Index file to inspect (defaults to HNSW_INDEX_PATH)")

	indexRebuildCmd.Flags().String("out", "", "Index file to write (defaults to HNSW_INDEX_PATH)")
	indexRebuildCmd.Flags().String("gallery", "", "Build from a gallery export file instead of the database")
}

func runIndexInfo(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	path := mustGetString(cmd, "path")
	if path == "" {
		path = cfg.Attendance.IndexPath
	}
	if path == "" {
		return errors.New("no index path configured: set HNSW_INDEX_PATH or pass --path")
	}

	meta, err := gallery.LoadIndexMeta(path)
	if err != nil {
		fmt.Printf("No saved index at %s\n", path)
		return nil
	}

	fmt.Printf("Signature index at %s\n", path)
	fmt.Printf("  Samples: %d\n", meta.Samples)
	fmt.Printf("  Built:   %s\n", meta.BuiltAt.Format(time.RFC3339))
	fmt.Printf("  Version: %d\n", meta.Version)
	return nil
}

func runIndexRebuild(cmd *cobra.Command, args []string) error {
	galleryFile := mustGetString(cmd, "gallery")

	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	out := mustGetString(cmd, "out")
	if out == "" {
		out = cfg.Attendance.IndexPath
	}
	if out == "" {
		return errors.New("no index path configured: set HNSW_INDEX_PATH or pass --out")
	}

	b, err := openBackend(ctx, cfg, galleryFile, log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	entries, err := b.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("listing gallery entries: %w", err)
	}

	index := gallery.NewSignatureIndex()
	index.Rebuild(entries)

	if err := index.Save(out); err != nil {
		return fmt.Errorf("saving signature index: %w", err)
	}

	fmt.Printf("Indexed %d of %d sample(s)\n", index.Count(), len(entries))
	fmt.Printf("Saved signature index to %s\n", out)
	return nil
}
