package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery/postgres"
)

var similarCmd = &cobra.Command{
	Use:   "similar <file>",
	Short: "Find the nearest enrolled samples for a probe",
	Long: `Find the enrolled samples nearest to a probe by signature distance.

The query runs against the pgvector signature column, so it requires the
PostgreSQL backend.

Example:
  face-attendance similar probe.json
  face-attendance similar --detect --k 5 visitor.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().Int("k", 10, "Number of neighbors to return")
	similarCmd.Flags().Bool("detect", false, "Treat the argument as an image and extract landmarks via the detector")
	similarCmd.Flags().Bool("json", false, "Output as JSON")
}

func runSimilar(cmd *cobra.Command, args []string) error {
	k := mustGetInt(cmd, "k")
	detect := mustGetBool(cmd, "detect")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("similar requires the PostgreSQL backend: set DATABASE_URL")
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	probe, err := readProbe(ctx, cfg, args[0], detect, log)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, "", log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	pg, ok := b.store.(*postgres.Store)
	if !ok {
		return errors.New("similar requires the PostgreSQL backend")
	}

	neighbors, err := pg.SimilarSamples(ctx, probe, k)
	if err != nil {
		return fmt.Errorf("querying similar samples: %w", err)
	}

	if jsonOutput {
		type neighborRow struct {
			PersonID string  `json:"person_id"`
			SampleID string  `json:"sample_id"`
			Distance float64 `json:"distance"`
		}
		rows := make([]neighborRow, 0, len(neighbors))
		for _, n := range neighbors {
			rows = append(rows, neighborRow{PersonID: n.PersonID, SampleID: n.SampleID, Distance: n.Distance})
		}
		return outputJSON(rows)
	}

	if len(neighbors) == 0 {
		fmt.Println("No indexed samples in the gallery.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERSON\tSAMPLE\tDISTANCE")
	fmt.Fprintln(w, "------\t------\t--------")
	for _, n := range neighbors {
		fmt.Fprintf(w, "%s\t%s\t%.4f\n", n.PersonID, n.SampleID, n.Distance)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d neighbor(s)\n", len(neighbors))
	return nil
}
