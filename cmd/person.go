package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery"
)

var personCmd = &cobra.Command{
	Use:   "person",
	Short: "List and manage enrolled persons",
	Long:  `List enrolled persons. Use subcommands to inspect or remove them.`,
	RunE:  runPersonList,
}

var personShowCmd = &cobra.Command{
	Use:   "show <person-id>",
	Short: "Show a person and their samples",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonShow,
}

var personRemoveCmd = &cobra.Command{
	Use:   "remove <person-id>...",
	Short: "Remove persons and all their samples",
	Long: `Remove one or more persons together with all their samples.

Example:
  face-attendance person remove anna
  face-attendance person remove --gallery faces.json anna marek`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPersonRemove,
}

func init() {
	rootCmd.AddCommand(personCmd)
	personCmd.AddCommand(personShowCmd)
	personCmd.AddCommand(personRemoveCmd)

	// List flags
	personCmd.Flags().String("search", "", "Filter by display name (diacritic-insensitive)")
	personCmd.Flags().String("gallery", "", "Read from a gallery export file instead of the database")
	personCmd.Flags().Bool("json", false, "Output as JSON")

	// Show flags
	personShowCmd.Flags().String("gallery", "", "Read from a gallery export file instead of the database")
	personShowCmd.Flags().Bool("json", false, "Output as JSON")

	// Remove flags
	personRemoveCmd.Flags().String("gallery", "", "Remove from a gallery export file instead of the database")
	personRemoveCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func runPersonList(cmd *cobra.Command, args []string) error {
	search := mustGetString(cmd, "search")
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

	persons, err := b.store.ListPersons(ctx)
	if err != nil {
		return fmt.Errorf("listing persons: %w", err)
	}

	if search != "" {
		var filtered []gallery.Person
		for _, p := range persons {
			if gallery.MatchesName(p.DisplayName, search) {
				filtered = append(filtered, p)
			}
		}
		persons = filtered
	}

	if jsonOutput {
		return outputJSON(persons)
	}

	if len(persons) == 0 {
		fmt.Println("No persons found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSAMPLES\tENROLLED")
	fmt.Fprintln(w, "--\t----\t-------\t--------")
	for _, p := range persons {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.DisplayName, p.SampleCount, p.CreatedAt.Format("2006-01-02"))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d person(s)\n", len(persons))
	return nil
}

func runPersonShow(cmd *cobra.Command, args []string) error {
	personID := args[0]
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

	person, err := b.store.GetPerson(ctx, personID)
	if err != nil {
		return fmt.Errorf("loading person %s: %w", personID, err)
	}
	entries, err := b.store.EntriesByPerson(ctx, personID)
	if err != nil {
		return fmt.Errorf("loading samples for %s: %w", personID, err)
	}

	if jsonOutput {
		type sampleRow struct {
			SampleID   string  `json:"sample_id"`
			KeyPoints  int     `json:"key_points"`
			MeshPoints int     `json:"mesh_points"`
			Quality    float64 `json:"quality"`
			SourceTag  string  `json:"source_tag,omitempty"`
		}
		rows := make([]sampleRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, sampleRow{
				SampleID:   e.SampleID,
				KeyPoints:  len(e.Landmarks.KeyPoints),
				MeshPoints: len(e.Landmarks.MeshPoints),
				Quality:    e.Landmarks.Quality,
				SourceTag:  e.Landmarks.SourceTag,
			})
		}
		return outputJSON(map[string]any{"person": person, "samples": rows})
	}

	fmt.Printf("%s (%s)\n", person.DisplayName, person.ID)
	fmt.Printf("Enrolled: %s\n\n", person.CreatedAt.Format("2006-01-02 15:04:05"))

	if len(entries) == 0 {
		fmt.Println("No samples enrolled.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SAMPLE\tKEYPOINTS\tMESH\tQUALITY\tSOURCE")
	fmt.Fprintln(w, "------\t---------\t----\t-------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%s\n",
			e.SampleID, len(e.Landmarks.KeyPoints), len(e.Landmarks.MeshPoints),
			e.Landmarks.Quality, e.Landmarks.SourceTag)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d sample(s)\n", len(entries))
	return nil
}

func runPersonRemove(cmd *cobra.Command, args []string) error {
	galleryFile := mustGetString(cmd, "gallery")
	skipConfirm := mustGetBool(cmd, "yes")

	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	var (
		store   gallery.Store
		persist = func() error { return nil }
	)
	if galleryFile != "" {
		store, persist, err = openGalleryFile(ctx, galleryFile)
		if err != nil {
			return err
		}
	} else {
		b, err := openBackend(ctx, cfg, "", log)
		if err != nil {
			return err
		}
		defer func() { _ = b.close() }()
		store = b.store
	}

	// Validate IDs and show what will be removed
	var valid []string
	fmt.Println("Persons to remove:")
	for _, id := range args {
		p, err := store.GetPerson(ctx, id)
		if errors.Is(err, gallery.ErrPersonNotFound) {
			fmt.Printf("  - WARNING: unknown person %s (skipping)\n", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("loading person %s: %w", id, err)
		}
		fmt.Printf("  - %s (%s, %d sample(s))\n", p.DisplayName, p.ID, p.SampleCount)
		valid = append(valid, id)
	}

	if len(valid) == 0 {
		return fmt.Errorf("no persons to remove")
	}

	if !skipConfirm {
		fmt.Printf("\nRemove %d person(s)? [y/N]: ", len(valid))
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	for _, id := range valid {
		if err := store.DeletePerson(ctx, id); err != nil {
			return fmt.Errorf("removing person %s: %w", id, err)
		}
	}
	if err := persist(); err != nil {
		return err
	}

	fmt.Printf("Removed %d person(s).\n", len(valid))
	return nil
}
