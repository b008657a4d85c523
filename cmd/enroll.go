package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/detector"
	"github.com/vbartonek/face-attendance/internal/gallery"
	"github.com/vbartonek/face-attendance/internal/landmark"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <person-id> <file-or-dir...>",
	Short: "Enroll landmark samples for a person",
	Long: `Enroll one or more landmark samples for a person.

Arguments name landmark JSON files or directories of them. With --detect the
arguments are image files instead and landmarks come from the detector
sidecar. Sample IDs are derived from the file names.

Example:
  face-attendance enroll anna --name "Anna Svobodová" samples/anna/
  face-attendance enroll --detect --gallery faces.json marek marek1.jpg marek2.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Display name for the person (defaults to the person ID)")
	enrollCmd.Flags().Bool("detect", false, "Treat arguments as images and extract landmarks via the detector")
	enrollCmd.Flags().String("gallery", "", "Enroll into a gallery export file instead of the database")
}

// collectSampleFiles expands the path arguments into a flat file list.
// Directories contribute every file with a matching extension.
func collectSampleFiles(paths []string, detect bool) ([]string, error) {
	matches := func(name string) bool {
		ext := strings.ToLower(filepath.Ext(name))
		if detect {
			return ext == ".jpg" || ext == ".jpeg" || ext == ".png"
		}
		return ext == ".json"
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && matches(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cannot walk %s: %w", p, err)
		}
	}
	return files, nil
}

// sampleIDFromPath derives the sample ID from the file name.
func sampleIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// openGalleryFile loads a gallery export into memory, starting empty when the
// file does not exist yet. The returned persist function writes the gallery
// back to the same file.
func openGalleryFile(ctx context.Context, path string) (gallery.Store, func() error, error) {
	mem := gallery.NewMemory()
	if _, err := os.Stat(path); err == nil {
		exp, err := gallery.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading gallery file: %w", err)
		}
		if err := exp.Apply(ctx, mem); err != nil {
			return nil, nil, fmt.Errorf("loading gallery file: %w", err)
		}
	}
	persist := func() error {
		if _, err := gallery.WriteFile(ctx, mem, path); err != nil {
			return fmt.Errorf("writing gallery file: %w", err)
		}
		return nil
	}
	return mem, persist, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	personID := args[0]
	paths := args[1:]
	displayName := mustGetString(cmd, "name")
	detect := mustGetBool(cmd, "detect")
	galleryFile := mustGetString(cmd, "gallery")

	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	files, err := collectSampleFiles(paths, detect)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No sample files found.")
		return nil
	}

	var client *detector.Client
	if detect {
		client, err = newDetector(cfg, log)
		if err != nil {
			return err
		}
	}

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

	// Create or update the person record before attaching samples.
	now := time.Now().UTC()
	person := gallery.Person{ID: personID, DisplayName: displayName, CreatedAt: now, UpdatedAt: now}
	existing, err := store.GetPerson(ctx, personID)
	switch {
	case err == nil:
		person.CreatedAt = existing.CreatedAt
		if person.DisplayName == "" {
			person.DisplayName = existing.DisplayName
		}
	case errors.Is(err, gallery.ErrPersonNotFound):
		if person.DisplayName == "" {
			person.DisplayName = personID
		}
	default:
		return fmt.Errorf("loading person %s: %w", personID, err)
	}
	if err := store.UpsertPerson(ctx, person); err != nil {
		return fmt.Errorf("saving person %s: %w", personID, err)
	}

	fmt.Printf("Enrolling %d sample(s) for %s\n", len(files), person.DisplayName)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("samples"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var failures []string
	enrolled := 0
	for _, file := range files {
		var set landmark.Set
		if detect {
			set, err = detectFile(ctx, client, file)
		} else {
			set, err = readLandmarkFile(file)
		}
		if err != nil {
			failures = append(failures, err.Error())
			_ = bar.Add(1)
			continue
		}

		entry := gallery.Entry{
			PersonID:  personID,
			SampleID:  sampleIDFromPath(file),
			Landmarks: set,
			Metadata:  map[string]string{"file": filepath.Base(file)},
			CreatedAt: time.Now().UTC(),
		}
		if err := store.SaveEntry(ctx, entry); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", file, err))
			_ = bar.Add(1)
			continue
		}
		enrolled++
		_ = bar.Add(1)
	}
	fmt.Println()

	for _, msg := range failures {
		fmt.Printf("Failed: %s\n", msg)
	}
	if enrolled == 0 {
		return errors.New("no samples were enrolled")
	}

	if err := persist(); err != nil {
		return err
	}

	fmt.Printf("\nDone! Enrolled %d sample(s) for '%s'\n", enrolled, person.DisplayName)
	return nil
}
