package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/attendance"
	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/gallery"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin <file>",
	Short: "Record a check-in for a probe",
	Long: `Identify a probe and record an attendance event when it matches.

The argument names a landmark JSON file, or an image when --detect is set.
With --gallery the event is kept in memory only and reported, not stored.

Example:
  face-attendance checkin --source lobby-cam probe.json
  face-attendance checkin --detect visitor.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runCheckin,
}

func init() {
	rootCmd.AddCommand(checkinCmd)

	checkinCmd.Flags().String("source", "cli", "Source tag recorded on the event")
	checkinCmd.Flags().String("gallery", "", "Match against a gallery export file instead of the database")
	checkinCmd.Flags().Float64("threshold", 0, "Acceptance threshold override")
	checkinCmd.Flags().Bool("detect", false, "Treat the argument as an image and extract landmarks via the detector")
	checkinCmd.Flags().Bool("json", false, "Output as JSON")
}

func runCheckin(cmd *cobra.Command, args []string) error {
	source := mustGetString(cmd, "source")
	galleryFile := mustGetString(cmd, "gallery")
	threshold := mustGetFloat64(cmd, "threshold")
	detect := mustGetBool(cmd, "detect")
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	probe, err := readProbe(ctx, cfg, args[0], detect, log)
	if err != nil {
		return err
	}

	b, err := openBackend(ctx, cfg, galleryFile, log)
	if err != nil {
		return err
	}
	defer func() { _ = b.close() }()

	matcher, err := newMatcher(cfg, threshold, log)
	if err != nil {
		return err
	}

	service, err := attendance.NewService(attendance.Deps{
		Snapshot: gallery.NewSnapshot(b.store, cfg.Attendance.SnapshotTTL),
		Matcher:  matcher,
		Events:   b.events,
	}, attendance.Config{
		DedupWindow: cfg.Attendance.DedupWindow,
	}, log)
	if err != nil {
		return fmt.Errorf("building attendance service: %w", err)
	}

	result, err := service.CheckIn(ctx, probe, source)
	if err != nil {
		return fmt.Errorf("recording check-in: %w", err)
	}

	if jsonOutput {
		return outputJSON(result)
	}
	printCheckIn(result, galleryFile != "")
	return nil
}

func printCheckIn(result attendance.CheckInResult, fileMode bool) {
	out := result.Outcome
	if !out.Matched {
		fmt.Printf("No match (best confidence %.3f, %d candidate(s) evaluated)\n", out.Confidence, out.Evaluated)
		return
	}

	fmt.Printf("Matched: %s (%s) with confidence %.3f\n", out.DisplayName, out.PersonID, out.Confidence)
	switch {
	case result.Duplicate:
		fmt.Println("Duplicate check-in, no new event recorded")
	case result.Event != nil:
		fmt.Printf("Recorded event %s at %s\n", result.Event.ID, result.Event.RecordedAt.Format("15:04:05"))
		if fileMode {
			fmt.Println("Note: file gallery mode, the event was not persisted")
		}
	}
}
