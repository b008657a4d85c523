package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vbartonek/face-attendance/internal/config"
	"github.com/vbartonek/face-attendance/internal/match"
)

var identifyCmd = &cobra.Command{
	Use:   "identify <file>",
	Short: "Identify a probe against the gallery",
	Long: `Identify a probe landmark set against the enrolled gallery.

The argument names a landmark JSON file, or an image when --detect is set.
With --all the full per-person ranking is printed instead of just the
decision.

Example:
  face-attendance identify probe.json
  face-attendance identify --detect --gallery faces.json visitor.jpg
  face-attendance identify --all probe.json`,
	Args: cobra.ExactArgs(1),
	RunE: runIdentify,
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().String("gallery", "", "Match against a gallery export file instead of the database")
	identifyCmd.Flags().Float64("threshold", 0, "Acceptance threshold override")
	identifyCmd.Flags().Bool("detect", false, "Treat the argument as an image and extract landmarks via the detector")
	identifyCmd.Flags().Bool("all", false, "Print the full per-person ranking")
	identifyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runIdentify(cmd *cobra.Command, args []string) error {
	galleryFile := mustGetString(cmd, "gallery")
	threshold := mustGetFloat64(cmd, "threshold")
	detect := mustGetBool(cmd, "detect")
	showAll := mustGetBool(cmd, "all")
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

	entries, err := b.store.ListEntries(ctx)
	if err != nil {
		return fmt.Errorf("listing gallery entries: %w", err)
	}

	matcher, err := newMatcher(cfg, threshold, log)
	if err != nil {
		return err
	}

	if showAll {
		return printRanking(matcher.Rank(probe, entries), jsonOutput)
	}

	outcome := matcher.Identify(probe, entries)
	if jsonOutput {
		return outputJSON(outcome)
	}
	printOutcome(outcome)
	return nil
}

func printOutcome(out match.Outcome) {
	if !out.Matched {
		fmt.Printf("No match (best confidence %.3f, %d candidate(s) evaluated)\n", out.Confidence, out.Evaluated)
		return
	}
	fmt.Printf("Matched: %s (%s)\n", out.DisplayName, out.PersonID)
	fmt.Printf("  Confidence: %.3f\n", out.Confidence)
	fmt.Printf("  Best sample: %s\n", out.BestCandidate)
	fmt.Printf("  Candidates evaluated: %d\n", out.Evaluated)
}

// rankingRow is the JSON shape for one ranked person, kept small so the
// output does not carry full landmark sets.
type rankingRow struct {
	PersonID    string  `json:"person_id"`
	DisplayName string  `json:"display_name"`
	FinalScore  float64 `json:"final_score"`
	Votes       int     `json:"votes"`
	Samples     int     `json:"samples"`
	BestSample  string  `json:"best_sample,omitempty"`
}

func printRanking(r match.Ranking, jsonOutput bool) error {
	rows := make([]rankingRow, 0, len(r.Groups))
	for _, g := range r.Groups {
		row := rankingRow{
			PersonID:    g.PersonID,
			DisplayName: g.DisplayName,
			FinalScore:  g.FinalScore,
			Votes:       g.Votes,
			Samples:     g.Samples,
		}
		if g.Best != nil && g.Best.Entry != nil {
			row.BestSample = g.Best.Entry.SampleID
		}
		rows = append(rows, row)
	}

	if jsonOutput {
		return outputJSON(map[string]any{
			"groups":    rows,
			"evaluated": r.Evaluated,
		})
	}

	if len(rows) == 0 {
		fmt.Println("No comparable candidates in the gallery.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERSON\tNAME\tSCORE\tVOTES\tSAMPLES\tBEST")
	fmt.Fprintln(w, "------\t----\t-----\t-----\t-------\t----")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%d\t%d\t%s\n",
			row.PersonID, row.DisplayName, row.FinalScore, row.Votes, row.Samples, row.BestSample)
	}
	w.Flush()

	fmt.Printf("\nEvaluated %d candidate(s)\n", r.Evaluated)
	return nil
}
