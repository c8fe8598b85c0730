package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/costwatch/costwatch/pkg/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load cost observations from a CSV export",
	Long: `Load raw daily cost observations into the telemetry store from a CSV
file with columns: resource_id, date (YYYY-MM-DD), cost. A header row is
skipped if present.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("file", "f", "", "CSV file with cost observations")
	ingestCmd.Flags().StringP("subscription", "s", "", "Subscription id the observations belong to")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("subscription")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, _ := cmd.Flags().GetString("file")
	subscription, _ := cmd.Flags().GetString("subscription")

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open observations file: %w", err)
	}
	defer f.Close()

	observations, err := parseObservations(f, subscription)
	if err != nil {
		return err
	}
	if len(observations) == 0 {
		return fmt.Errorf("no observations found in %s", path)
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveObservations(cmd.Context(), observations); err != nil {
		return fmt.Errorf("save observations: %w", err)
	}

	fmt.Printf("Ingested %d observations for subscription %s\n", len(observations), subscription)
	return nil
}

// parseObservations reads resource_id,date,cost rows. A leading header row
// is detected by its first column name and skipped.
func parseObservations(r io.Reader, subscription string) ([]model.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	var observations []model.Observation
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if line == 1 && row[0] == "resource_id" {
			continue
		}

		date, err := time.ParseInLocation("2006-01-02", row[1], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, row[1], err)
		}
		cost, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cost %q: %w", line, row[2], err)
		}
		if cost < 0 {
			return nil, fmt.Errorf("line %d: cost must be non-negative", line)
		}

		observations = append(observations, model.Observation{
			ResourceID:     row[0],
			SubscriptionID: subscription,
			Date:           date,
			Cost:           cost,
		})
	}
	return observations, nil
}
