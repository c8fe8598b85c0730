package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/costwatch/costwatch/pkg/model"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run anomaly detection over a subscription's cost history",
	Long: `Analyze the recent daily cost history of every resource in a
subscription, flag abnormal days, and report an alert tally per severity.`,
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringP("subscription", "s", "", "Subscription id to analyze")
	detectCmd.Flags().IntP("days", "d", 0, "Lookback window in days (default from config)")
	_ = detectCmd.MarkFlagRequired("subscription")
}

func runDetect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	subscription, _ := cmd.Flags().GetString("subscription")
	days, _ := cmd.Flags().GetInt("days")

	runner, store, err := initRunner(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := runner.Run(cmd.Context(), subscription, days)
	if err != nil {
		return fmt.Errorf("detection run: %w", err)
	}

	fmt.Printf("=== Cost Anomaly Detection ===\n")
	fmt.Printf("Subscription:       %s\n", summary.SubscriptionID)
	fmt.Printf("Lookback window:    %d days\n", summary.LookbackDays)
	fmt.Printf("Resources analyzed: %d\n", summary.ResourcesAnalyzed)
	fmt.Printf("Anomalies detected: %d\n", summary.AnomaliesDetected)
	fmt.Printf("Alerts:             High %d / Medium %d / Low %d\n",
		summary.AlertTally[model.SeverityHigh],
		summary.AlertTally[model.SeverityMedium],
		summary.AlertTally[model.SeverityLow],
	)

	if len(summary.HighSeverity) > 0 {
		fmt.Printf("\nHigh severity anomalies:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  RESOURCE\tDATE\tACTUAL\tEXPECTED\tVARIANCE\tSCORE\tDIRECTION\n")
		for _, rec := range summary.HighSeverity {
			fmt.Fprintf(w, "  %s\t%s\t$%.2f\t$%.2f\t%+.1f%%\t%.2f\t%s\n",
				rec.ResourceID,
				rec.Date.Format("2006-01-02"),
				rec.ActualCost, rec.ExpectedCost,
				rec.VariancePercent, rec.DeviationScore,
				rec.Direction,
			)
		}
		w.Flush()
	}

	return nil
}
