package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage per-subscription detection profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all loaded detection profiles",
	RunE:  runProfilesList,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesListCmd)
}

func runProfilesList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := initProfiles(cfg)
	if err != nil {
		return err
	}

	ids := registry.List()
	if len(ids) == 0 {
		fmt.Println("No profiles configured. Check profiles directory in config.")
		return nil
	}
	sort.Strings(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SUBSCRIPTION\tZ-SCORE\tMIN COST\tCONFIDENCE\tMIN HISTORY\n")

	for _, id := range ids {
		p, _ := registry.Get(id)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.Subscription,
			formatOverride(p.ZScoreThreshold),
			formatOverride(p.MinCostThreshold),
			formatOverride(p.ConfidenceThreshold),
			formatIntOverride(p.MinHistoryDays),
		)
	}
	w.Flush()

	return nil
}

func formatOverride(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatIntOverride(v int) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", v)
}
