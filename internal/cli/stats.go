package cli

import (
	"github.com/spf13/cobra"

	"github.com/yigit/resultsphere/internal/bootstrap"
	"github.com/yigit/resultsphere/internal/ingestion"
)

var (
	flagStatsSemester string
	flagStatsStore    string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the stored branch performance of a semester",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&flagStatsSemester, "semester", "s", "", "Semester token, e.g. 1-1")
	statsCmd.Flags().StringVar(&flagStatsStore, "store", "", "Storage driver: postgres or dynamodb (default from config)")
	_ = statsCmd.MarkFlagRequired("semester")
}

func runStats(cmd *cobra.Command, args []string) error {
	semester, err := ingestion.ParseSemester(flagStatsSemester)
	if err != nil {
		return err
	}

	cfg, lgr, err := loadConfig()
	if err != nil {
		return err
	}
	driver := flagStatsStore
	if driver == "" {
		driver = cfg.Storage.Driver
	}

	stores, err := bootstrap.OpenStores(cmd.Context(), cfg, driver, lgr)
	if err != nil {
		return err
	}
	defer stores.Close()

	record, err := stores.Branches.GetBranchPerformance(cmd.Context(), semester)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), record)
}
