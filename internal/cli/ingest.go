package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	appServices "github.com/yigit/resultsphere/internal/app/services"
	"github.com/yigit/resultsphere/internal/bootstrap"
	"github.com/yigit/resultsphere/internal/config"
	"github.com/yigit/resultsphere/internal/ingestion"
	"github.com/yigit/resultsphere/internal/pkg/helpers"
)

var (
	flagIngestFile     string
	flagIngestSemester string
	flagIngestStore    string
	flagIngestNotify   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a grade sheet PDF for a semester",
	Long:  "Runs the same pipeline as the upload endpoint and prints the run summary. With --store memory nothing is persisted and the computed branch performance is printed too.",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&flagIngestFile, "file", "f", "", "Grade sheet PDF")
	ingestCmd.Flags().StringVarP(&flagIngestSemester, "semester", "s", "", "Semester token, e.g. 1-1")
	ingestCmd.Flags().StringVar(&flagIngestStore, "store", "", "Storage driver: memory, postgres or dynamodb (default from config)")
	ingestCmd.Flags().BoolVar(&flagIngestNotify, "notify", false, "Email every saved student through the configured mail driver")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("semester")
}

func runIngest(cmd *cobra.Command, args []string) error {
	semester, err := ingestion.ParseSemester(flagIngestSemester)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(flagIngestFile)
	if err != nil {
		return fmt.Errorf("read grade sheet: %w", err)
	}

	cfg, lgr, err := loadConfig()
	if err != nil {
		return err
	}
	driver := flagIngestStore
	if driver == "" {
		driver = cfg.Storage.Driver
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), helpers.ParseDuration(cfg.Ingestion.RunTimeout, 10*time.Minute))
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, cfg, driver, lgr)
	if err != nil {
		return err
	}
	defer stores.Close()

	var notifier ingestion.Notifier
	if flagIngestNotify {
		queue := bootstrap.NewMailQueue(cfg, lgr)
		defer func() {
			// Drain on a fresh context: ctx may already be spent by a long run
			closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Minute)
			defer closeCancel()
			if err := queue.Close(closeCtx); err != nil {
				lgr.Warn().Err(err).Msg("Mail queue did not drain")
			}
		}()
		notifier = appServices.NewQueuedNotifier(
			queue,
			appServices.NewResultNotifier(stores.Directory, bootstrap.NewMailSender(cfg, lgr), lgr),
			lgr,
		)
	}

	processor := bootstrap.NewProcessor(cfg, stores, notifier, lgr)
	summary, runErr := processor.ProcessGradeSheet(ctx, data, semester.String())
	if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if driver == config.StoreDriverMemory && summary.StatisticsSaved {
		record, err := stores.Branches.GetBranchPerformance(ctx, semester)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), record)
	}
	return nil
}
