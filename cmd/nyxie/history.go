package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/waffieu/nyxie/internal/config"
	"github.com/waffieu/nyxie/internal/storage/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <chat-id>",
	Short: "Print a chat's recent archived records",
	Long:  `Reads the unbounded sqlite archive and prints the newest records for one chat, oldest first.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		chatID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid chat id %q: %w", args[0], err)
		}

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}
		appCfg := config.NewAppConfig(ctx)

		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()

		records, err := sqlite.NewArchiveRepo(db).RecentRecords(ctx, chatID, historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no records for this chat")
			return nil
		}

		for _, rec := range records {
			fmt.Printf("%s  %-4s  %s\n", rec.Timestamp.Format(time.DateTime), rec.Speaker, rec.Text)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "number of records to print")
	rootCmd.AddCommand(historyCmd)
}
