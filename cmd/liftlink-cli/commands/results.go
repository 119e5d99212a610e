package commands

import (
	"fmt"
	"time"

	"liftlink-backend/cmd/liftlink-cli/utils"
	"liftlink-backend/lib/sqliteutil"
	"liftlink-backend/lib/timezone"
	"liftlink-backend/services/resolver"
	"liftlink-backend/services/results"
	resultsdb "liftlink-backend/services/results/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var resultsListDb *string

func init() {
	resultsListDb = resultsCmd.Flags().String("results-db", "results.db", "The database resolved results were written to.")
	rootCmd.AddCommand(resultsCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results <meet name> <yyyy-mm-dd>",
	Short: "Lists the recorded results of one meet.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, err := time.ParseInLocation("2006-01-02", args[1], timezone.Location)
		if err != nil {
			return fmt.Errorf("bad meet date %q: %w", args[1], err)
		}

		database, err := sqliteutil.OpenDB(resultsdb.Schema, *resultsListDb)
		if err != nil {
			return err
		}
		defer database.Close()

		rows, err := results.NewStore(database).ByMeet(cmd.Context(), resolver.MeetReference{
			Name: args[0],
			Date: date,
		})
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Athlete Id", "Name", "Class", "Bodyweight", "Total", "Strategy"})
		for _, r := range rows {
			t.AppendRow(table.Row{
				r.AthleteID,
				r.RawName,
				r.WeightClass,
				fmt.Sprintf("%.1fkg", r.BodyWeightKg),
				fmt.Sprintf("%.1fkg", r.TotalKg),
				string(r.Strategy),
			})
		}
		t.Render()
		return nil
	},
}
