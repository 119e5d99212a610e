package commands

import (
	"strconv"

	"liftlink-backend/cmd/liftlink-cli/utils"
	"liftlink-backend/lib/sqliteutil"
	"liftlink-backend/services/registry"
	registrydb "liftlink-backend/services/registry/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var athletesDb *string

func init() {
	athletesDb = athletesCmd.Flags().String("registry-db", "registry.db", "The athlete registry database.")
	rootCmd.AddCommand(athletesCmd)
}

var athletesCmd = &cobra.Command{
	Use:   "athletes",
	Short: "Lists every athlete in the registry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := sqliteutil.OpenDB(registrydb.Schema, *athletesDb)
		if err != nil {
			return err
		}
		defer database.Close()

		athletes, err := registry.NewService(database).All(cmd.Context())
		if err != nil {
			return err
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Id", "Name", "Member Id", "Membership No."})
		for _, a := range athletes {
			memberId := ""
			if a.HasStableID {
				memberId = strconv.FormatInt(a.StableID, 10)
			}
			t.AppendRow(table.Row{a.RegistryID, a.DisplayName, memberId, a.MembershipNo})
		}
		t.Render()
		return nil
	},
}
