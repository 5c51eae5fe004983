package props

import (
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/ValentinKolb/propdb/lib/store"
	"github.com/spf13/cobra"
)

var (
	database  *db.DB
	propStore store.IPropStore

	// PropCommands represents the property command group
	PropCommands = &cobra.Command{
		Use:               "prop",
		Short:             "Read and write object properties",
		PersistentPreRunE: setupStore,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands
	PropCommands.AddCommand(getCmd)
	PropCommands.AddCommand(setCmd)
	PropCommands.AddCommand(rmCmd)
	PropCommands.AddCommand(lsCmd)
	PropCommands.AddCommand(treeCmd)
	PropCommands.AddCommand(clearCmd)
	PropCommands.AddCommand(findCmd)
	PropCommands.AddCommand(copyCmd)
	PropCommands.AddCommand(blessCmd)
	PropCommands.AddCommand(perfTestCmd)

	// Add flags
	setCmd.Flags().StringP("type", "t", "string", util.WrapString("Type of the value (string, int, float, ref, lock)"))
	setCmd.Flags().Bool("sync", true, util.WrapString("Mirror the gender property of players onto its legacy alias"))
	rmCmd.Flags().Bool("sync", true, util.WrapString("Mirror the removal of the gender property of players"))
	lsCmd.Flags().String("access", "wizard", util.WrapString("Access level to list with (mortal, owner, wizard)"))
	clearCmd.Flags().Bool("all", false, util.WrapString("Also remove hidden and see-only properties and the reserved '_' directory"))
	blessCmd.Flags().Bool("unbless", false, util.WrapString("Clear the blessed flag instead of setting it"))
}

// setupStore opens the database and its property store
func setupStore(cmd *cobra.Command, _ []string) error {
	var err error
	database, err = util.SetupDB(cmd)
	if err != nil {
		return err
	}
	propStore = database.Store()
	return nil
}
