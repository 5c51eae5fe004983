package lock

import (
	"fmt"
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/ValentinKolb/propdb/lib/boolexp"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/spf13/cobra"
)

var (
	database *db.DB

	// LockCommands represents the lock command group
	LockCommands = &cobra.Command{
		Use:   "lock",
		Short: "Perform lock property operations",
	}

	// setCmd represents the set command
	setCmd = &cobra.Command{
		Use:     "set [object] [path] [expression]",
		Short:   "Compile a lock expression and store it",
		Long:    "Compile a lock expression and store it as a lock property. A true lock (the empty expression) removes the property.",
		Args:    cobra.ExactArgs(3),
		PreRunE: setupDB,
		RunE:    runSet,
	}

	// showCmd represents the show command
	showCmd = &cobra.Command{
		Use:     "show [object] [path]",
		Short:   "Print a stored lock expression",
		Args:    cobra.ExactArgs(2),
		PreRunE: setupDB,
		RunE:    runShow,
	}

	// checkCmd represents the check command
	checkCmd = &cobra.Command{
		Use:   "check [expression]",
		Short: "Compile a lock expression and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add subcommands to lock command
	LockCommands.AddCommand(setCmd)
	LockCommands.AddCommand(showCmd)
	LockCommands.AddCommand(checkCmd)
}

// setupDB opens the database
func setupDB(cmd *cobra.Command, _ []string) (err error) {
	database, err = util.SetupDB(cmd)
	return err
}

// runSet handles the set lock command
func runSet(_ *cobra.Command, args []string) error {
	obj, err := util.ParseRef(database, args[0])
	if err != nil {
		return err
	}

	expr, err := boolexp.Parse(args[2])
	if err != nil {
		return fmt.Errorf("failed to compile lock: %v", err)
	}

	// the store owns expr afterwards
	locked, text := !expr.IsTrue(), expr.Unparse()
	if err := database.Store().SetLock(obj, args[1], expr); err != nil {
		return fmt.Errorf("failed to set lock: %v", err)
	}

	fmt.Printf("locked=%v, lock=%s\n", locked, text)
	return util.SaveDB(database)
}

// runShow handles the show lock command
func runShow(_ *cobra.Command, args []string) error {
	defer database.Close()

	obj, err := util.ParseRef(database, args[0])
	if err != nil {
		return err
	}

	l := database.Store().GetLock(obj, args[1])
	if l == nil {
		fmt.Printf("locked=false\n")
		return nil
	}

	fmt.Printf("locked=true, lock=%s\n", l.Unparse())
	return nil
}

// runCheck handles the check lock command
func runCheck(_ *cobra.Command, args []string) error {
	expr, err := boolexp.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid lock: %v", err)
	}
	defer expr.Release()

	fmt.Printf("valid=true, true=%v, size=%d, lock=%s\n", expr.IsTrue(), expr.Size(), expr.Unparse())
	return nil
}
