package cache

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/ValentinKolb/propdb/lib/diskbase"
	"github.com/spf13/cobra"
	"os"
)

var (
	database *db.DB
	cache    *diskbase.Cache

	// errNoDiskbase is returned when the database keeps every tree resident
	errNoDiskbase = errors.New("diskbase is disabled, there is no property cache")

	// CacheCommands represents the cache command group
	CacheCommands = &cobra.Command{
		Use:               "cache",
		Short:             "Inspect and drive the diskbase property cache",
		PersistentPreRunE: setupCache,
	}

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Prints the cache report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer database.Close()
			fmt.Print(cache.Display())
			return nil
		},
	}
	fetchCmd = &cobra.Command{
		Use:   "fetch [object] [dir]",
		Short: "Pages in the properties of an object",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer database.Close()
			ref, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			dir := ""
			if len(args) > 1 {
				dir = args[1]
			}
			priority, _ := cmd.Flags().GetBool("priority")

			res := cache.FetchProps(ref, priority, dir)
			state, _ := cache.StateOf(ref)
			fmt.Printf("object=%s, result=%s, state=%s\n", ref, res, state)
			return nil
		},
	}
	stateCmd = &cobra.Command{
		Use:   "state [object]",
		Short: "Prints the cache state of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer database.Close()
			ref, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			state, _ := cache.StateOf(ref)
			pos, written := cache.Position(ref)
			fmt.Printf("object=%s, state=%s, written=%v, offset=%d\n", ref, state, written, pos)
			return nil
		},
	}
	maintainCmd = &cobra.Command{
		Use:   "maintain",
		Short: "Pages in every object and runs housekeeping",
		Long:  "Pages in every object and runs the stale sweep and housekeeping, printing how many objects each kept resident.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer database.Close()
			for _, ref := range database.Refs() {
				cache.FetchProps(ref, false, "")
			}
			before := cache.Info().Loaded
			evicted := database.Maintain()
			fmt.Printf("loaded=%d, evicted=%d, resident=%d\n", before, evicted, cache.Info().Loaded)
			return nil
		},
	}
	metricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "Writes the cache metrics in the Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer database.Close()
			cache.WritePrometheus(os.Stdout)
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	CacheCommands.AddCommand(statsCmd)
	CacheCommands.AddCommand(fetchCmd)
	CacheCommands.AddCommand(stateCmd)
	CacheCommands.AddCommand(maintainCmd)
	CacheCommands.AddCommand(metricsCmd)

	fetchCmd.Flags().Bool("priority", false, util.WrapString("Keep the object resident until it goes stale. Housekeeping only evicts ordinary loaded objects"))
}

// setupCache opens the database and checks that it has a cache
func setupCache(cmd *cobra.Command, _ []string) error {
	var err error
	database, err = util.SetupDB(cmd)
	if err != nil {
		return err
	}
	if cache = database.Cache(); cache == nil {
		_ = database.Close()
		return errNoDiskbase
	}
	return nil
}
