package cmd

import (
	"fmt"
	"github.com/ValentinKolb/propdb/cmd/cache"
	"github.com/ValentinKolb/propdb/cmd/lock"
	"github.com/ValentinKolb/propdb/cmd/obj"
	"github.com/ValentinKolb/propdb/cmd/props"
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "propdb",
		Short: "object property database",
		Long: fmt.Sprintf(`propdb (v%s)

A hierarchical property database for the objects of a text-based
virtual world, with an optional disk-backed cache (diskbase) that
pages property trees in from the database file on demand.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of propdb",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("propdb v%s\n", Version)
		},
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			conf, err := util.GetConfig()
			if err != nil {
				return err
			}
			fmt.Print(conf.String())
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(props.PropCommands)
	RootCmd.AddCommand(lock.LockCommands)
	RootCmd.AddCommand(obj.ObjectCommands)
	RootCmd.AddCommand(cache.CacheCommands)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupDBFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
