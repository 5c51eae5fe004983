package obj

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/ValentinKolb/propdb/lib/db"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/spf13/cobra"
	"strings"
)

var (
	database *db.DB

	// ObjectCommands represents the object command group
	ObjectCommands = &cobra.Command{
		Use:               "obj",
		Short:             "Manage the objects of the database",
		PersistentPreRunE: setupDB,
	}

	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Creates an object and prints its reference",
		Args:  cobra.ExactArgs(1),
		RunE:  runCreate,
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy [object]",
		Short: "Destroys an object and moves its contents to its location",
		Args:  cobra.ExactArgs(1),
		RunE:  runDestroy,
	}
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the objects",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics about the database as JSON",
		Args:  cobra.NoArgs,
		RunE:  runInfo,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	ObjectCommands.AddCommand(createCmd)
	ObjectCommands.AddCommand(destroyCmd)
	ObjectCommands.AddCommand(listCmd)
	ObjectCommands.AddCommand(infoCmd)

	createCmd.Flags().String("type", "thing", util.WrapString("Type of the object (room, thing, exit, player, program)"))
	createCmd.Flags().String("location", "#-1", util.WrapString("Reference of the object containing the new one"))
	createCmd.Flags().String("owner", "#-1", util.WrapString("Reference of the owner of the new object"))
	listCmd.Flags().String("type", "", util.WrapString("Only list objects of this type"))
}

// setupDB opens the database
func setupDB(cmd *cobra.Command, _ []string) (err error) {
	database, err = util.SetupDB(cmd)
	return err
}

func runCreate(cmd *cobra.Command, args []string) error {
	typeName, _ := cmd.Flags().GetString("type")
	typ, err := db.ParseObjectType(typeName)
	if err != nil {
		return err
	}
	location, err := optionalRef(cmd, "location")
	if err != nil {
		return err
	}
	owner, err := optionalRef(cmd, "owner")
	if err != nil {
		return err
	}

	ref := database.NewObject(args[0], typ, location, owner)
	fmt.Printf("created=%s, type=%s\n", ref, typ)
	return util.SaveDB(database)
}

// optionalRef reads a reference flag; #-1 stands for no object
func optionalRef(cmd *cobra.Command, name string) (prop.DBRef, error) {
	text, _ := cmd.Flags().GetString(name)
	ref, err := prop.ParseDBRef(text)
	if err != nil || ref == prop.Nothing {
		return ref, err
	}
	if _, ok := database.Get(ref); !ok {
		return prop.Nothing, fmt.Errorf("%s %s: %w", name, ref, db.ErrNoSuchObject)
	}
	return ref, nil
}

func runDestroy(_ *cobra.Command, args []string) error {
	ref, err := util.ParseRef(database, args[0])
	if err != nil {
		return err
	}
	if err := database.Destroy(ref); err != nil {
		return err
	}
	fmt.Printf("destroyed=%s\n", ref)
	return util.SaveDB(database)
}

func runList(cmd *cobra.Command, _ []string) error {
	defer database.Close()

	typeName, _ := cmd.Flags().GetString("type")
	var filter *db.ObjectType
	if typeName != "" {
		typ, err := db.ParseObjectType(typeName)
		if err != nil {
			return err
		}
		filter = &typ
	}

	fmt.Printf("%-8s%-9s%-10s%-10s%s\n", "REF", "TYPE", "LOCATION", "OWNER", "NAME")
	for _, ref := range database.Refs() {
		o, ok := database.Get(ref)
		if !ok || (filter != nil && o.Type != *filter) {
			continue
		}
		fmt.Printf("%-8s%-9s%-10s%-10s%s\n", o.Ref, o.Type, o.Location, o.Owner, strings.TrimSpace(o.Name))
	}
	return nil
}

func runInfo(_ *cobra.Command, _ []string) error {
	defer database.Close()

	out, err := json.MarshalIndent(database.Info(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
