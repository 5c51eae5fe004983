package props

import (
	"fmt"
	"github.com/ValentinKolb/propdb/cmd/util"
	"github.com/ValentinKolb/propdb/lib/boolexp"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/spf13/cobra"
	"strings"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [object] [path]",
		Short: "Reads the property at a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			path := args[1]
			v, ok := propStore.GetValue(obj, path)
			flags := propStore.GetFlags(obj, path)
			fmt.Printf("object=%s, path=%s, found=%v, type=%s, blessed=%v, value=%s\n",
				obj, path, ok, v.Type(), flags.Has(prop.FlagBlessed), v.Format())
			return database.Close()
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [object] [path] [value]",
		Short: "Stores a value at a path (the empty value deletes)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			typeName, _ := cmd.Flags().GetString("type")
			sync, _ := cmd.Flags().GetBool("sync")

			t, err := prop.ParseType(strings.ToLower(typeName))
			if err != nil {
				return err
			}
			v, err := prop.ParseValue(t, args[2], boolexp.ParseLock)
			if err != nil {
				return err
			}
			if err := propStore.Set(obj, args[1], v, sync); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return util.SaveDB(database)
		},
	}
	rmCmd = &cobra.Command{
		Use:   "rm [object] [path]",
		Short: "Removes a property together with its subdirectory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			sync, _ := cmd.Flags().GetBool("sync")
			if err := propStore.Remove(obj, args[1], sync); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return util.SaveDB(database)
		},
	}
	lsCmd = &cobra.Command{
		Use:   "ls [object] [dir]",
		Short: "Lists the properties of a directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			dir := "/"
			if len(args) > 1 {
				dir = args[1]
			}
			accessName, _ := cmd.Flags().GetString("access")
			access, err := util.ParseAccess(accessName)
			if err != nil {
				return err
			}
			for _, path := range propStore.List(obj, dir, access) {
				suffix := ""
				if propStore.IsDir(obj, path) {
					suffix = "/"
				}
				v, _ := propStore.GetValue(obj, path)
				fmt.Printf("%s%s\t%s\t%s\n", path, suffix, v.Type(), v.Format())
			}
			return database.Close()
		},
	}
	treeCmd = &cobra.Command{
		Use:   "tree [object]",
		Short: "Prints every property of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			printDir(obj, "/", 0)
			return database.Close()
		},
	}
	clearCmd = &cobra.Command{
		Use:   "clear [object]",
		Short: "Removes the properties of an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			if err := propStore.RemoveAll(obj, all); err != nil {
				return err
			}
			fmt.Println("cleared successfully")
			return util.SaveDB(database)
		},
	}
	findCmd = &cobra.Command{
		Use:   "find [object] [path]",
		Short: "Searches an object and its containers for a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			v, on := propStore.FindInEnvironment(obj, args[1])
			fmt.Printf("path=%s, found=%v, on=%s, type=%s, value=%s\n",
				args[1], on != prop.Nothing, on, v.Type(), v.Format())
			return database.Close()
		},
	}
	copyCmd = &cobra.Command{
		Use:   "copy [source] [destination]",
		Short: "Replaces the properties of an object by a copy of another's",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			dst, err := util.ParseRef(database, args[1])
			if err != nil {
				return err
			}
			if err := propStore.CopyAll(src, dst); err != nil {
				return err
			}
			fmt.Println("copied successfully")
			return util.SaveDB(database)
		},
	}
	blessCmd = &cobra.Command{
		Use:   "bless [object] [path]",
		Short: "Marks a property as trusted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := util.ParseRef(database, args[0])
			if err != nil {
				return err
			}
			unbless, _ := cmd.Flags().GetBool("unbless")
			if unbless {
				err = propStore.ClearFlags(obj, args[1], prop.FlagBlessed)
			} else {
				err = propStore.SetFlags(obj, args[1], prop.FlagBlessed)
			}
			if err != nil {
				return err
			}
			fmt.Printf("blessed=%v\n", !unbless)
			return util.SaveDB(database)
		},
	}
)

// printDir prints the properties below dir as an indented tree
func printDir(obj prop.DBRef, dir string, depth int) {
	for path := propStore.FirstChild(obj, dir); path != ""; path = propStore.NextChild(obj, path) {
		v, _ := propStore.GetValue(obj, path)
		indent := strings.Repeat("  ", depth)
		if v.Type() == prop.TypeNone {
			fmt.Printf("%s%s/\n", indent, prop.Basename(path))
		} else {
			fmt.Printf("%s%s:%s:%s\n", indent, prop.Basename(path), v.Type(), v.Format())
		}
		if propStore.IsDir(obj, path) {
			printDir(obj, path, depth+1)
		}
	}
}
