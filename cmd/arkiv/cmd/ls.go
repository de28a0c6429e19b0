package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:   "ls [substring]",
	Short: "List record names",
	Long: `List record names in container order. With an argument, only
names containing the substring are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openStore()
		if err != nil {
			return err
		}

		var names []string
		if len(args) == 1 {
			names, err = rs.Search(args[0])
		} else {
			names, err = rs.List()
		}
		if err != nil {
			return err
		}

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
