package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rmCmd represents the rm command
var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		rs, err := openStore()
		if err != nil {
			return err
		}

		if _, err := rs.Delete(name); err != nil {
			return err
		}
		fmt.Printf("Deleted %q\n", name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
