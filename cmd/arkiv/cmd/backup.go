package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup <destination>",
	Short: "Copy the container to another file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dst := args[0]

		rs, err := openStore()
		if err != nil {
			return err
		}
		if err := rs.Backup(dst); err != nil {
			return err
		}

		fmt.Printf("Backed up %s to %s\n", rs.Config().Path, dst)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
