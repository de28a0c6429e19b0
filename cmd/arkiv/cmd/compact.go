package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// compactCmd represents the compact command
var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rebuild the container",
	Long: `Rewrite the container, dropping unreferenced bytes left behind
by earlier updates and deletes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rs, err := openStore()
		if err != nil {
			return err
		}

		before, err := rs.Size()
		if err != nil {
			return err
		}
		if err := rs.Compact(); err != nil {
			return err
		}
		after, err := rs.Size()
		if err != nil {
			return err
		}

		fmt.Printf("Compacted: %d -> %d bytes\n", before, after)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)
}
