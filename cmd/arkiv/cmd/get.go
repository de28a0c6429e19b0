package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	getOut      string
	getShowMeta bool
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Retrieve a record",
	Long: `Retrieve a record's payload. Writes to stdout, or to --out.

Example:
  arkiv get --path ./notes.zip greeting
  arkiv get --path ./notes.zip report --out report.json --show-meta`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		rs, err := openStore()
		if err != nil {
			return err
		}

		rec, err := rs.Get(name)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("record %q not found", name)
		}

		data, err := rec.Raw()
		if err != nil {
			return err
		}
		if !rec.Validate() {
			fmt.Fprintf(os.Stderr, "warning: checksum mismatch for %q (wrong password or corrupted data)\n", name)
		}

		if getOut != "" {
			if err := os.WriteFile(getOut, data, 0644); err != nil {
				return fmt.Errorf("write output file: %w", err)
			}
		} else {
			os.Stdout.Write(data)
		}

		if getShowMeta {
			encoded, err := json.MarshalIndent(rec.Metadata(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%s\n", encoded)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getOut, "out", "o", "", "Write the payload to this file instead of stdout")
	getCmd.Flags().BoolVar(&getShowMeta, "show-meta", false, "Print record metadata to stderr")
}
