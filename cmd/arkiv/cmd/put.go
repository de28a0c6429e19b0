package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arkivdb/arkiv/pkg/record"
)

var (
	putFile   string
	putMeta   []string
	putUpdate bool
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <name> [data]",
	Short: "Store a record",
	Long: `Store a record under the given name. The payload comes from the
second argument, or from --file.

Example:
  arkiv put --path ./notes.zip greeting "hello world"
  arkiv put --path ./notes.zip report --file report.json --meta source=cron`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		var data []byte
		switch {
		case putFile != "":
			var err error
			data, err = os.ReadFile(putFile)
			if err != nil {
				return fmt.Errorf("read payload file: %w", err)
			}
		case len(args) == 2:
			data = []byte(args[1])
		default:
			return fmt.Errorf("no payload: pass data as an argument or use --file")
		}

		meta, err := parseMeta(putMeta)
		if err != nil {
			return err
		}

		rs, err := openStore()
		if err != nil {
			return err
		}

		var rec *record.Record
		if putUpdate {
			rec, err = rs.Update(name, data, meta)
		} else {
			rec, err = rs.Insert(name, data, meta)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Stored %q (%d bytes, checksum %s)\n", name, len(data), rec.Metadata().Checksum())
		return nil
	},
}

// parseMeta turns repeated key=value flags into record metadata.
func parseMeta(pairs []string) (record.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := record.Metadata{}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: want key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}

func init() {
	rootCmd.AddCommand(putCmd)
	putCmd.Flags().StringVarP(&putFile, "file", "f", "", "Read the payload from this file")
	putCmd.Flags().StringArrayVarP(&putMeta, "meta", "m", nil, "Metadata entry as key=value (repeatable)")
	putCmd.Flags().BoolVarP(&putUpdate, "update", "u", false, "Update an existing record instead of inserting")
}
