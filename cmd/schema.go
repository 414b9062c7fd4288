package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidbridge/vidbridge/protocol"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.Flags().StringP("command", "c", "", "Print the schema of a single command")
	schemaCmd.SetOut(os.Stdout)
}

// schemaCmd prints the JSON schema of the wire format.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the messages exchanged on the channel",
	Run: func(cmd *cobra.Command, args []string) {
		schemas := protocol.Schema()

		var out any = schemas
		if name := lo.Must(cmd.Flags().GetString("command")); name != "" {
			s, ok := schemas[name]
			if !ok {
				handleErr(fmt.Errorf("unknown command %s, expected one of %v", name, lo.Keys(schemas)))
			}
			out = s
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(out))
	},
}
