// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *App) listCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the registered check types and their configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			meta := a.runner.Registry().Metadata()
			if a.jsonOutput(asJSON) {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tREQUIRED\tOPTIONAL")
			for _, m := range meta {
				fmt.Fprintf(tw, "%s\t%s\t%s\n",
					m.CheckType,
					strings.Join(m.RequiredConfig, ", "),
					strings.Join(m.OptionalConfig, ", "),
				)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the metadata as JSON")
	return cmd
}
