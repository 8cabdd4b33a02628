// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"github.com/spf13/cobra"
)

type resolverRow struct {
	Server  string  `json:"server"`
	Online  bool    `json:"online"`
	Latency float64 `json:"latency"`
	Error   string  `json:"error,omitempty"`
}

func (a *App) resolversCommand() *cobra.Command {
	var (
		servers   []string
		probeName string
		timeout   time.Duration
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "resolvers",
		Short: "Check the health of the DNS resolvers used for propagation checks",
		Long: `Resolve a probe name on every resolver and report whether it answered
and how long it took. Without --server the public resolver set used by
dns_record propagation checks is tested.

Exits 0 when every resolver is online, 1 when some are offline and 2 when
none answered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.DNS.Timeout
			}
			client := resolver.New(
				resolver.WithTransport(a.cfg.DNS.Transport),
				resolver.WithTimeout(timeout),
				resolver.WithMaxRetries(0),
				resolver.WithProbeName(probeName),
				resolver.WithLogger(a.logger.Named("resolver")),
			)
			statuses, err := client.Status(cmd.Context(), servers...)
			if err != nil {
				return err
			}

			rows := make([]resolverRow, len(statuses))
			online := 0
			for i, st := range statuses {
				rows[i] = resolverRow{Server: st.Server, Online: st.Online, Latency: st.Latency.Seconds()}
				if st.Error != nil {
					rows[i].Error = st.Error.Error()
				}
				if st.Online {
					online++
				}
			}
			switch {
			case online == len(rows):
				a.exitCode = check.StatusSuccess.ExitCode()
			case online > 0:
				a.exitCode = check.StatusWarning.ExitCode()
			default:
				a.exitCode = check.StatusError.ExitCode()
			}

			if a.jsonOutput(asJSON) {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "SERVER\tONLINE\tLATENCY\tERROR")
			for _, r := range rows {
				latency := "-"
				if r.Online {
					latency = fmt.Sprintf("%.1fms", r.Latency*1000)
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", r.Server, r.Online, latency, r.Error)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.stdout, "\n%d of %d resolvers online\n", online, len(rows))
			return err
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&servers, "server", nil, "resolver to test, repeatable or comma separated")
	f.StringVar(&probeName, "probe-name", "google.com", "name resolved on each server")
	f.DurationVar(&timeout, "timeout", 0, "per-server query timeout (default from config)")
	f.BoolVar(&asJSON, "json", false, "print the statuses as JSON")
	return cmd
}
