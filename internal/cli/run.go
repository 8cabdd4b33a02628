// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"github.com/H0llyW00dzZ/probekit/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *App) runCommand() *cobra.Command {
	var (
		file     string
		settings []string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "run <check_type>",
		Short: "Run a single check",
		Example: `  probekit run website_status -s url=https://example.com
  probekit run ssl_certificate -s hostname=example.com -s warning_days=45
  probekit run dns_record -s domain=example.com -s record_type=MX --json
  probekit run mail_server -f smtp.yaml -s use_tls=true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(file, settings)
			if err != nil {
				return err
			}

			checkType := args[0]
			res, err := a.runner.Run(cmd.Context(), checkType, cfg)
			if err != nil {
				return a.unknownType(err)
			}
			a.logger.Debug("check_finished",
				zap.String("check_type", checkType),
				zap.Stringer("status", res.Status()),
				zap.Duration("response_time", res.ResponseTime()),
			)

			a.exitCode = res.Status().ExitCode()
			if a.jsonOutput(asJSON) {
				return report.WriteResultJSON(a.stdout, res)
			}
			return a.printer().Result(checkType, res)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "YAML file with the check configuration")
	f.StringArrayVarP(&settings, "set", "s", nil, "configuration key=value, repeatable; wins over --file")
	f.BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
