// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli implements the probekit command line.
//
// Exit codes follow the result status: 0 success, 1 warning, 2 error. A
// batch exits with the code of its worst result. Invocation problems such
// as bad flags, unreadable files or unknown check types exit with 3.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/H0llyW00dzZ/probekit/internal/config"
	"github.com/H0llyW00dzZ/probekit/internal/logging"
	"github.com/H0llyW00dzZ/probekit/internal/report"
	"github.com/H0llyW00dzZ/probekit/src/builtin"
	"github.com/H0llyW00dzZ/probekit/src/check"
	"github.com/H0llyW00dzZ/probekit/src/pool"
	"github.com/H0llyW00dzZ/probekit/src/resolver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ExitInvocation is returned for usage and setup errors.
const ExitInvocation = 3

// Option configures an [App].
type Option func(*App)

// WithOutput redirects standard output and standard error.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// WithEntries registers extra check types next to the bundled ones.
func WithEntries(entries ...check.Entry) Option {
	return func(a *App) {
		a.extra = append(a.extra, entries...)
	}
}

// App holds the state shared by the probekit subcommands.
type App struct {
	stdout io.Writer
	stderr io.Writer
	extra  []check.Entry

	configPath string
	logDir     string
	logLevel   string
	noColor    bool

	cfg      *config.Config
	logger   *zap.Logger
	dns      *resolver.Client
	connPool *resolver.ConnPool
	runner   *check.Runner
	exitCode int
}

// New creates an [App].
func New(opts ...Option) *App {
	a := &App{stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Execute runs the command line args and returns the process exit code.
func Execute(ctx context.Context, args []string, opts ...Option) int {
	a := New(opts...)
	defer a.teardown()
	cmd := a.Command()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return ExitInvocation
	}
	return a.exitCode
}

// Command builds the root command.
func (a *App) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probekit",
		Short: "Run health checks against websites, certificates, mail servers and DNS",
		Long: `probekit runs pluggable health checks and reports a success, warning
or error status for each of them.

Built-in check types:
  website_status   HTTP(S) availability, status code and content
  ssl_certificate  certificate expiry, hostname and chain validity
  mail_server      SMTP, IMAP and POP3 reachability, TLS and login
  dns_record       record presence, expected values and propagation

Exit codes: 0 success, 1 warning, 2 error, 3 invocation error.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to the probekit YAML configuration")
	pf.StringVar(&a.logDir, "log-dir", "", "write JSON logs to a rolling file in this directory")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(
		a.runCommand(),
		a.batchCommand(),
		a.listCommand(),
		a.resolversCommand(),
	)
	return cmd
}

// setup loads the configuration and builds the logger, the DNS plumbing
// and the runner. Flags win over the environment and the file.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-dir") {
		cfg.Log.Dir = a.logDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if a.noColor {
		cfg.Output.Color = false
	}
	a.cfg = cfg

	a.logger, err = logging.New(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Console: a.stderr})
	if err != nil {
		return err
	}

	dnsOpts := []resolver.Option{
		resolver.WithTransport(cfg.DNS.Transport),
		resolver.WithTimeout(cfg.DNS.Timeout),
		resolver.WithMaxRetries(cfg.DNS.MaxRetries),
		resolver.WithLogger(a.logger.Named("resolver")),
	}
	if cfg.DNS.Server != "" {
		dnsOpts = append(dnsOpts, resolver.WithServer(cfg.DNS.Server))
	}

	builtinOpts := []builtin.Option{builtin.WithLogger(a.logger)}
	if cfg.DNS.CacheTTL > 0 {
		cache := resolver.NewMemoryCache(cfg.DNS.CacheTTL)
		dnsOpts = append(dnsOpts, resolver.WithCache(cache))
		builtinOpts = append(builtinOpts, builtin.WithDNSCache(cache))
	}
	if cfg.DNS.PoolSize > 0 {
		a.connPool = resolver.NewConnPool(cfg.DNS.Timeout, nil,
			pool.WithMaxActive(cfg.DNS.PoolSize),
			pool.WithLogger(a.logger.Named("pool")),
		)
		dnsOpts = append(dnsOpts, resolver.WithConnPool(a.connPool))
		builtinOpts = append(builtinOpts, builtin.WithConnPool(a.connPool))
	}
	a.dns = resolver.New(dnsOpts...)
	builtinOpts = append(builtinOpts, builtin.WithResolver(a.dns))

	reg := builtin.NewRegistry(builtinOpts...)
	for _, e := range a.extra {
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	a.runner = check.NewRunner(reg,
		check.WithLogger(a.logger.Named("runner")),
		check.WithMaxWorkers(cfg.Workers),
		check.WithBatchTimeout(cfg.BatchTimeout),
	)
	return nil
}

func (a *App) teardown() {
	if a.connPool != nil {
		if err := a.connPool.Close(); err != nil {
			a.logger.Warn("conn_pool_close_failed", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *App) printer() *report.Printer {
	return report.NewPrinter(a.stdout, a.cfg.Output.Color)
}

func (a *App) jsonOutput(flag bool) bool {
	return flag || a.cfg.Output.Format == "json"
}

// unknownType decorates [check.ErrUnknownCheckType] with the known types.
func (a *App) unknownType(err error) error {
	if errors.Is(err, check.ErrUnknownCheckType) {
		return fmt.Errorf("%w (available: %v)", err, a.runner.Registry().Types())
	}
	return err
}
