// Command bengreen runs the named probes in order, or lists every probe when
// called without arguments.
//
// Exit status is 0 after a normal run, including runs where probes failed,
// and 1 as soon as a name is not recognised. Every argument is a probe name;
// there are no flags, and the optional YAML config is named by
// BENGREEN_CONFIG. The page_fault probe crashes the process on purpose unless
// FAULT_MODE=trap.
package main

import (
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/bengreen/internal/config"
	"github.com/hamed0406/bengreen/internal/cycles"
	"github.com/hamed0406/bengreen/internal/dispatch"
	"github.com/hamed0406/bengreen/internal/logging"
	"github.com/hamed0406/bengreen/internal/notify"
	"github.com/hamed0406/bengreen/internal/probe"
	"github.com/hamed0406/bengreen/internal/registry"
	"github.com/hamed0406/bengreen/internal/report"
)

func main() {
	code := dispatch.ExitOK
	cmd := newRootCmd(os.Stdout, &code)
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}

func newRootCmd(out io.Writer, code *int) *cobra.Command {
	return &cobra.Command{
		Use:   "bengreen [probe...]",
		Short: "Run operating system probes",
		Args:  cobra.ArbitraryArgs,
		// "--help" or "-x" are names like any other and must be reported
		// as not found.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(os.Getenv("BENGREEN_CONFIG"))
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogDir)
			if err != nil {
				return err
			}
			defer logger.Sync()

			d := newDispatcher(cfg, logger, out)
			logger.Info("run_start",
				zap.Strings("probes", args),
				zap.String("cycle_source", cycles.Source()),
			)
			*code = d.Run(args)
			logger.Info("run_done", zap.Int("exit", *code))
			return nil
		},
	}
}

func newDispatcher(cfg config.Config, logger *zap.Logger, out io.Writer) *dispatch.Dispatcher {
	probes := probe.Defaults(probe.Deps{Out: out, Config: cfg.Probes})
	reg := probe.Register(registry.NewBuilder(), probes...).MustBuild()

	d := dispatch.New(logger, reg, report.New(cfg.Label, out))
	d.Notifier = notify.New(cfg.SlackWebhook)
	return d
}
