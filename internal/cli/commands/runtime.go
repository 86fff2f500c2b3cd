package commands

import (
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semadox/odoo-ninja/internal/cli/bootstrap"
	"github.com/semadox/odoo-ninja/internal/cli/display"
	"github.com/semadox/odoo-ninja/internal/cli/service"
	"github.com/semadox/odoo-ninja/internal/config"
)

// runtime holds global flags and lazily opened dependencies of one Dispatch call.
type runtime struct {
	cfg        *config.Config
	configPath string
	noColor    bool
	verbose    bool

	out   io.Writer
	err   io.Writer
	stdin *os.File

	log     *zap.SugaredLogger
	svc     service.RecordService
	cleanup func() error
	printer *display.Printer
}

func newRuntime(cfg *config.Config, out, errOut io.Writer, stdin *os.File) *runtime {
	return &runtime{cfg: cfg, out: out, err: errOut, stdin: stdin}
}

// config returns the preloaded config, or loads it when none was given or --config is set.
func (rt *runtime) config() (*config.Config, error) {
	if rt.cfg == nil || (rt.configPath != "" && rt.cfg.LoadedEnvFile != rt.configPath) {
		cfg, err := config.Load(rt.configPath)
		if err != nil {
			return nil, err
		}
		rt.cfg = cfg
	}
	rt.cfg.NoColor = rt.noColor
	rt.cfg.Verbose = rt.verbose
	return rt.cfg, nil
}

// records opens the session on first use.
func (rt *runtime) records() (service.RecordService, error) {
	if rt.svc != nil {
		return rt.svc, nil
	}
	cfg, err := rt.config()
	if err != nil {
		return nil, err
	}
	log, err := bootstrap.NewLogger(cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	rt.log = log
	if err := bootstrap.EnsurePassword(cfg, rt.stdin, rt.err); err != nil {
		return nil, err
	}
	app, cleanup, err := bootstrap.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	rt.svc, rt.cleanup = app.Records, cleanup
	return rt.svc, nil
}

func (rt *runtime) p() *display.Printer {
	if rt.printer == nil {
		rt.printer = display.New(rt.out, rt.noColor)
	}
	return rt.printer
}

func (rt *runtime) close() {
	if rt.cleanup != nil {
		_ = rt.cleanup()
	}
	if rt.log != nil {
		_ = rt.log.Sync()
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usagef("%v", err)
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usagef("%v", err)
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usagef("%v", err)
		}
		return nil
	}
}

// parseID parses a positive record id argument.
func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid %s %q: must be a positive integer", what, s)
	}
	return id, nil
}
