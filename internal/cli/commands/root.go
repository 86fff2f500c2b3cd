package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/semadox/odoo-ninja/internal/cli/entity"
	"github.com/semadox/odoo-ninja/internal/config"
)

// ErrUsage marks errors caused by invalid arguments; Dispatch exits with 2 for them.
var ErrUsage = errors.New("usage")

// Out и Err: общие writers для вывода CLI. В тестах переназначаются.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// In is read for the password prompt.
var In *os.File = os.Stdin

type usageError struct{ msg string }

func (e *usageError) Error() string        { return e.msg }
func (e *usageError) Is(target error) bool { return target == ErrUsage }

func usagef(format string, a ...any) error {
	return &usageError{msg: fmt.Sprintf(format, a...)}
}

// Dispatch runs one command line and returns the process exit code:
// 0 on success, 1 on any failure, 2 on invalid usage.
// A nil cfg is loaded from the environment (or --config) on first use.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	rt := newRuntime(cfg, Out, Err, In)
	defer rt.close()

	root := newRootCmd(rt)
	if args == nil {
		args = []string{} // cobra подставляет os.Args для nil
	}
	root.SetArgs(args)
	root.SetOut(Out)
	root.SetErr(Err)

	cmd, err := root.ExecuteContextC(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		fmt.Fprintf(Err, "Error: %v\n", err)
		if cmd == nil {
			cmd = root
		}
		fmt.Fprintf(Err, "Run '%s --help' for usage.\n", cmd.CommandPath())
		return 2
	default:
		fmt.Fprintf(Err, "Error: %v\n", err)
		return 1
	}
}

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "odoo-ninja",
		Short:         "CLI tool for accessing Odoo helpdesk tickets, tasks and projects",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE:          groupHelp,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usagef("%v", err)
	})
	cmd.SetVersionTemplate("odoo-ninja {{.Version}} (built " + BuildDate + ")\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&rt.configPath, "config", "", "path to an env file with ODOO_* settings")
	pf.BoolVar(&rt.noColor, "no-color", false, "Disable colored output for programmatic use")
	pf.BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	for _, k := range entity.All() {
		cmd.AddCommand(newKindCmd(rt, k))
	}
	return cmd
}

// groupHelp prints help for commands that only group subcommands.
// Unknown subcommands and a bare group are usage errors.
func groupHelp(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	_ = cmd.Help()
	return usagef("missing command for %q", cmd.CommandPath())
}

// Version information, set via ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
)
