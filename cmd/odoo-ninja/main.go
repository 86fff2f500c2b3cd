package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/semadox/odoo-ninja/internal/cli/commands"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	commands.Version, commands.BuildDate = version, buildDate

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// конфиг загружается лениво: --config известен только после разбора флагов
	exitCode := commands.Dispatch(ctx, nil, os.Args[1:])
	if exitCode == 0 {
		return
	}
	cancel()
	os.Exit(exitCode)
}
