// Command limg packs, inspects and plays linked image containers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/limg/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	code := cli.Run(ctx, cli.Env{
		In:      os.Stdin,
		Out:     os.Stdout,
		ErrOut:  os.Stderr,
		WorkDir: workDir,
		Environ: os.Environ(),
	}, os.Args[1:])

	stop()
	os.Exit(code)
}
