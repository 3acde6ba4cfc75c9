package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"financeflow/internal/cli"
	"financeflow/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(stderr, "financeflow: %v\n", err)
		return cli.ExitFailure
	}

	logger, err := cli.SetupLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "financeflow: %v\n", err)
		return cli.ExitFailure
	}

	ctx, stop := cli.GracefulShutdown(context.Background(), logger)
	defer stop()

	app, cleanup, err := cli.Bootstrap(ctx, cfg, logger, stdout, stderr)
	if err != nil {
		logger.Error("Failed to initialize", log.FieldOperation, log.OpStartup, log.FieldError, err)
		fmt.Fprintf(stderr, "financeflow: %v\n", err)
		return cli.ExitFailure
	}
	defer cli.RunCleanup(logger, 10*time.Second, cleanup)

	app.Stdin = stdin
	return app.Run(ctx, args)
}
