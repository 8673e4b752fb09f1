package main

import (
	"context"
	"fmt"
	"os"

	"budgetviz/internal/cli"
	"budgetviz/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, os.Stderr, log.ComponentCLI)

	ctx := context.Background()
	svc, backend, err := cli.OpenService(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "budgetctl: %v\n", err)
		os.Exit(1)
	}

	err = cli.NewRootCommand(svc).ExecuteContext(ctx)
	if cerr := backend.Close(); cerr != nil {
		logger.Warn("Backend cleanup failed", log.FieldError, cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "budgetctl: %v\n", err)
		os.Exit(1)
	}
}
