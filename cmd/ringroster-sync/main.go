package main

import (
	"context"
	"fmt"
	"os"

	"ringroster/internal/platform/config"
	"ringroster/internal/platform/logger"
	"ringroster/internal/synccli"
)

func main() {
	// stdout carries the views, logs go to stderr
	opt := logger.FromEnv()
	opt.Writer = os.Stderr
	if opt.Service == "" {
		opt.Service = "ringroster-sync"
	}
	logger.Init(opt)
	if err := synccli.NewRootCommand(config.New()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
