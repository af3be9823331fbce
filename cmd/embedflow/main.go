package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/google/gops/agent"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"

	"github.com/viant/embedflow/service"
)

const (
	envDebugSleep = "EMBEDFLOW_DEBUG_SLEEP"
	envVerbose    = "EMBEDFLOW_VERBOSE"
)

func main() {
	startGops()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep()

	logger := stdr.New(log.New(os.Stderr, "", log.LstdFlags))
	stdr.SetVerbosity(verbosityFromEnv(os.LookupEnv))
	if err := run(ctx, os.Stdout, logger, os.LookupEnv); err != nil {
		fmt.Fprintf(os.Stderr, "embedflow: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// run loads the configuration, runs the demo pipeline and prints the ranking.
// Errors are *service.StageError values naming the failed stage.
func run(ctx context.Context, w io.Writer, logger logr.Logger, lookup service.LookupEnv) error {
	cfg, err := service.ConfigFromEnv(ctx, lookup)
	if err != nil {
		return &service.StageError{Stage: "config", Err: err}
	}
	desc, err := cfg.Descriptor()
	if err != nil {
		return &service.StageError{Stage: "config", Err: err}
	}
	srv, err := service.NewFromConfig(ctx, cfg, logger)
	if err != nil {
		return &service.StageError{Stage: "init", Err: err}
	}
	defer func() { _ = srv.Close() }()

	report, err := srv.Run(ctx, desc, service.DemoRecords(), cfg.Search.Query, cfg.Search.TopK)
	if err != nil {
		var stageErr *service.StageError
		if errors.As(err, &stageErr) {
			return err
		}
		return &service.StageError{Stage: "run", Err: err}
	}
	printReport(w, report)
	return nil
}

func printReport(w io.Writer, report *service.Report) {
	fmt.Fprintf(w, "collection=%s (%s) dimension=%d distance=%s stored=%d\n",
		report.Collection.Name, report.Ensured, report.Collection.Dimension, report.Collection.Distance, report.Stored)
	fmt.Fprintf(w, "query: %s\n", report.Query)
	for i, item := range report.Results {
		title, _ := item.Payload["title"].(string)
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", i+1, item.ID, item.Score, title)
	}
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

func maybeDebugSleep() {
	seconds := positiveIntFromEnv(os.LookupEnv, envDebugSleep)
	if seconds <= 0 {
		return
	}
	log.Printf("debug: pid=%d sleep=%ds", os.Getpid(), seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
}

func verbosityFromEnv(lookup service.LookupEnv) int {
	value, ok := lookup(envVerbose)
	if !ok {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "on":
		return 1
	}
	return positiveIntFromEnv(lookup, envVerbose)
}

func positiveIntFromEnv(lookup service.LookupEnv, key string) int {
	value, ok := lookup(key)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
