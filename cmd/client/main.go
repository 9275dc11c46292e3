// Package main runs the GophChat terminal client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/atinyakov/GophChat/internal/client/api"
	"github.com/atinyakov/GophChat/internal/client/shell"
	"github.com/atinyakov/GophChat/internal/client/storage"
	"github.com/atinyakov/GophChat/internal/config"
	"github.com/atinyakov/GophChat/internal/logger"
)

var (
	version   string
	buildDate string
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "-version" || os.Args[1] == "--version") {
		fmt.Printf("GophChat Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	opts, err := config.ParseClient(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	lg := logger.New()
	if err := lg.InitFile(opts.LogLevel, opts.LogFile); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Log.Sync() }()

	client, err := storage.NewHTTPClient(opts.CAFile)
	if err != nil {
		log.Fatal(err)
	}

	ids := storage.NewIdentityStore(opts.DataDir)
	if id := ids.Load(); id.Authenticated() {
		fmt.Printf("Signed in as %s (%s)\n", id.ID, id.Role)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Log.Info("client started", zap.String("url", opts.URL))
	sh := shell.New(api.NewRemote(opts.URL, client), ids, os.Stdin, os.Stdout, lg.Log)
	if err := sh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		lg.Log.Error("shell stopped", zap.Error(err))
	}
}
