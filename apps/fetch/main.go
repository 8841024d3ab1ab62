package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/core/resource"
	logsvc "github.com/trezcool/masomo-resources/services/logger"
)

func main() {
	std := log.New(os.Stderr, "FETCH : ", log.LstdFlags)

	conf, err := core.NewConfig()
	if err != nil {
		std.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	registry := resource.NewRegistry(conf.AppName)
	saver := resource.NewDirSaver(conf.Client.DownloadDir, registry)
	client, err := resource.NewClient(resource.ClientOptions{
		BaseURL:      conf.Client.BaseURL,
		ResourcePath: conf.Client.ResourcePath,
		Token:        conf.Client.Token,
		Timeout:      conf.Client.Timeout,
		Registry:     registry,
		Saver:        saver,
		Logger:       logger,
	})
	if err != nil {
		std.Fatal(err)
	}

	// Ctrl-C cancels the running operation
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := commandLine{
		fetcher:     client,
		saver:       saver,
		autoLoad:    conf.Client.AutoLoad,
		autoCleanup: conf.Client.AutoCleanup,
		out:         os.Stdout,
		termFd:      int(os.Stdout.Fd()),
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			std.Printf("error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}
