// Package main provides a command line front end that turns a video reference
// into a sender item, or purges the scratch directory.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/maauso/videosend/internal/bootstrap"
	"github.com/maauso/videosend/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists
	_ = godotenv.Load()

	source := flag.String("source", "", "video reference (file:// URL, absolute path, or s3:// URL)")
	purge := flag.Bool("purge", false, "remove the scratch directory and exit")
	flag.Parse()

	if *source == "" && !*purge {
		fmt.Fprintln(os.Stderr, "Usage: videosend -source <reference> | -purge")
		fmt.Fprintln(os.Stderr, "\nExample:")
		fmt.Fprintln(os.Stderr, "  videosend -source file:///home/me/clip.mov")
		return errors.New("no action requested")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer deps.Close()

	if *purge {
		if err := deps.Scratch.Purge(); err != nil {
			return fmt.Errorf("purge scratch: %w", err)
		}
		logger.Info("scratch directory purged", slog.String("dir", deps.Scratch.Dir()))
		return nil
	}

	// Ctrl-C cancels the encode; partial output stays until the scratch dir is purged
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	item := deps.Bridge.SenderItemFromURL(ctx, *source)
	if item == nil {
		return fmt.Errorf("no sender item produced for %s", *source)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(item)
}
